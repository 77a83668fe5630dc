package main

import (
	"context"
	"flag"
	"log"

	"triage-flows/internal/bootstrap"
	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/store"
)

func main() {
	cfg := config.LoadConfig()
	empresa := flag.String("empresa", cfg.EmpresaID, "company id (default: EMPRESA_ID)")
	flag.Parse()

	database.InitGorm(cfg)
	ctx := context.Background()
	s := store.NewFlowStore(database.GormDB, nil)

	log.Println("Ensuring default nucleos and WhatsApp flow...")
	res, err := bootstrap.EnsureDefault(ctx, database.GormDB, s, *empresa)
	if err != nil {
		log.Fatalf("Error ensuring default flow: %v", err)
	}

	verb := "Updated"
	if res.Created {
		verb = "Created"
	}
	log.Printf("%s default flow %s (%s): version=%d published=%v priority=%d",
		verb, res.Flow.Name, res.Flow.ID, res.Flow.Version, res.Flow.Published, res.Flow.Priority)
	if len(res.Demoted) == 0 {
		log.Println("No other published WhatsApp flow outranked it")
	} else {
		log.Printf("Demoted %d competing flow(s) below priority %d", len(res.Demoted), bootstrap.DefaultPriority)
	}
}
