package main

import (
	"context"
	"flag"
	"log"
	"os"

	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/flow"
	"triage-flows/internal/store"
)

func main() {
	id := flag.String("id", "", "flow id (default: every flow)")
	flag.Parse()

	cfg := config.LoadConfig()
	database.InitGorm(cfg)
	ctx := context.Background()
	s := store.NewFlowStore(database.GormDB, nil)

	var docs []flow.Document
	if *id != "" {
		d, err := s.Get(ctx, *id)
		if err != nil {
			log.Fatalf("Error loading flow: %v", err)
		}
		docs = append(docs, d)
	} else {
		all, err := s.List(ctx, store.Filter{})
		if err != nil {
			log.Fatalf("Error listing flows: %v", err)
		}
		docs = all
	}

	invalid := 0
	for _, d := range docs {
		violations := flow.Validate(d)
		status := "OK"
		if len(violations) > 0 {
			status = "INVALID"
			invalid++
		}
		log.Printf("%s  %s (%s) v%d published=%v", status, d.Name, d.ID, d.Version, d.Published)
		for _, v := range violations {
			log.Printf("    %s", v)
		}
		for _, orphan := range flow.Unreachable(d.Structure) {
			log.Printf("    warning: step %s is unreachable from %s", orphan, d.Structure.InitialStep)
		}
	}

	log.Printf("Checked %d flow(s), %d invalid", len(docs), invalid)
	if invalid > 0 {
		os.Exit(1)
	}
}
