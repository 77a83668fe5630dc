package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/directory"
)

func main() {
	cfg := config.LoadConfig()
	empresa := flag.String("empresa", cfg.EmpresaID, "company id (default: EMPRESA_ID)")
	flag.Parse()

	database.InitGorm(cfg)
	ctx := context.Background()
	dir := directory.New(database.GormDB)
	now := time.Now()

	report, err := dir.Report(ctx, *empresa, now)
	if err != nil {
		log.Fatalf("Error loading nucleos: %v", err)
	}

	log.Printf("Nucleos for empresa %q at %s:", *empresa, now.Format("Mon 15:04"))
	for _, r := range report {
		shown := "hidden"
		if r.Shown {
			shown = "shown"
		}
		log.Printf("  %-6s %s (prioridade %d) departments %d/%d open=%v",
			shown, r.Name, r.Priority, r.VisibleDepartments, r.TotalDepartments, r.Open)
		if len(r.Reasons) > 0 {
			log.Printf("         %s", strings.Join(r.Reasons, "; "))
		}
	}

	menu, err := dir.BotMenu(ctx, *empresa, now)
	if err != nil {
		log.Fatalf("Error building bot menu: %v", err)
	}
	log.Println("Bot menu:")
	for i, n := range menu {
		log.Printf("  %d. %s open=%v", i+1, n.Name, n.Open)
		for _, d := range n.Departments {
			log.Printf("       - %s open=%v", d.Name, d.Open)
		}
	}
}
