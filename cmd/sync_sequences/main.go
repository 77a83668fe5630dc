package main

import (
	"log"

	"triage-flows/internal/config"
	"triage-flows/internal/database"
)

func main() {
	cfg := config.LoadConfig()
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "" {
		log.Fatalf("Sequences only exist on postgres, DB_DRIVER is %s", cfg.DBDriver)
	}
	database.InitGorm(cfg)
	db := database.GormDB

	// tables keyed by a serial id; the rest use uuids
	tables := []string{
		"fluxo_versoes",
	}

	log.Println("Syncing PostgreSQL sequences...")
	for _, table := range tables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			log.Printf("Error syncing sequence for %s: %v", table, err)
		} else {
			log.Printf("Successfully synced sequence for %s", table)
		}
	}
	log.Println("DONE!")
}
