package main

import (
	"log"
	"reflect"

	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	cfg := config.LoadConfig()

	// 1. Connect to SQLite (Source)
	sqliteDB, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to SQLite: %v", err)
	}
	log.Printf("Connected to SQLite at %s", cfg.DBPath)

	// 2. Connect to the configured database (Destination)
	if cfg.DBDriver == "sqlite" {
		log.Fatal("DB_DRIVER is sqlite; point it at the destination database")
	}
	database.InitGorm(cfg)
	if err := database.Migrate(database.GormDB); err != nil {
		log.Fatalf("Failed to migrate destination: %v", err)
	}
	dest := database.GormDB

	log.Println("Starting data migration...")
	// models.All is ordered so parents are copied before children
	for _, m := range models.All() {
		migrateTable(sqliteDB, dest, m)
	}
	log.Println("Migration completed!")
}

func migrateTable(src, dest *gorm.DB, model interface{}) {
	stmt := &gorm.Statement{DB: src}
	if err := stmt.Parse(model); err != nil {
		log.Printf("Error parsing model %T: %v", model, err)
		return
	}
	table := stmt.Schema.Table
	log.Printf("Migrating table: %s", table)

	rows := reflect.New(reflect.SliceOf(reflect.TypeOf(model).Elem()))
	if err := src.Find(rows.Interface()).Error; err != nil {
		log.Printf("Error reading %s from SQLite: %v", table, err)
		return
	}
	n := rows.Elem().Len()
	if n == 0 {
		log.Printf("Nothing to copy in %s", table)
		return
	}

	err := dest.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(rows.Interface(), 200).Error
	})
	if err != nil {
		log.Printf("Error writing %s: %v", table, err)
	} else {
		log.Printf("Successfully migrated %d row(s) of %s", n, table)
	}
}
