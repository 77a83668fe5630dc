package main

import (
	"context"
	"flag"
	"log"
	"os"

	"triage-flows/internal/archive"
	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/store"
	"triage-flows/internal/transfer"
)

func main() {
	id := flag.String("id", "", "flow id")
	out := flag.String("out", "", "output file; .yaml/.yml writes YAML, anything else JSON")
	toArchive := flag.Bool("archive", false, "also save a snapshot to the configured archive")
	flag.Parse()
	if *id == "" || *out == "" {
		log.Fatal("-id and -out are required")
	}

	cfg := config.LoadConfig()
	database.InitGorm(cfg)
	ctx := context.Background()
	s := store.NewFlowStore(database.GormDB, nil)

	d, err := s.Get(ctx, *id)
	if err != nil {
		log.Fatalf("Error loading flow: %v", err)
	}

	data, err := transfer.Encode(d, transfer.FormatFromPath(*out))
	if err != nil {
		log.Fatalf("Error encoding flow: %v", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatalf("Error writing %s: %v", *out, err)
	}
	log.Printf("Exported flow %s version %d to %s", d.ID, d.Version, *out)

	if *toArchive {
		arch, err := archive.NewFromConfig(ctx, cfg)
		if err != nil {
			log.Fatalf("Error setting up archive: %v", err)
		}
		if arch == nil {
			log.Fatal("-archive needs ARCHIVE_TYPE to be set")
		}
		obj, err := arch.SaveFlow(ctx, d, "export")
		if err != nil {
			log.Fatalf("Error archiving flow: %v", err)
		}
		log.Printf("Archived as %s (%d bytes)", obj.Key, obj.Size)
	}
}
