package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"triage-flows/internal/archive"
	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/flow"
	"triage-flows/internal/store"
	"triage-flows/internal/transfer"
)

func main() {
	cfg := config.LoadConfig()
	file := flag.String("file", "", "flow file (.json, .yaml or .yml)")
	empresa := flag.String("empresa", cfg.EmpresaID, "company id for files that carry none (default: EMPRESA_ID)")
	replace := flag.Bool("replace", false, "overwrite the stored flow with the same id")
	publish := flag.Bool("publish", false, "publish when the file marks the flow published")
	flag.Parse()
	if *file == "" {
		log.Fatal("-file is required")
	}

	database.InitGorm(cfg)
	ctx := context.Background()
	s := store.NewFlowStore(database.GormDB, nil)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Error reading %s: %v", *file, err)
	}
	d, err := transfer.Decode(data, transfer.FormatFromPath(*file))
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if d.EmpresaID == "" {
		d.EmpresaID = *empresa
	}

	var arch *archive.Archiver
	if *replace {
		arch, err = archive.NewFromConfig(ctx, cfg)
		if err != nil {
			log.Fatalf("Error setting up archive: %v", err)
		}
	}

	out, err := transfer.Import(ctx, s, arch, d, transfer.ImportOptions{Replace: *replace, Publish: *publish})
	if err != nil {
		var verr *flow.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				log.Printf("    %s", v)
			}
		}
		log.Fatalf("Error importing flow: %v", err)
	}
	log.Printf("Imported flow %s (%s) version %d published=%v", out.Name, out.ID, out.Version, out.Published)
}
