package main

import (
	"context"
	"flag"
	"log"

	"triage-flows/internal/archive"
	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/flow"
	"triage-flows/internal/store"
)

func main() {
	id := flag.String("id", "", "flow id (default: every flow)")
	dryRun := flag.Bool("dry-run", false, "only report steps with legacy option keys")
	flag.Parse()

	cfg := config.LoadConfig()
	database.InitGorm(cfg)
	ctx := context.Background()
	s := store.NewFlowStore(database.GormDB, nil)

	arch, err := archive.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Error setting up archive: %v", err)
	}
	if arch == nil && !*dryRun {
		log.Println("Warning: ARCHIVE_TYPE is empty, flows will be rewritten without a backup")
	}

	var ids []string
	if *id != "" {
		ids = []string{*id}
	} else {
		ids, err = s.IDs(ctx)
		if err != nil {
			log.Fatalf("Error listing flows: %v", err)
		}
	}

	log.Println("Normalizing option labels...")
	for _, fid := range ids {
		raw, err := s.RawSteps(ctx, fid)
		if err != nil {
			log.Printf("Error reading flow %s: %v", fid, err)
			continue
		}
		var legacy []string
		for key, step := range raw {
			if flow.HasLegacyOptionFields(step) {
				legacy = append(legacy, key)
			}
		}
		if len(legacy) == 0 {
			log.Printf("Flow %s: nothing to fix", fid)
			continue
		}
		if *dryRun {
			log.Printf("Flow %s: %d step(s) with legacy option keys: %v", fid, len(legacy), legacy)
			continue
		}

		stored, version, err := s.RawStructure(ctx, fid)
		if err != nil {
			log.Printf("Error loading flow %s: %v", fid, err)
			continue
		}
		if arch != nil {
			if _, err := arch.SaveRaw(ctx, fid, version, "before-fix-option-labels", stored); err != nil {
				log.Printf("Error archiving flow %s, skipping: %v", fid, err)
				continue
			}
		}

		d, fixed, err := s.NormalizeOptionLabels(ctx, fid, version)
		if err != nil {
			log.Printf("Error fixing flow %s: %v", fid, err)
			continue
		}
		log.Printf("Successfully fixed flow %s: %v -> version %d", fid, fixed, d.Version)
		for _, v := range flow.Validate(d) {
			log.Printf("    still invalid: %s", v)
		}
	}
	log.Println("Done!")
}
