package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/flow"
	"triage-flows/internal/store"
)

func main() {
	id := flag.String("id", "", "flow id")
	action := flag.String("action", "publish", "publish, unpublish, republish or restore")
	snapshot := flag.Int("snapshot", 0, "snapshot version to restore (with -action restore)")
	expected := flag.Int("expected-version", 0, "fail unless the stored version matches (0 skips the check)")
	flag.Parse()
	if *id == "" {
		log.Fatal("-id is required")
	}

	cfg := config.LoadConfig()
	database.InitGorm(cfg)
	ctx := context.Background()
	s := store.NewFlowStore(database.GormDB, nil)

	var op func(context.Context, string, int) (flow.Document, error)
	switch *action {
	case "publish":
		op = s.Publish
	case "unpublish":
		op = s.Unpublish
	case "republish":
		op = s.Republish
	case "restore":
		if *snapshot == 0 {
			log.Fatal("-snapshot is required to restore")
		}
		op = func(ctx context.Context, id string, expectedVersion int) (flow.Document, error) {
			return s.RestoreVersion(ctx, id, expectedVersion, *snapshot)
		}
	default:
		log.Fatalf("Unknown action %q", *action)
	}

	d, err := op(ctx, *id, *expected)
	if err != nil {
		var verr *flow.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				log.Printf("    %s", v)
			}
		}
		log.Fatalf("Error: %v", err)
	}

	publishedAt := "-"
	if d.PublishedAt != nil {
		publishedAt = d.PublishedAt.Format("2006-01-02 15:04:05")
	}
	log.Printf("Flow %s (%s): version=%d published=%v publishedAt=%s", d.Name, d.ID, d.Version, d.Published, publishedAt)
}
