package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"triage-flows/internal/config"
	"triage-flows/internal/database"
	"triage-flows/internal/flow"
	"triage-flows/internal/store"
	"triage-flows/internal/transfer"
)

func main() {
	id := flag.String("id", "", "flow id (default: the live WhatsApp flow of EMPRESA_ID)")
	format := flag.String("format", "text", "text, json or yaml")
	flag.Parse()

	cfg := config.LoadConfig()
	database.InitGorm(cfg)
	ctx := context.Background()
	s := store.NewFlowStore(database.GormDB, nil)

	var d flow.Document
	var err error
	if *id != "" {
		d, err = s.Get(ctx, *id)
	} else {
		d, err = s.FindDefault(ctx, cfg.EmpresaID, "whatsapp")
	}
	if err != nil {
		log.Fatalf("Error loading flow: %v", err)
	}

	if *format != "text" {
		out, err := transfer.Encode(d, transfer.Format(*format))
		if err != nil {
			log.Fatalf("Error encoding flow: %v", err)
		}
		os.Stdout.Write(out)
		return
	}

	raw, err := s.RawSteps(ctx, d.ID)
	if err != nil {
		log.Fatalf("Error loading stored steps: %v", err)
	}

	fmt.Printf("%s (%s)\n", d.Name, d.ID)
	fmt.Printf("kind=%s version=%d published=%v priority=%d channels=%s\n",
		d.Kind, d.Version, d.Published, d.Priority, strings.Join(d.Channels, ","))
	if d.PublishedAt != nil {
		fmt.Printf("publishedAt=%s\n", d.PublishedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Println()

	order := flow.BreadthFirst(d.Structure)
	order = append(order, flow.Unreachable(d.Structure)...)
	for _, key := range order {
		step := d.Structure.Steps[key]
		marker := ""
		if key == d.Structure.InitialStep {
			marker = " (initial)"
		}
		if flow.HasLegacyOptionFields(raw[key]) {
			marker += " [legacy option keys]"
		}
		fmt.Printf("[%s] %s%s\n", step.Kind, key, marker)
		for _, line := range strings.Split(step.Message, "\n") {
			fmt.Printf("    | %s\n", line)
		}
		for _, o := range step.Options {
			fmt.Printf("    %s) %s -> %s\n", o.ID, o.Text, target(o.NextStep))
			for _, b := range o.ConditionalNext {
				fmt.Printf("        if %s -> %s\n", b.If, target(b.Then))
			}
		}
		if step.NextStep != "" || len(step.Options) == 0 {
			fmt.Printf("    -> %s\n", target(step.NextStep))
		}
		fmt.Println()
	}
}

func target(id string) string {
	if id == "" {
		return "(end)"
	}
	return id
}
