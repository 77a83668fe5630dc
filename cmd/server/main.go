package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"triage-flows/internal/api"
	"triage-flows/internal/config"
	"triage-flows/internal/contact"
	"triage-flows/internal/database"
	"triage-flows/internal/directory"
	"triage-flows/internal/store"
	"triage-flows/internal/ws"
)

func main() {
	cfg := config.LoadConfig()
	database.InitGorm(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub()
	go hub.Run(ctx)

	flowStore := store.NewFlowStore(database.GormDB, hub)
	r := api.NewRouter(api.Handlers{
		Flows:     api.NewFlowHandler(flowStore, contact.NewLookup(database.GormDB, cfg.EmpresaID)),
		Directory: api.NewDirectoryHandler(directory.New(database.GormDB), cfg.EmpresaID),
		WS:        hub.ServeWs,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
