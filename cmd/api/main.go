package main

import (
	"log"

	"persona-review/internal/bootstrap"
	"persona-review/internal/shared/config"
	"persona-review/internal/shared/server"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s (env=%s db=%s store=%s)", addr, cfg.Env, cfg.DBDriver, cfg.ObjectStoreType)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
