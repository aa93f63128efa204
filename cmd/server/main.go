package main

import (
	"flag"
	"log"

	"chatwire/internal/api"
	"chatwire/internal/storage"
)

func main() {
	addr := flag.String("addr", ":5500", "listen address")
	dbPath := flag.String("db", storage.DefaultDBPath, "sqlite database path")
	flag.Parse()

	log.Printf("chatwire relay listening on %s", *addr)
	if err := api.Serve(*addr, *dbPath); err != nil {
		log.Fatal(err)
	}
}
