package main

import (
	"log"
	"net/http"
	"os"

	"videoQuiz/config"
	"videoQuiz/processors"
	"videoQuiz/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	store := storage.NewSessionStore(cfg)
	defer store.Close()
	log.Printf("Session store initialized: %s", store.Kind())

	index := storage.NewVectorIndex(cfg)
	defer index.Close()
	log.Printf("Vector index initialized: %s", index.Kind())

	downloader, transcriber, generator := processors.NewProviders(cfg)
	pipeline := processors.NewPipeline(store, index, downloader, transcriber, generator, cfg)

	server := &Server{pipeline: pipeline, store: store, index: index}

	// Routes
	http.HandleFunc("/preprocess", server.preprocessHandler)
	http.HandleFunc("GET /transcript/{session_id}/{start_time}/{end_time}", server.transcriptHandler)
	http.HandleFunc("/search", server.searchHandler)
	http.HandleFunc("/ping", server.pingHandler)
	http.HandleFunc("/health", server.healthHandler)

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	log.Printf("Server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
