package main

import (
	"context"
	"log"
	"os"

	"github.com/jungha-dev/newsVideo-sub000/internal/config"
	"github.com/jungha-dev/newsVideo-sub000/internal/platform"
	"github.com/jungha-dev/newsVideo-sub000/storage"
	"github.com/jungha-dev/newsVideo-sub000/tasks"
	"github.com/jungha-dev/newsVideo-sub000/worker"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()
	blobs, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatalf("Failed to prepare upload dir: %v", err)
	}

	processor := worker.NewProcessor(db, rdb, blobs)
	processor.Register(tasks.QueueClipPersist, processor.HandleClipPersist)

	log.Println("Clip persistence worker starting")
	processor.Listen(context.Background(), tasks.QueueClipPersist)
}
