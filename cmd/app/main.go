package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/di"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	once := flag.Bool("once", false, "score every asset once and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *once {
		err = app.RunOnce(context.Background())
	} else {
		err = app.Run()
	}
	cleanup()

	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
