package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"perpscan/internal/app"
	"perpscan/internal/config"
	"perpscan/internal/logger"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file")
	printConfig := flag.Bool("print-config", false, "print the default config as YAML and exit")
	flag.Parse()

	if *printConfig {
		out, err := config.ExampleYAML()
		if err != nil {
			log.Fatalf("render config: %v", err)
		}
		fmt.Print(out)
		return
	}

	path := strings.TrimSpace(*cfgPath)
	if path == "" {
		path = os.Getenv("PERPSCAN_CONFIG")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.SetLevel(cfg.App.LogLevel)
	if cfg.App.LogPath != "" {
		logger.SetFile(cfg.App.LogPath, cfg.App.LogMaxSizeMB, cfg.App.LogMaxBackups)
	}
	logger.Infof("config loaded (env=%s, testnet=%v)", cfg.App.Env, cfg.Exchange.Testnet)

	a, err := app.New(cfg, path)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
