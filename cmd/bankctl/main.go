package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bankctl/internal/api"
	"bankctl/internal/config"
	"bankctl/internal/session"
	"bankctl/internal/ui"
)

func main() {
	serverFlag := flag.String("server", "", "Override API base URL (e.g. https://bank.example.com/api)")
	debug := flag.Bool("debug", false, "Verbose logging")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if *serverFlag != "" {
		cfg.APIBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := session.NewStore(cfg.SessionFile, cfg.SessionKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.APIBaseURL, store, logger)
	app := ui.NewApp(store, client, os.Stdin, os.Stdout, logger)

	if err := app.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	// Keep stdout clean for the terminal UI.
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
