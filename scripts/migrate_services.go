// Однократная миграция каталога услуг из services.yaml в sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type ServicesConfig struct {
	Services []models.Service `yaml:"services"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		servicesPath = flag.String("services", "configs/services.yaml", "path to services.yaml")
		dbPath       = flag.String("db", "./data/appointments.db", "path to sqlite db")
		timezone     = flag.String("tz", "", "business timezone, default local")
	)
	flag.Parse()

	data, err := os.ReadFile(*servicesPath)
	if err != nil {
		return fmt.Errorf("read services: %w", err)
	}
	var cfg ServicesConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse services: %w", err)
	}
	if err = config.ValidateServices(cfg.Services); err != nil {
		return fmt.Errorf("validate services: %w", err)
	}

	loc := time.Local
	if *timezone != "" {
		if loc, err = time.LoadLocation(*timezone); err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
	}

	db, err := database.NewDB(*dbPath, loc, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err = db.SeedServices(ctx, cfg.Services); err != nil {
		return fmt.Errorf("seed services: %w", err)
	}

	fmt.Printf("done: seeded=%d\n", len(cfg.Services))
	return nil
}
