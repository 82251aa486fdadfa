// Командный экспорт журнала записей в Excel: список записей и сетка
// занятости за указанный период.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/export"
	"zapis/internal/logging"
	"zapis/internal/models"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "configs/config.yaml", "путь к конфигурации")
		fromFlag   = flag.String("from", "", "начало периода (YYYY-MM-DD), по умолчанию сегодня")
		toFlag     = flag.String("to", "", "конец периода (YYYY-MM-DD), по умолчанию from+30 дней")
		gridFlag   = flag.Bool("grid", false, "дополнительно выгрузить сетку занятости")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	startDate := time.Now().In(loc)
	if *fromFlag != "" {
		startDate, err = time.ParseInLocation(models.DateLayout, *fromFlag, loc)
		if err != nil {
			return fmt.Errorf("invalid -from: %w", err)
		}
	}
	endDate := startDate.AddDate(0, 0, 30)
	if *toFlag != "" {
		endDate, err = time.ParseInLocation(models.DateLayout, *toFlag, loc)
		if err != nil {
			return fmt.Errorf("invalid -to: %w", err)
		}
	}
	if endDate.Before(startDate) {
		return fmt.Errorf("period end %s before start %s", *toFlag, *fromFlag)
	}

	db, err := database.NewDB(cfg.Database.Path, loc, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter := export.NewExporter(db, cfg.Exports.Path, cfg.Booking.GranularityMinutes, loc, logger)

	ctx := context.Background()
	listPath, err := exporter.ExportAppointmentList(ctx, startDate, endDate)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, listPath)

	if *gridFlag {
		gridPath, err := exporter.ExportScheduleGrid(ctx, startDate, endDate)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, gridPath)
	}

	return nil
}
