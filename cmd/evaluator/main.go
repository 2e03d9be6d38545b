// evaluator обучает модель на CSV-выгрузке и печатает отчет о качестве.
// Сервис не нужен: используется тот же пайплайн, что и при обучении в сервисе.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"price-estimation-service/internal/adapters/csvsource"
	logger_adapter "price-estimation-service/internal/adapters/logger"
	"price-estimation-service/internal/core/cleaning"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/estimator"
	"price-estimation-service/internal/core/port"
	"price-estimation-service/internal/core/regression"
)

func main() {
	csvPath := flag.String("csv", "data/Bengaluru_House_Data.csv", "path to the raw listings CSV")
	minLoc := flag.Int("min-location-count", cleaning.DefaultMinLocationCount, "locations with fewer listings are binned into 'other'")
	binning := flag.String("binning", string(domain.BinningBatch), "location binning at inference: batch | frozen")
	testSize := flag.Float64("test-size", regression.DefaultTestSize, "hold-out fraction")
	seed := flag.Int64("seed", regression.DefaultSplitSeed, "split seed")
	logLevel := flag.String("log-level", "info", "debug | info | warn | error")
	flag.Parse()

	level, known := logger_adapter.ParseLevel(*logLevel)
	if !known {
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", *logLevel)
	}
	logger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Writer:   os.Stderr,
		Level:    level,
		UseColor: true,
	}).WithFields(port.Fields{"component": "evaluator"})

	source := csvsource.NewListingSource(*csvPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	raw, err := source.Load(ctx)
	if err != nil {
		logger.Error("Failed to load listings", err, port.Fields{"source": source.Name()})
		os.Exit(1)
	}
	logger.Info("Listings loaded", port.Fields{"rows": len(raw), "duration": time.Since(start).String()})

	model, err := estimator.Train(raw, estimator.TrainConfig{
		MinLocationCount: *minLoc,
		Binning:          domain.BinningMode(*binning),
		TestSize:         *testSize,
		Seed:             *seed,
		Source:           source.Name(),
	})
	if err != nil {
		logger.Error("Training failed", err, nil)
		os.Exit(1)
	}

	printReport(model)
}

func printReport(model *estimator.Model) {
	run := model.Run()
	stats := model.CleaningStats()

	fmt.Printf("model:            %s\n", run.ID)
	fmt.Printf("source:           %s\n", run.Source)
	fmt.Printf("binning:          %s\n", run.Binning)
	fmt.Println()
	fmt.Printf("raw rows:         %d\n", stats.Input)
	fmt.Printf("complete rows:    %d\n", stats.Complete)
	fmt.Printf("binned to other:  %d\n", stats.OtherLocations)
	fmt.Printf("after floor area: %d\n", stats.AfterFloorArea)
	fmt.Printf("after outliers:   %d\n", stats.AfterOutliers)
	fmt.Printf("cleaned rows:     %d\n", stats.Output)
	fmt.Println()
	fmt.Printf("train / test:     %d / %d\n", run.TrainRows, run.TestRows)
	fmt.Printf("locations:        %d\n", run.Locations)
	fmt.Printf("R2:               %.4f\n", run.Metrics.R2)
	fmt.Printf("MAE (lakhs):      %.3f\n", run.Metrics.MAE)
	fmt.Printf("RMSE (lakhs):     %.3f\n", run.Metrics.RMSE)
}
