package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/student-sync/internal/graphql"
	"github.com/DjordjeVuckovic/student-sync/internal/ingest"
	"github.com/DjordjeVuckovic/student-sync/internal/reader"
	"github.com/DjordjeVuckovic/student-sync/internal/storage/mysql"
)

func main() {
	appSettings := NewAppConfig()

	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(cfg.MappingPath)
	if err != nil {
		slog.Error("failed to read mapping configuration file", "error", err)
		os.Exit(1)
	}
	defer file.Close()

	loader := reader.NewYAMLConfigLoader(file)
	mappingCfg, err := loader.Load(true)
	if err != nil {
		slog.Error("failed to load mapping configuration", "error", err)
		os.Exit(1)
	}
	mapper := reader.NewStudentMapper(mappingCfg)

	source, err := graphql.NewClient(cfg.APIURL, cfg.APIToken, mappingCfg.SourceFields())
	if err != nil {
		slog.Error("failed to create upstream client", "error", err)
		os.Exit(1)
	}

	sink := mysql.NewSink(cfg.Tunnel, cfg.DB)

	driver := ingest.NewDriver(source, mapper, sink,
		ingest.WithStartOffset(cfg.StartOffset),
		ingest.WithLimit(cfg.Limit),
	)

	res, err := driver.Run(ctx)
	if err != nil {
		slog.Error("import run failed",
			"error", err,
			"state", res.State,
			"last_committed_offset", res.LastCommittedOffset,
		)
		// The operator resumes a failed run by re-invoking with
		// QUERY_OFFSET set to this value.
		fmt.Fprintf(os.Stdout, "last committed offset: %d\n", res.LastCommittedOffset)
		os.Exit(1)
	}

	slog.Info("import run finished",
		"state", res.State,
		"pages", res.Pages,
		"records", res.Records,
	)
	fmt.Fprintf(os.Stdout, "last committed offset: %d\n", res.LastCommittedOffset)
}
