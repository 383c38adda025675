// Command catalogctl builds a catalog from a local export or the published
// sheet and prints it as JSON, without touching the snapshot store.
//
//	catalogctl -file export.csv -pretty
//	catalogctl -url "$CATALOG_SHEET_URL" -out catalog.json
//	catalogctl -file export.xlsx -rows   # print the tokenized rows as CSV
//
// Exit status is 2 when the export is missing required columns and 1 on
// any other failure.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/csv"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/source"
	"github.com/joho/godotenv"
)

const (
	exitFailure  = 1
	exitMismatch = 2
)

type options struct {
	file     string
	url      string
	out      string
	pretty   bool
	rows     bool
	maxBytes int64
	timeout  time.Duration
	logLevel string
}

func main() {
	// A .env next to the binary may carry CATALOG_SHEET_URL.
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.file, "file", "", "local export (.csv or .xlsx)")
	flag.StringVar(&opts.url, "url", os.Getenv("CATALOG_SHEET_URL"), "published sheet URL (default $CATALOG_SHEET_URL)")
	flag.StringVar(&opts.out, "out", "", "write output here instead of stdout")
	flag.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	flag.BoolVar(&opts.rows, "rows", false, "print the tokenized rows as CSV instead of the catalog")
	flag.Int64Var(&opts.maxBytes, "max-bytes", 20<<20, "maximum export size in bytes")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "download timeout")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	logging.SetupWriter(os.Stderr, opts.logLevel, "text")

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "catalogctl:", core.FormatUserError(err))
		slog.Debug("technical error", "error", err)
		if errors.Is(err, catalog.ErrColumnMismatch) {
			os.Exit(exitMismatch)
		}
		os.Exit(exitFailure)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	rows, err := readRows(ctx, opts)
	if err != nil {
		return err
	}

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if opts.rows {
		_, err := io.WriteString(w, csv.Format(rows))
		return err
	}

	cat, err := catalog.Build(rows)
	if err != nil {
		return err
	}
	slog.Info("catalog built",
		"total_rows", cat.Stats.TotalRows,
		"valid_rows", cat.Stats.ValidRows,
		"products", cat.Stats.Products,
	)

	enc := json.NewEncoder(w)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(cat)
}

func readRows(ctx context.Context, opts options) ([][]string, error) {
	switch {
	case opts.file == "-":
		return source.ReadRows("stdin", os.Stdin, opts.maxBytes)
	case opts.file != "":
		return source.ReadFile(opts.file, opts.maxBytes)
	case opts.url != "":
		return source.NewFetcher(opts.url, opts.timeout, opts.maxBytes).Fetch(ctx)
	default:
		return nil, errors.New("no file provided: pass -file or -url")
	}
}
