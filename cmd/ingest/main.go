// Command ingest uploads local documents into per-city docsets and records
// the city to docset mapping. It runs the same ingestion as
// POST /api/process-documents without starting the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/tbourn/docset-relay/internal/app"
	"github.com/tbourn/docset-relay/internal/config"
	"github.com/tbourn/docset-relay/internal/services"
	"github.com/tbourn/docset-relay/internal/sysutil"
)

// ingestFunc runs one ingestion pass; replaced in tests.
type ingestFunc func(ctx context.Context, cfg config.Config, pattern string) (services.IngestReport, error)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "could not load .env:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(config.Load, runIngest, os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("ingest failed")
	}
}

func newApp(load func() (config.Config, error), run ingestFunc, out io.Writer) *cli.App {
	return &cli.App{
		Name:  "ingest",
		Usage: "Upload local documents into per-city docsets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "pattern",
				Aliases: []string{"p"},
				Usage:   "Glob of documents to ingest (defaults to DOCUMENTS_GLOB)",
			},
			&cli.StringFlag{
				Name:    "isolate",
				Usage:   "Keep going past failing files (true/false, defaults to INGEST_ISOLATE_FAILURES)",
				EnvVars: []string{"INGEST_ISOLATE"},
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Update a city's docset id when it changed upstream",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the report as JSON",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override LOG_LEVEL (debug, info, warn, error)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := load()
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			sysutil.ConfigureLogger(os.Stderr, sysutil.FirstNonEmpty(c.String("log-level"), cfg.LogLevel), cfg.LogPretty)

			if v := c.String("isolate"); v != "" {
				cfg.Ingest.IsolateFailures = sysutil.IsTruthy(v)
			}
			if c.Bool("refresh") {
				cfg.Ingest.RefreshDocSet = true
			}
			pattern := sysutil.FirstNonEmpty(c.String("pattern"), cfg.Ingest.Glob)

			report, err := run(c.Context, cfg, pattern)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := printReport(out, report, c.Bool("json")); err != nil {
				return err
			}
			if report.Failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d documents failed", report.Failed, report.Processed), 1)
			}
			return nil
		},
	}
}

func runIngest(ctx context.Context, cfg config.Config, pattern string) (services.IngestReport, error) {
	store, err := app.OpenStore(cfg.Store)
	if err != nil {
		return services.IngestReport{}, err
	}
	defer store.Close()

	docs, err := app.NewDocClient(cfg.Aryn)
	if err != nil {
		return services.IngestReport{}, err
	}
	return services.NewIngestor(docs, store, cfg.Ingest).IngestAll(ctx, pattern)
}

func printReport(w io.Writer, r services.IngestReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCITY\tDOCSET\tSTATUS\tDETAIL")
	for _, res := range r.Results {
		detail := res.TaskID
		if res.Error != "" {
			detail = res.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", res.File, res.City, res.DocSetID, res.Status, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "processed=%d uploaded=%d skipped=%d failed=%d\n", r.Processed, r.Uploaded, r.Skipped, r.Failed)
	return err
}
