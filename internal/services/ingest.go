// Package services – Ingestor
//
// Ingestor walks a set of local documents, makes sure each city has a docset
// and a cities row, and submits documents for docsets that are still empty.
// Files are grouped by the city prefix of their name: "anaheim_budget.pdf"
// belongs to city "anaheim".
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/tbourn/docset-relay/internal/config"
	"github.com/tbourn/docset-relay/internal/domain"
)

// Per-file ingestion outcomes.
const (
	FileUploaded = "uploaded"
	FileSkipped  = "skipped"
	FileFailed   = "failed"
)

// DefaultDocSetPrefix is prepended to the city key to name its docset.
const DefaultDocSetPrefix = "Hamlet - "

// FileResult is the outcome for one ingested file.
type FileResult struct {
	File     string `json:"file"`
	City     string `json:"city"`
	DocSetID string `json:"docset_id,omitempty"`
	Status   string `json:"status"`
	TaskID   string `json:"task_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// IngestReport summarizes an ingestion run.
type IngestReport struct {
	Processed int          `json:"processed"`
	Uploaded  int          `json:"uploaded"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`
	Results   []FileResult `json:"results"`
}

func (r *IngestReport) add(res FileResult) {
	r.Processed++
	switch res.Status {
	case FileUploaded:
		r.Uploaded++
	case FileSkipped:
		r.Skipped++
	case FileFailed:
		r.Failed++
	}
	r.Results = append(r.Results, res)
	ingestFiles.WithLabelValues(res.Status).Inc()
}

// Ingestor uploads local documents into per-city docsets.
type Ingestor struct {
	Client DocSetClient
	Cities CityStore

	// DocSetPrefix defaults to DefaultDocSetPrefix when empty.
	DocSetPrefix string
	// IsolateFailures keeps going after a failing file instead of aborting.
	IsolateFailures bool
	// RefreshDocSet repoints an existing city row at the current docset id.
	RefreshDocSet bool
	// Limiter paces uploads; nil means unpaced.
	Limiter *rate.Limiter
}

// NewIngestor builds an Ingestor from configuration.
func NewIngestor(client DocSetClient, cities CityStore, cfg config.IngestConfig) *Ingestor {
	in := &Ingestor{
		Client:          client,
		Cities:          cities,
		DocSetPrefix:    cfg.DocSetPrefix,
		IsolateFailures: cfg.IsolateFailures,
		RefreshDocSet:   cfg.RefreshDocSet,
	}
	if cfg.UploadRPS > 0 {
		in.Limiter = rate.NewLimiter(rate.Limit(cfg.UploadRPS), 1)
	}
	return in
}

// IngestAll processes every regular file matching pattern in sorted order.
//
// By default the first failing file aborts the run with a *BatchError and the
// report holds the files handled so far. With IsolateFailures each failure is
// recorded in the report and the run continues.
func (in *Ingestor) IngestAll(ctx context.Context, pattern string) (IngestReport, error) {
	ctx, span := otel.Tracer("services/Ingestor").Start(ctx, "IngestAll",
		trace.WithAttributes(attribute.String("pattern", pattern)),
	)
	defer span.End()

	var report IngestReport
	files, err := matchFiles(pattern)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		return report, ErrNoDocuments
	}
	span.SetAttributes(attribute.Int("files", len(files)))

	lg := zerolog.Ctx(ctx)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, &BatchError{File: f, Err: err}
		}
		res, err := in.ingestOne(ctx, f)
		if err != nil {
			res.Status = FileFailed
			res.Error = err.Error()
			report.add(res)
			span.RecordError(err)
			lg.Error().Err(err).Str("file", f).Msg("ingest file failed")
			if !in.IsolateFailures {
				span.SetStatus(codes.Error, "batch aborted")
				return report, &BatchError{File: f, Err: err}
			}
			continue
		}
		report.add(res)
		lg.Info().
			Str("file", f).
			Str("city", res.City).
			Str("docset_id", res.DocSetID).
			Str("status", res.Status).
			Msg("ingest file done")
	}
	return report, nil
}

func (in *Ingestor) ingestOne(ctx context.Context, path string) (FileResult, error) {
	city := CityKey(path)
	res := FileResult{File: path, City: city}
	if city == "" {
		return res, fmt.Errorf("cannot derive city from %q", filepath.Base(path))
	}

	ds, err := in.ensureDocSet(ctx, city)
	if err != nil {
		return res, err
	}
	res.DocSetID = ds

	if err := in.upsertCity(ctx, lowerCity(city), ds); err != nil {
		return res, err
	}

	docs, err := in.Client.ListDocs(ctx, ds)
	if err := upstream("list_docs", err); err != nil {
		return res, err
	}
	if len(docs) > 0 {
		res.Status = FileSkipped
		return res, nil
	}

	if in.Limiter != nil {
		if err := in.Limiter.Wait(ctx); err != nil {
			return res, err
		}
	}
	taskID, err := in.Client.AddDocAsync(ctx, ds, path)
	if err := upstream("upload", err); err != nil {
		return res, err
	}
	res.Status = FileUploaded
	res.TaskID = taskID
	return res, nil
}

// ensureDocSet returns the id of the docset named prefix+city, creating it
// when no docset has exactly that name.
func (in *Ingestor) ensureDocSet(ctx context.Context, city string) (string, error) {
	prefix := in.DocSetPrefix
	if prefix == "" {
		prefix = DefaultDocSetPrefix
	}
	name := prefix + city

	ds, found, err := in.Client.FindDocSetByName(ctx, name)
	if err := upstream("find_docset", err); err != nil {
		return "", err
	}
	if found {
		return ds.ID, nil
	}
	ds, err = in.Client.CreateDocSet(ctx, name)
	if err := upstream("create_docset", err); err != nil {
		return "", err
	}
	zerolog.Ctx(ctx).Info().Str("docset", name).Str("docset_id", ds.ID).Msg("docset created")
	return ds.ID, nil
}

// upsertCity inserts {name, docsetID} unless the city exists. The existence
// check and insert are not atomic.
func (in *Ingestor) upsertCity(ctx context.Context, name, docsetID string) error {
	existing, err := in.Cities.GetCity(ctx, name)
	switch {
	case err == nil:
		if in.RefreshDocSet && existing.DocSetID != docsetID {
			if err := in.Cities.UpdateCityDocSet(ctx, name, docsetID); err != nil {
				return fmt.Errorf("refresh city %s: %w", name, err)
			}
			zerolog.Ctx(ctx).Info().Str("city", name).
				Str("old_docset_id", existing.DocSetID).
				Str("docset_id", docsetID).
				Msg("city docset refreshed")
		}
		return nil
	case errors.Is(err, domain.ErrNotFound):
		if err := in.Cities.CreateCity(ctx, &domain.City{Name: name, DocSetID: docsetID}); err != nil {
			return fmt.Errorf("create city %s: %w", name, err)
		}
		return nil
	default:
		return fmt.Errorf("get city %s: %w", name, err)
	}
}

// Upload submits a single file into docsetID and returns the task id.
func (in *Ingestor) Upload(ctx context.Context, filePath, docsetID string) (string, error) {
	ctx, span := otel.Tracer("services/Ingestor").Start(ctx, "Upload",
		trace.WithAttributes(
			attribute.String("file", filePath),
			attribute.String("docset.id", docsetID),
		),
	)
	defer span.End()

	if !SafeRelPath(filePath) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, filePath)
	}
	fi, err := os.Stat(filePath)
	if err != nil || fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}

	taskID, err := in.Client.AddDocAsync(ctx, docsetID, filePath)
	if err := upstream("upload", err); err != nil {
		span.RecordError(err)
		return "", err
	}
	zerolog.Ctx(ctx).Info().Str("file", filePath).Str("task_id", taskID).Msg("document submitted")
	return taskID, nil
}

// SafeRelPath reports whether p is a non-empty relative path that stays
// inside the working directory. Both slash styles count as separators.
func SafeRelPath(p string) bool {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return false
	}
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return false
		}
	}
	return true
}

// CityKey derives the grouping key from a document path: the base name up
// to the first underscore.
//
// A base name without any underscore also loses its extension
// ("fresno.pdf" groups as "fresno", not "fresno.pdf"), which is looser than
// a plain substring-before-first-underscore rule.
func CityKey(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '_'); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func lowerCity(city string) string {
	return cases.Lower(language.Und).String(city)
}

func matchFiles(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
