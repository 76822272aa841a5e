package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"

	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"github.com/couchcryptid/climate-station-etl/internal/observability"
	"github.com/hashicorp/go-multierror"
)

// DefaultMaxConcurrent is the download fan-out when none is configured.
const DefaultMaxConcurrent = 20

// Download fetches every file relative to baseURL with at most limit requests
// in flight. Header-only files are dropped. Table order follows completion,
// not the input order. If any file fails, all workers still finish and the
// failures are returned together as a *domain.FetchError.
func Download(ctx context.Context, f Fetcher, baseURL string, files []string, schema domain.Schema, limit int, logger *slog.Logger, metrics *observability.Metrics) ([]domain.Table, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if limit < 1 {
		limit = DefaultMaxConcurrent
	}
	workers := min(limit, len(files))

	var (
		mu     sync.Mutex
		tables = make([]domain.Table, 0, len(files))
		failed []string
		errs   *multierror.Error
		wg     sync.WaitGroup
	)
	names := make(chan string)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range names {
				tbl, err := fetchOne(ctx, f, base, name, schema, metrics)

				mu.Lock()
				switch {
				case err != nil:
					failed = append(failed, name)
					errs = multierror.Append(errs, &domain.FileError{File: name, Err: err})
				case tbl.Len() == 0:
					logger.Debug("skipping empty file", "file", name)
				default:
					tables = append(tables, tbl)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, name := range files {
		select {
		case names <- name:
		case <-ctx.Done():
			break feed
		}
	}
	close(names)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if errs != nil {
		sort.Strings(failed)
		return nil, &domain.FetchError{Files: failed, Err: errs.ErrorOrNil()}
	}
	return tables, nil
}

func fetchOne(ctx context.Context, f Fetcher, base *url.URL, name string, schema domain.Schema, metrics *observability.Metrics) (domain.Table, error) {
	ref, err := url.Parse(name)
	if err != nil {
		metrics.FetchErrors.Inc()
		return domain.Table{}, fmt.Errorf("parse file url: %w", err)
	}

	start := clock.Now()
	tbl, err := f.Fetch(ctx, base.ResolveReference(ref).String(), schema)
	metrics.DownloadDuration.Observe(clock.Since(start).Seconds())
	if err != nil {
		metrics.FetchErrors.Inc()
		return domain.Table{}, err
	}
	metrics.FilesDownloaded.Inc()
	tbl.Source = name
	return tbl, nil
}
