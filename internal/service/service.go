// Package service runs the fetch, parse and extract pipeline behind the API.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rafaelordanini/ANP-GRU/internal/cache"
	"github.com/rafaelordanini/ANP-GRU/internal/config"
	collyfetcher "github.com/rafaelordanini/ANP-GRU/internal/fetcher/colly"
	"github.com/rafaelordanini/ANP-GRU/internal/survey"
	"github.com/rafaelordanini/ANP-GRU/internal/telemetry"
)

// Cache keys for the two payload kinds.
const (
	keyLatest  = "latest"
	keySummary = "summary"
)

// Fetcher downloads one document.
type Fetcher interface {
	Fetch(ctx context.Context, request collyfetcher.Request) (collyfetcher.Response, error)
}

// Clock supplies the time used for updatedAt stamps and cache expiry.
type Clock interface {
	Now() time.Time
}

// Digester fingerprints downloaded report bytes for log correlation.
type Digester interface {
	Hash(data []byte) string
}

// Options tweak a single pipeline run.
type Options struct {
	// ForceRefresh bypasses the in-process result cache.
	ForceRefresh bool
}

// Service orchestrates the weekly price pipeline: resolve the report
// location, download the workbook, reduce it to a payload, cache the result.
type Service struct {
	cfg     config.Config
	fetcher Fetcher
	clock   Clock
	digest  Digester
	logger  *zap.Logger

	results   *cache.Store[survey.Payload]
	summaries *cache.Store[survey.SummaryPayload]
}

// New wires a Service. Result caching follows the config; a nil digester
// just drops the fingerprint log field.
func New(cfg config.Config, fetcher Fetcher, clock Clock, digest Digester, logger *zap.Logger) (*Service, error) {
	s := &Service{
		cfg:     cfg,
		fetcher: fetcher,
		clock:   clock,
		digest:  digest,
		logger:  logger,
	}
	if cfg.Cache.Results {
		policy := cache.Policy{
			RefreshHour: cfg.Cache.RefreshHour,
			Location:    cfg.RefreshLocation(),
			Min:         time.Duration(cfg.Cache.MinSeconds) * time.Second,
			Max:         time.Duration(cfg.Cache.MaxSeconds) * time.Second,
		}
		results, err := cache.NewStore[survey.Payload](cfg.Cache.Size, policy)
		if err != nil {
			return nil, fmt.Errorf("build result cache: %w", err)
		}
		summaries, err := cache.NewStore[survey.SummaryPayload](cfg.Cache.Size, policy)
		if err != nil {
			return nil, fmt.Errorf("build summary cache: %w", err)
		}
		s.results = results
		s.summaries = summaries
	}
	return s, nil
}

// Latest returns the freshest price payload for the configured municipality.
func (s *Service) Latest(ctx context.Context, opts Options) (survey.Payload, error) {
	if s.results != nil && !opts.ForceRefresh {
		if payload, ok := s.results.Get(keyLatest, s.clock.Now()); ok {
			telemetry.ObserveCacheEvent("hit")
			return payload, nil
		}
		telemetry.ObserveCacheEvent("miss")
	} else if opts.ForceRefresh {
		telemetry.ObserveCacheEvent("bypass")
	}

	rows, sourceURL, err := s.loadReport(ctx)
	if err != nil {
		return survey.Payload{}, err
	}

	extraction, err := survey.LatestPrices(rows, s.cfg.Report.Municipality)
	if err != nil {
		telemetry.ObserveExtraction(extractionOutcome(err))
		return survey.Payload{}, err
	}
	telemetry.ObserveExtraction("success")

	for _, product := range extraction.DuplicateProducts {
		s.logger.Warn("duplicate product row in latest window",
			zap.String("product", product),
			zap.String("municipality", s.cfg.Report.Municipality),
		)
	}

	payload := survey.Payload{
		Success:     true,
		Data:        extraction.Prices,
		PeriodStart: extraction.PeriodStart.Format(survey.DateLayout),
		PeriodEnd:   extraction.PeriodEnd.Format(survey.DateLayout),
		SourceURL:   sourceURL,
		UpdatedAt:   s.clock.Now().UTC().Format(time.RFC3339),
	}
	if s.results != nil {
		s.results.Put(keyLatest, payload, s.clock.Now())
	}
	return payload, nil
}

// Summary aggregates the latest window across every surveyed municipality.
func (s *Service) Summary(ctx context.Context, opts Options) (survey.SummaryPayload, error) {
	if s.summaries != nil && !opts.ForceRefresh {
		if payload, ok := s.summaries.Get(keySummary, s.clock.Now()); ok {
			telemetry.ObserveCacheEvent("hit")
			return payload, nil
		}
		telemetry.ObserveCacheEvent("miss")
	} else if opts.ForceRefresh {
		telemetry.ObserveCacheEvent("bypass")
	}

	rows, sourceURL, err := s.loadReport(ctx)
	if err != nil {
		return survey.SummaryPayload{}, err
	}

	extraction, err := survey.LatestSummary(rows)
	if err != nil {
		telemetry.ObserveExtraction(extractionOutcome(err))
		return survey.SummaryPayload{}, err
	}
	telemetry.ObserveExtraction("success")

	payload := survey.SummaryPayload{
		Success:     true,
		Data:        extraction.Fuels,
		PeriodStart: extraction.PeriodStart.Format(survey.DateLayout),
		PeriodEnd:   extraction.PeriodEnd.Format(survey.DateLayout),
		SourceURL:   sourceURL,
		UpdatedAt:   s.clock.Now().UTC().Format(time.RFC3339),
	}
	if s.summaries != nil {
		s.summaries.Put(keySummary, payload, s.clock.Now())
	}
	return payload, nil
}

// loadReport resolves the workbook location and downloads and parses it.
func (s *Service) loadReport(ctx context.Context) ([]survey.Row, string, error) {
	sourceURL := s.cfg.Upstream.FileURL
	if s.cfg.Upstream.Discover {
		discovered, err := s.discoverReportURL(ctx)
		if err != nil {
			return nil, "", err
		}
		sourceURL = discovered
	}

	resp, err := s.fetcher.Fetch(ctx, collyfetcher.Request{
		URL:     sourceURL,
		Timeout: s.cfg.FileTimeout(),
	})
	if err != nil {
		telemetry.ObserveUpstreamRequest("report", "error", 0, 0)
		return nil, "", fmt.Errorf("download report: %w", err)
	}
	telemetry.ObserveUpstreamRequest("report", "ok", resp.Duration, len(resp.Body))

	fields := []zap.Field{
		zap.String("url", sourceURL),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("duration", resp.Duration),
	}
	if s.digest != nil {
		fields = append(fields, zap.String("sha256", s.digest.Hash(resp.Body)))
	}
	s.logger.Info("report downloaded", fields...)

	rows, err := survey.ParseReport(resp.Body, s.cfg.Report.HeaderRow)
	if err != nil {
		telemetry.ObserveExtraction("parse_error")
		return nil, "", fmt.Errorf("parse report: %w", err)
	}
	return rows, sourceURL, nil
}

// discoverReportURL scans the publication index page for the newest weekly
// file.
func (s *Service) discoverReportURL(ctx context.Context) (string, error) {
	resp, err := s.fetcher.Fetch(ctx, collyfetcher.Request{
		URL:     s.cfg.Upstream.PageURL,
		Timeout: s.cfg.PageTimeout(),
	})
	if err != nil {
		telemetry.ObserveUpstreamRequest("page", "error", 0, 0)
		return "", fmt.Errorf("download index page: %w", err)
	}
	telemetry.ObserveUpstreamRequest("page", "ok", resp.Duration, len(resp.Body))

	links := survey.FindReportLinks(string(resp.Body))
	link, err := survey.SelectLatestReport(links)
	if err != nil {
		return "", err
	}
	resolved := survey.ResolveReportURL(link.Path, s.cfg.Upstream.PageURL, s.cfg.Upstream.FileBaseURL)

	s.logger.Debug("report link discovered",
		zap.String("path", link.Path),
		zap.Int("start_year", link.StartYear),
		zap.Int("end_year", link.EndYear),
		zap.String("url", resolved),
	)
	return resolved, nil
}

func extractionOutcome(err error) string {
	if errors.Is(err, survey.ErrNoData) {
		return "no_data"
	}
	return "error"
}
