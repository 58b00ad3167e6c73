// Package engine is the reference implementation of the scraping backend contract:
// it fetches the target page and extracts one record per root-selector match.
package engine

import (
	"context"
	"errors"
	"net"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/scrapejob/internal/engine/extract"
	"github.com/law-makers/scrapejob/internal/engine/static"
	"github.com/law-makers/scrapejob/internal/retry"
	urlutil "github.com/law-makers/scrapejob/internal/utils/url"
	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/rs/zerolog/log"
)

// Fetcher retrieves and parses a page
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (*models.PageData, *goquery.Document, error)
	Name() string
}

// Extractor answers a job request with the extracted records
type Extractor interface {
	Extract(ctx context.Context, req models.BackendRequest) (*models.ExtractResult, error)
}

// Engine combines a Fetcher with selector-based record extraction
type Engine struct {
	fetcher Fetcher
}

// New creates an Engine over the given fetcher
func New(fetcher Fetcher) *Engine {
	return &Engine{fetcher: fetcher}
}

// Extract validates req, fetches req.URL and extracts its records.
// Failures are *EngineError values carrying a code.
func (e *Engine) Extract(ctx context.Context, req models.BackendRequest) (*models.ExtractResult, error) {
	if err := urlutil.ValidateURL(req.URL); err != nil {
		return nil, NewEngineError(ErrCodeValidation, "invalid target URL", errors.Join(ErrInvalidURL, err)).
			WithDetail("url", req.URL)
	}

	rules := extract.RulesFrom(req.NameSelector)
	if err := extract.Validate(req.Selector, rules); err != nil {
		return nil, NewEngineError(ErrCodeValidation, "invalid selector", errors.Join(ErrInvalidSelector, err))
	}

	page, doc, err := e.fetcher.Fetch(ctx, req.URL, nil)
	if err != nil {
		return nil, classifyFetchError(req.URL, err)
	}

	items := extract.Records(doc, req.Selector, rules)

	log.Debug().
		Str("url", req.URL).
		Str("fetcher", e.fetcher.Name()).
		Str("title", page.Title).
		Int("records", len(items)).
		Int("fields", len(rules)).
		Msg("Extraction completed")

	return &models.ExtractResult{
		URL:   page.URL,
		Count: len(items),
		Items: items,
	}, nil
}

func classifyFetchError(url string, err error) *EngineError {
	var sc retry.StatusCoder
	switch {
	case errors.Is(err, static.ErrDecode):
		return NewEngineError(ErrCodeParseError, "target page could not be parsed", errors.Join(ErrParseError, err)).
			WithDetail("url", url)
	case errors.As(err, &sc):
		return NewEngineError(ErrCodeUpstream, "target page returned an error status", errors.Join(ErrUpstream, err)).
			WithDetail("url", url).
			WithDetail("status", sc.GetStatusCode())
	case isTimeout(err):
		return NewEngineError(ErrCodeTimeout, "target page timed out", errors.Join(ErrUpstream, err)).
			WithDetail("url", url).
			WithRetry()
	default:
		return NewEngineError(ErrCodeNetworkError, "target page could not be fetched", errors.Join(ErrUpstream, err)).
			WithDetail("url", url).
			WithRetry()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
