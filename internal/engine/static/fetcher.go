// internal/engine/static/fetcher.go
package static

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/scrapejob/internal/cache"
	"github.com/law-makers/scrapejob/internal/engine/extract"
	"github.com/law-makers/scrapejob/internal/proxy"
	"github.com/law-makers/scrapejob/internal/ratelimit"
	"github.com/law-makers/scrapejob/internal/retry"
	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// MaxBodyBytes caps how much of a page is read
const MaxBodyBytes = 10 << 20

// ErrDecode is returned when a page body cannot be decoded or parsed as HTML
var ErrDecode = errors.New("failed to decode page")

// Option configures a Fetcher
type Option func(*Fetcher)

// WithRetry sets the retry policy for upstream fetches
func WithRetry(cfg retry.Config) Option {
	return func(f *Fetcher) {
		f.retry = cfg
	}
}

// WithCacheTTL sets how long fetched pages stay cached
func WithCacheTTL(ttl time.Duration) Option {
	return func(f *Fetcher) {
		f.cacheTTL = ttl
	}
}

// WithProxies routes fetches through the pool, one proxy per attempt
func WithProxies(pool *proxy.ProxyPool) Option {
	return func(f *Fetcher) {
		f.proxies = pool
	}
}

// Fetcher downloads static HTML pages and parses them with goquery.
// Pages are decoded to UTF-8 from whatever charset they declare.
type Fetcher struct {
	cache     cache.Cache
	limiter   ratelimit.RateLimiter
	client    *http.Client
	userAgent string
	retry     retry.Config
	cacheTTL  time.Duration
	proxies   *proxy.ProxyPool

	clientsMu sync.Mutex
	clients   map[string]*http.Client
}

// New creates a Fetcher. A nil cache or limiter disables caching or throttling.
func New(c cache.Cache, lim ratelimit.RateLimiter, client *http.Client, ua string, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if ua == "" {
		ua = "scrapejob/1.0"
	}
	f := &Fetcher{
		cache:     c,
		limiter:   lim,
		client:    client,
		userAgent: ua,
		retry:     retry.DefaultConfig(),
		clients:   make(map[string]*http.Client),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the name of this fetcher
func (f *Fetcher) Name() string {
	return "StaticFetcher"
}

// Fetch returns the page at url and its parsed document, using the cache when possible
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) (*models.PageData, *goquery.Document, error) {
	key := cache.KeyFor(url, headers)
	if f.cache != nil {
		if page, ok := f.cache.Get(key); ok {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
			if err == nil {
				return page, doc, nil
			}
			f.cache.Delete(key)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, url); err != nil {
			return nil, nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var page *models.PageData
	err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
		p, err := f.fetchOnce(ctx, url, headers)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	page.Title = extract.Title(doc)

	if f.cache != nil {
		if err := f.cache.Set(key, page, f.cacheTTL); err != nil {
			log.Debug().Err(err).Str("url", url).Msg("Page not cached")
		}
	}

	return page, doc, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, headers map[string]string) (*models.PageData, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	client, proxyURL := f.clientForAttempt()
	log.Debug().
		Str("url", url).
		Str("fetcher", f.Name()).
		Bool("proxied", proxyURL != nil).
		Msg("Starting fetch")

	resp, err := client.Do(req)
	if err != nil {
		f.markProxy(proxyURL, false)
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()
	f.markProxy(proxyURL, true)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, retry.NewHTTPError(resp.StatusCode, resp.Status, url)
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	page := &models.PageData{
		URL:          url,
		StatusCode:   resp.StatusCode,
		HTML:         body,
		Headers:      make(map[string]string),
		FetchedAt:    time.Now(),
		ResponseTime: time.Since(start).Milliseconds(),
	}
	for key, values := range resp.Header {
		if len(values) > 0 {
			page.Headers[key] = values[0]
		}
	}

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", page.ResponseTime).
		Int("bytes", len(body)).
		Msg("Fetch completed")

	return page, nil
}

// decodeBody reads at most MaxBodyBytes and converts them to UTF-8
func decodeBody(r io.Reader, contentType string) (string, error) {
	br := bufio.NewReader(io.LimitReader(r, MaxBodyBytes))

	// Peek reports io.EOF for short bodies; the peeked bytes are still usable
	head, _ := br.Peek(1024)
	enc, name, _ := charset.DetermineEncoding(head, contentType)

	data, err := io.ReadAll(transform.NewReader(br, enc.NewDecoder()))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("%w from %s: %v", ErrDecode, name, err))
	}
	return string(data), nil
}

// clientForAttempt returns the client to use and the proxy it goes through, if any
func (f *Fetcher) clientForAttempt() (*http.Client, *neturl.URL) {
	if f.proxies == nil || f.proxies.Size() == 0 {
		return f.client, nil
	}
	u := f.proxies.GetNext()
	key := u.String()

	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	if c, ok := f.clients[key]; ok {
		return c, u
	}
	c := &http.Client{
		Timeout: f.client.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyURL(u),
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	f.clients[key] = c
	return c, u
}

func (f *Fetcher) markProxy(u *neturl.URL, healthy bool) {
	if u == nil {
		return
	}
	if healthy {
		f.proxies.MarkHealthy(u)
		return
	}
	log.Warn().Str("proxy", u.Host).Msg("Proxy failed, cooling down")
	f.proxies.MarkFailed(u)
}

// CloseIdleConnections releases pooled connections of every client
func (f *Fetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()
	for _, c := range f.clients {
		c.CloseIdleConnections()
	}
}
