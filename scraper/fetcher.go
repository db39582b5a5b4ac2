package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/config"
	"github.com/gocolly/colly/v2"
)

const (
	ctxStart  = "start"
	ctxStatus = "status"
	ctxBody   = "body"
)

// Fetcher retrieves the raw markup for one URL. Any failure is reported as
// an error matching ErrFetchFailed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CollyFetcher issues single GET requests through a synchronous colly
// collector.
type CollyFetcher struct {
	collector *colly.Collector
	headers   http.Header
	metrics   *Metrics
}

// NewCollyFetcher builds a fetcher using the user agent, timeout and robots
// policy from cfg.
func NewCollyFetcher(cfg *config.Config, metrics *Metrics) *CollyFetcher {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	headers := http.Header{}
	headers.Set("User-Agent", cfg.UserAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.5")

	f := &CollyFetcher{
		collector: collector,
		headers:   headers,
		metrics:   metrics,
	}
	f.configureHandlers()
	return f
}

// WithTransport swaps the HTTP transport, mainly for tests.
func (f *CollyFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

func (f *CollyFetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put(ctxStart, time.Now())
	})

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxStatus, r.StatusCode)
		r.Ctx.Put(ctxBody, r.Body)
		if start, ok := r.Ctx.GetAny(ctxStart).(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
	})
}

// Fetch performs one GET for url. Transport errors, timeouts and non-2xx
// statuses all come back as a *FetchError.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	reqCtx := colly.NewContext()
	err := f.collector.Request(http.MethodGet, url, nil, reqCtx, f.headers.Clone())

	status, _ := reqCtx.GetAny(ctxStatus).(int)
	if err == nil && (status < http.StatusOK || status >= http.StatusMultipleChoices) {
		err = fmt.Errorf("http status %d", status)
	}
	if err != nil {
		return "", &FetchError{URL: url, Err: classifyError(err, status)}
	}

	body, _ := reqCtx.GetAny(ctxBody).([]byte)
	return string(body), nil
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 && (statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices) {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		default:
			return ErrStatus{StatusCode: statusCode, Err: wrapped}
		}
	}

	return err
}
