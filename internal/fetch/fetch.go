package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly"
)

// Page is a fetched document and the URL it was finally served from.
type Page struct {
	URL    string
	Status int
	Body   []byte
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// CollyFetcher performs a single GET per call. There are no retries.
type CollyFetcher struct {
	userAgent string
	timeout   time.Duration
}

func NewCollyFetcher(userAgent string, timeout time.Duration) *CollyFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CollyFetcher{userAgent: userAgent, timeout: timeout}
}

func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	opts := []func(*colly.Collector){colly.AllowURLRevisit()}
	if f.userAgent != "" {
		opts = append(opts, colly.UserAgent(f.userAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(f.timeout)

	var page Page
	c.OnResponse(func(r *colly.Response) {
		page = Page{
			URL:    r.Request.URL.String(),
			Status: r.StatusCode,
			Body:   r.Body,
		}
	})

	if err := c.Visit(rawURL); err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	if page.Body == nil {
		return Page{}, fmt.Errorf("fetching %s: empty response", rawURL)
	}
	return page, nil
}
