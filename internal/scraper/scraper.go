package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/force-scraper/internal/browser"
	"github.com/pfrederiksen/force-scraper/internal/department"
	"github.com/pfrederiksen/force-scraper/internal/logger"
)

const (
	DefaultBaseURL = "http://force.nj.com"
	// DefaultSettle is how long to wait after loading the listing and the
	// first department page, which are slow to render.
	DefaultSettle = 2 * time.Second

	listingSelector = "#mylist option"
)

// Options configures a Scraper.
type Options struct {
	BaseURL string
	Settle  time.Duration
	// Delay is the minimum interval between page navigations. Zero disables
	// pacing.
	Delay time.Duration
}

// Scraper walks the force.nj.com pages with a single driver.
type Scraper struct {
	driver  browser.Driver
	baseURL string
	settle  time.Duration
	limiter *rate.Limiter
}

// New creates a Scraper that drives d.
func New(d browser.Driver, opts Options) *Scraper {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	return &Scraper{
		driver:  d,
		baseURL: baseURL,
		settle:  opts.Settle,
		limiter: limiter,
	}
}

// BaseURL returns the site root the scraper resolves department links against.
func (s *Scraper) BaseURL() string {
	return s.baseURL
}

// FullURL resolves a department's relative URL against the base URL.
func (s *Scraper) FullURL(relativeURL string) string {
	return s.baseURL + relativeURL
}

func (s *Scraper) visit(ctx context.Context, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.driver.Navigate(ctx, url)
}

func (s *Scraper) wait(ctx context.Context) error {
	if s.settle <= 0 {
		return nil
	}
	t := time.NewTimer(s.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// document parses a snapshot of the current page.
func (s *Scraper) document(ctx context.Context) (*goquery.Document, error) {
	html, err := s.driver.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// ListDepartments loads the listing page and returns its departments in
// dropdown order.
func (s *Scraper) ListDepartments(ctx context.Context) ([]department.Department, error) {
	logger.Info("Loading department listing", logger.Fields{"url": s.baseURL})

	if err := s.visit(ctx, s.baseURL); err != nil {
		return nil, fmt.Errorf("loading listing: %w", err)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	html, err := s.driver.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}

	depts, err := parseDepartments(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return nil, fmt.Errorf("no departments found in %s", listingSelector)
	}

	logger.Info("Found departments", logger.Fields{"count": len(depts)})
	return depts, nil
}

// parseDepartments reads the options of the listing dropdown.
func parseDepartments(r io.Reader) ([]department.Department, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	depts := make([]department.Department, 0)
	doc.Find(listingSelector).Each(func(i int, opt *goquery.Selection) {
		name, err := innerHTML(opt)
		if err != nil {
			return
		}
		value, _ := opt.Attr("value")
		depts = append(depts, department.Department{
			Name:        strings.TrimSpace(name),
			RelativeURL: value,
		})
	})

	return depts, nil
}

// Filter returns the departments whose name contains match
// (case-insensitive), truncated to limit entries when limit > 0.
func Filter(depts []department.Department, match string, limit int) []department.Department {
	match = strings.ToLower(strings.TrimSpace(match))

	filtered := make([]department.Department, 0, len(depts))
	for _, d := range depts {
		if match != "" && !strings.Contains(strings.ToLower(d.Name), match) {
			continue
		}
		filtered = append(filtered, d)
		if limit > 0 && len(filtered) == limit {
			break
		}
	}
	return filtered
}

// warmUp renders the first department page once, which can be slow on a
// cold session.
func (s *Scraper) warmUp(ctx context.Context, depts []department.Department) error {
	if len(depts) == 0 {
		return nil
	}
	if err := s.visit(ctx, s.FullURL(depts[0].RelativeURL)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Warm-up navigation failed", logger.Fields{"department": depts[0].Name, "error": err.Error()})
		return nil
	}
	return s.wait(ctx)
}
