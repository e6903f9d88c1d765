package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Static loads pages with plain HTTP GET requests. It sees only the
// server-rendered document, so script-driven widgets are not applied.
type Static struct {
	client    *http.Client
	userAgent string
	url       string
	document  string
}

// NewStatic creates a Static driver.
func NewStatic(opts Options) *Static {
	opts = opts.withDefaults()
	return &Static{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		userAgent: opts.UserAgent,
	}
}

func (s *Static) Navigate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status code: %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading page: %w", err)
	}

	s.url = url
	s.document = string(body)
	return nil
}

func (s *Static) HTML(ctx context.Context) (string, error) {
	if s.url == "" {
		return "", ErrNoPage
	}
	return s.document, nil
}

func (s *Static) OuterHTML(ctx context.Context, selector string) (string, error) {
	if s.url == "" {
		return "", ErrNoPage
	}
	return OuterHTMLOf(s.document, selector)
}

func (s *Static) Click(ctx context.Context, selector string) error {
	return ErrNotInteractive
}

func (s *Static) SelectOption(ctx context.Context, selector, text string) error {
	return ErrNotInteractive
}

func (s *Static) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// OuterHTMLOf returns the outer HTML of the first element of document that
// matches selector.
func OuterHTMLOf(document, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%s: %w", selector, ErrNoMatch)
	}
	return goquery.OuterHtml(sel)
}
