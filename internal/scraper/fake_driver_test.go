package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pfrederiksen/force-scraper/internal/browser"
)

// fakeDriver serves canned documents keyed by URL. A URL may have several
// states; clicking the incidents "next" control advances to the next one.
type fakeDriver struct {
	pages       map[string][]string
	fail        map[string]bool
	interactive bool

	current     string
	state       int
	navigations []string
	selected    []string
	clicks      int
}

func newFakeDriver(interactive bool) *fakeDriver {
	return &fakeDriver{
		pages:       make(map[string][]string),
		fail:        make(map[string]bool),
		interactive: interactive,
	}
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.navigations = append(f.navigations, url)
	if f.fail[url] {
		return fmt.Errorf("navigating to %s: net::ERR_CONNECTION_RESET", url)
	}
	if _, ok := f.pages[url]; !ok {
		return fmt.Errorf("navigating to %s: 404", url)
	}
	f.current = url
	f.state = 0
	return nil
}

func (f *fakeDriver) HTML(ctx context.Context) (string, error) {
	if f.current == "" {
		return "", browser.ErrNoPage
	}
	return f.pages[f.current][f.state], nil
}

func (f *fakeDriver) OuterHTML(ctx context.Context, selector string) (string, error) {
	html, err := f.HTML(ctx)
	if err != nil {
		return "", err
	}
	return browser.OuterHTMLOf(html, selector)
}

func (f *fakeDriver) Click(ctx context.Context, selector string) error {
	if !f.interactive {
		return browser.ErrNotInteractive
	}
	if selector != incidentsNext {
		return fmt.Errorf("%s: %w", selector, browser.ErrNoMatch)
	}
	f.clicks++
	if f.state < len(f.pages[f.current])-1 {
		f.state++
	}
	return nil
}

func (f *fakeDriver) SelectOption(ctx context.Context, selector, text string) error {
	if !f.interactive {
		return browser.ErrNotInteractive
	}
	if _, err := f.OuterHTML(ctx, selector); err != nil {
		return err
	}
	f.selected = append(f.selected, text)
	return nil
}

func (f *fakeDriver) Close() error {
	return nil
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", name))
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}
