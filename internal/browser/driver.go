package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultUserAgent = "force-scraper/1.0 (github.com/pfrederiksen/force-scraper)"
	DefaultTimeout   = 60 * time.Second
)

var (
	// ErrNotInteractive is returned by drivers that cannot click or select.
	ErrNotInteractive = errors.New("driver does not support page interaction")
	// ErrNoMatch is returned when a selector matches no element.
	ErrNoMatch = errors.New("selector matched no element")
	// ErrNoPage is returned when the driver has not loaded a page yet.
	ErrNoPage = errors.New("no page loaded")
)

// Driver is a browser tab the scrapers navigate and read.
type Driver interface {
	// Navigate loads url and waits until the document is ready.
	Navigate(ctx context.Context, url string) error
	// HTML returns the outer HTML of the current document.
	HTML(ctx context.Context) (string, error)
	// OuterHTML returns the outer HTML of the first element matching selector.
	OuterHTML(ctx context.Context, selector string) (string, error)
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// SelectOption chooses the option whose visible text is text in the
	// select element matching selector and fires its change event.
	SelectOption(ctx context.Context, selector, text string) error
	Close() error
}

// Kind names a Driver implementation.
type Kind string

const (
	KindChrome Kind = "chrome"
	KindStatic Kind = "static"
)

// ParseKind validates a driver name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindChrome, KindStatic:
		return k, nil
	default:
		return "", fmt.Errorf("invalid driver: %s (must be 'chrome' or 'static')", s)
	}
}

// Options configures Open.
type Options struct {
	Kind      Kind
	Headless  bool
	ExecPath  string
	UserAgent string
	Timeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Open starts the driver described by opts.
func Open(ctx context.Context, opts Options) (Driver, error) {
	opts = opts.withDefaults()
	switch opts.Kind {
	case KindChrome:
		return NewChrome(ctx, opts)
	case KindStatic, "":
		return NewStatic(opts), nil
	default:
		return nil, fmt.Errorf("unknown driver kind: %s", opts.Kind)
	}
}
