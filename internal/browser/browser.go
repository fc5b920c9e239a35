// Package browser is the narrow headless-browser surface the scrapers drive.
//
// Scraping code only sees Page and Element, so tests run against
// browsertest snapshots and production runs against playwright.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("element not found")
	ErrTimeout  = errors.New("browser wait timed out")
)

// Box is an element's bounding box in page coordinates.
type Box struct {
	X, Y, Width, Height float64
}

func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

type Element interface {
	Text() (string, error)
	InnerHTML() (string, error)
	// Attr returns "" when the attribute is absent.
	Attr(name string) (string, error)
	Visible() (bool, error)
	Click() error
	Box() (Box, error)

	// Query returns ErrNotFound when nothing matches.
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
	// Closest walks up from the element itself, like DOM closest().
	Closest(selector string) (Element, error)
}

type Page interface {
	Goto(ctx context.Context, url string) error
	URL() string
	Content() (string, error)

	// WaitVisible blocks until selector is visible or returns ErrTimeout.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// ClickAndWait arms the navigation wait, runs click and blocks until the
	// navigation it started has loaded. A click that never navigates ends in
	// ErrTimeout.
	ClickAndWait(ctx context.Context, timeout time.Duration, click func() error) error

	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)

	Select(selector, value string) error
	Click(selector string) error
	ClickAt(x, y float64) error
	Press(key string) error

	Close() error
}

// Missing reports whether err means "no such element".
func Missing(err error) bool { return errors.Is(err, ErrNotFound) }

// TextOf returns the element's text, or "" on any failure.
func TextOf(el Element) string {
	if el == nil {
		return ""
	}
	s, err := el.Text()
	if err != nil {
		return ""
	}
	return s
}

// AttrOf returns the attribute value, or "" on any failure.
func AttrOf(el Element, name string) string {
	if el == nil {
		return ""
	}
	s, err := el.Attr(name)
	if err != nil {
		return ""
	}
	return s
}

// Exists reports whether selector matches anything on the page.
func Exists(p Page, selector string) bool {
	_, err := p.Query(selector)
	return err == nil
}
