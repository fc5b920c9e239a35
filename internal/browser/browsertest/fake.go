// Package browsertest is an in-memory browser.Page backed by goquery
// snapshots. Pages are plain HTML strings; clicks and selects can be hooked
// to swap the document, which is how tests model navigation.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"courtparser-engine/internal/browser"
)

// Hook runs when an element matching its selector is clicked or selected.
type Hook func(p *Page, value string) error

type hook struct {
	selector string
	fn       Hook
}

type Page struct {
	mu sync.Mutex

	// Routes maps URL -> HTML for Goto.
	Routes map[string]string
	// GotoErr makes Goto fail for the given URL.
	GotoErr map[string]error

	url     string
	doc     *goquery.Document
	hooks   []hook
	log     []string
	waits   map[string]int
	navs    int
	pending string
	closed  bool

	// OnWait is called before every WaitVisible with the selector and how many
	// times it has been waited for so far. Tests use it to make content appear
	// late.
	OnWait func(p *Page, selector string, n int)
}

// New returns a page showing html at url.
func New(url, html string) *Page {
	p := &Page{Routes: map[string]string{}, GotoErr: map[string]error{}, waits: map[string]int{}}
	p.Load(url, html)
	return p
}

// Load replaces the current document.
func (p *Page) Load(url, html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(fmt.Sprintf("browsertest: bad html: %v", err))
	}
	p.url, p.doc = url, doc
	p.navs++
}

// On registers a hook for clicks/selects on elements matching selector.
func (p *Page) On(selector string, fn Hook) {
	p.hooks = append(p.hooks, hook{selector: selector, fn: fn})
}

// Navigate returns a hook that loads the route for url.
func Navigate(url string) Hook {
	return func(p *Page, _ string) error {
		html, ok := p.Routes[url]
		if !ok {
			return fmt.Errorf("browsertest: no route %s", url)
		}
		p.Load(url, html)
		return nil
	}
}

// NavigateLater returns a hook that starts a navigation to url without
// committing it. The old document stays in place until someone waits for the
// navigation (ClickAndWait), like a slow server response.
func NavigateLater(url string) Hook {
	return func(p *Page, _ string) error {
		if _, ok := p.Routes[url]; !ok {
			return fmt.Errorf("browsertest: no route %s", url)
		}
		p.pending = url
		return nil
	}
}

// Actions returns what the page was asked to do, e.g. "click #search",
// "select #case_type=gr_first", "press Escape", "goto https://...".
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.log...)
}

// Did reports whether an action with the given prefix was recorded.
func (p *Page) Did(prefix string) bool {
	for _, a := range p.Actions() {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}

func (p *Page) record(format string, args ...any) {
	p.mu.Lock()
	p.log = append(p.log, fmt.Sprintf(format, args...))
	p.mu.Unlock()
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("goto %s", url)
	if err := p.GotoErr[url]; err != nil {
		return err
	}
	html, ok := p.Routes[url]
	if !ok {
		return fmt.Errorf("browsertest: no route %s", url)
	}
	p.Load(url, html)
	return nil
}

func (p *Page) URL() string { return p.url }

func (p *Page) Content() (string, error) {
	return goquery.OuterHtml(p.doc.Selection)
}

func (p *Page) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.waits[selector]++
	if p.OnWait != nil {
		p.OnWait(p, selector, p.waits[selector])
	}
	s := p.doc.Find(selector)
	for i := range s.Nodes {
		if visible(s.Eq(i)) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", selector, browser.ErrTimeout)
}

func (p *Page) ClickAndWait(ctx context.Context, _ time.Duration, click func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	before := p.navs
	if err := click(); err != nil {
		return err
	}
	if p.pending != "" {
		url := p.pending
		p.pending = ""
		p.Load(url, p.Routes[url])
	}
	if p.navs == before {
		return fmt.Errorf("no navigation: %w", browser.ErrTimeout)
	}
	return nil
}

func (p *Page) Query(selector string) (browser.Element, error) {
	s := p.doc.Find(selector).First()
	if s.Length() == 0 {
		return nil, browser.ErrNotFound
	}
	return &Element{p: p, s: s}, nil
}

func (p *Page) QueryAll(selector string) ([]browser.Element, error) {
	return wrapAll(p, p.doc.Find(selector)), nil
}

func (p *Page) Select(selector, value string) error {
	s := p.doc.Find(selector).First()
	if s.Length() == 0 {
		return fmt.Errorf("select %s: %w", selector, browser.ErrNotFound)
	}
	p.record("select %s=%s", selector, value)
	return p.fire(s, value)
}

func (p *Page) Click(selector string) error {
	s := p.doc.Find(selector).First()
	if s.Length() == 0 {
		return fmt.Errorf("click %s: %w", selector, browser.ErrNotFound)
	}
	p.record("click %s", selector)
	return p.fire(s, "")
}

func (p *Page) ClickAt(x, y float64) error {
	p.record("mouse %.0f,%.0f", x, y)
	return nil
}

func (p *Page) Press(key string) error {
	p.record("press %s", key)
	return nil
}

func (p *Page) Close() error {
	p.closed = true
	return nil
}

func (p *Page) Closed() bool { return p.closed }

func (p *Page) fire(s *goquery.Selection, value string) error {
	for _, h := range p.hooks {
		if s.Is(h.selector) {
			return h.fn(p, value)
		}
	}
	return nil
}

// Element wraps a single goquery node.
type Element struct {
	p *Page
	s *goquery.Selection
}

func (e *Element) Text() (string, error) { return e.s.Text(), nil }

func (e *Element) InnerHTML() (string, error) { return e.s.Html() }

func (e *Element) Attr(name string) (string, error) {
	v, _ := e.s.Attr(name)
	return v, nil
}

func (e *Element) Visible() (bool, error) { return visible(e.s), nil }

func (e *Element) Click() error {
	e.p.record("click-el %s", describe(e.s))
	return e.p.fire(e.s, "")
}

// Box uses data-x/-y/-w/-h attributes when present, otherwise a 10x10 box.
func (e *Element) Box() (browser.Box, error) {
	if !visible(e.s) {
		return browser.Box{}, fmt.Errorf("hidden element: %w", browser.ErrNotFound)
	}
	b := browser.Box{Width: 10, Height: 10}
	fmt.Sscan(e.s.AttrOr("data-x", "0"), &b.X)
	fmt.Sscan(e.s.AttrOr("data-y", "0"), &b.Y)
	fmt.Sscan(e.s.AttrOr("data-w", "10"), &b.Width)
	fmt.Sscan(e.s.AttrOr("data-h", "10"), &b.Height)
	return b, nil
}

func (e *Element) Query(selector string) (browser.Element, error) {
	s := e.s.Find(selector).First()
	if s.Length() == 0 {
		return nil, browser.ErrNotFound
	}
	return &Element{p: e.p, s: s}, nil
}

func (e *Element) QueryAll(selector string) ([]browser.Element, error) {
	return wrapAll(e.p, e.s.Find(selector)), nil
}

func (e *Element) Closest(selector string) (browser.Element, error) {
	s := e.s.Closest(selector)
	if s.Length() == 0 {
		return nil, browser.ErrNotFound
	}
	return &Element{p: e.p, s: s}, nil
}

func wrapAll(p *Page, s *goquery.Selection) []browser.Element {
	out := make([]browser.Element, 0, s.Length())
	s.Each(func(_ int, one *goquery.Selection) {
		out = append(out, &Element{p: p, s: one})
	})
	return out
}

// hidden attribute, display:none or the bootstrap "hidden" class anywhere up
// the tree makes an element invisible
func visible(s *goquery.Selection) bool {
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		if _, ok := cur.Attr("hidden"); ok {
			return false
		}
		if cur.HasClass("hidden") {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(cur.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") {
			return false
		}
	}
	return true
}

func describe(s *goquery.Selection) string {
	if id, ok := s.Attr("id"); ok {
		return "#" + id
	}
	tag := goquery.NodeName(s)
	if cls, ok := s.Attr("class"); ok && cls != "" {
		tag += "." + strings.Join(strings.Fields(cls), ".")
	}
	return strings.TrimSpace(tag + " " + strings.Join(strings.Fields(s.Text()), " "))
}
