package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	pw "github.com/playwright-community/playwright-go"
)

type LaunchOptions struct {
	Headless       bool
	ExecutablePath string
	UserAgent      string
	DefaultTimeout time.Duration
	// InstallDriver downloads the playwright driver (not browsers) on first use.
	InstallDriver bool
}

// Launcher owns one playwright driver and one Chromium process. Pages are
// cheap; the process is started lazily and shared.
type Launcher struct {
	opts LaunchOptions

	mu      sync.Mutex
	pw      *pw.Playwright
	browser pw.Browser
}

var installOnce sync.Once

func NewLauncher(opts LaunchOptions) *Launcher {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 30 * time.Second
	}
	return &Launcher{opts: opts}
}

func (l *Launcher) start() error {
	if l.browser != nil {
		return nil
	}
	if l.opts.InstallDriver {
		installOnce.Do(func() {
			log.Printf("[browser] installing playwright driver")
			if err := pw.Install(&pw.RunOptions{SkipInstallBrowsers: true}); err != nil {
				log.Printf("[browser] driver install warning: %v", err)
			}
		})
	}

	inst, err := pw.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	lo := pw.BrowserTypeLaunchOptions{Headless: pw.Bool(l.opts.Headless)}
	if l.opts.ExecutablePath != "" {
		lo.ExecutablePath = pw.String(l.opts.ExecutablePath)
	}
	b, err := inst.Chromium.Launch(lo)
	if err != nil {
		_ = inst.Stop()
		return fmt.Errorf("launch chromium: %w", err)
	}
	l.pw, l.browser = inst, b
	return nil
}

// NewPage opens a fresh page, launching the browser if needed.
func (l *Launcher) NewPage() (Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.start(); err != nil {
		return nil, err
	}
	var po pw.BrowserNewPageOptions
	if l.opts.UserAgent != "" {
		po.UserAgent = pw.String(l.opts.UserAgent)
	}
	p, err := l.browser.NewPage(po)
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	p.SetDefaultTimeout(ms(l.opts.DefaultTimeout))
	return &pwPage{p: p}, nil
}

func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.browser != nil {
		errs = append(errs, l.browser.Close())
		l.browser = nil
	}
	if l.pw != nil {
		errs = append(errs, l.pw.Stop())
		l.pw = nil
	}
	return errors.Join(errs...)
}

type pwPage struct {
	p pw.Page
}

func (p *pwPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.p.Goto(url, pw.PageGotoOptions{WaitUntil: pw.WaitUntilStateNetworkidle})
	return wrap(err)
}

func (p *pwPage) URL() string { return p.p.URL() }

func (p *pwPage) Content() (string, error) { return p.p.Content() }

func (p *pwPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.p.Locator(selector).First().WaitFor(pw.LocatorWaitForOptions{
		State:   pw.WaitForSelectorStateVisible,
		Timeout: pw.Float(ms(timeout)),
	})
	return wrap(err)
}

func (p *pwPage) ClickAndWait(ctx context.Context, timeout time.Duration, click func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.p.ExpectNavigation(click, pw.PageExpectNavigationOptions{
		WaitUntil: pw.WaitUntilStateNetworkidle,
		Timeout:   pw.Float(ms(timeout)),
	})
	return wrap(err)
}

func (p *pwPage) Query(selector string) (Element, error) {
	h, err := p.p.QuerySelector(selector)
	return element(h, err)
}

func (p *pwPage) QueryAll(selector string) ([]Element, error) {
	hs, err := p.p.QuerySelectorAll(selector)
	return elements(hs, err)
}

func (p *pwPage) Select(selector, value string) error {
	_, err := p.p.Locator(selector).First().SelectOption(pw.SelectOptionValues{Values: &[]string{value}})
	return wrap(err)
}

func (p *pwPage) Click(selector string) error {
	return wrap(p.p.Locator(selector).First().Click())
}

func (p *pwPage) ClickAt(x, y float64) error { return wrap(p.p.Mouse().Click(x, y)) }

func (p *pwPage) Press(key string) error { return wrap(p.p.Keyboard().Press(key)) }

func (p *pwPage) Close() error { return p.p.Close() }

type pwElement struct {
	h pw.ElementHandle
}

func (e *pwElement) Text() (string, error)      { return e.h.TextContent() }
func (e *pwElement) InnerHTML() (string, error) { return e.h.InnerHTML() }
func (e *pwElement) Visible() (bool, error)     { return e.h.IsVisible() }
func (e *pwElement) Click() error               { return wrap(e.h.Click()) }

func (e *pwElement) Attr(name string) (string, error) {
	return e.h.GetAttribute(name)
}

func (e *pwElement) Box() (Box, error) {
	r, err := e.h.BoundingBox()
	if err != nil {
		return Box{}, wrap(err)
	}
	if r == nil {
		return Box{}, fmt.Errorf("element has no box: %w", ErrNotFound)
	}
	return Box{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, nil
}

func (e *pwElement) Query(selector string) (Element, error) {
	h, err := e.h.QuerySelector(selector)
	return element(h, err)
}

func (e *pwElement) QueryAll(selector string) ([]Element, error) {
	hs, err := e.h.QuerySelectorAll(selector)
	return elements(hs, err)
}

func (e *pwElement) Closest(selector string) (Element, error) {
	js, err := e.h.EvaluateHandle("(el, s) => el.closest(s)", selector)
	if err != nil {
		return nil, wrap(err)
	}
	h := js.AsElement()
	if h == nil {
		return nil, ErrNotFound
	}
	return &pwElement{h: h}, nil
}

func element(h pw.ElementHandle, err error) (Element, error) {
	if err != nil {
		return nil, wrap(err)
	}
	if h == nil {
		return nil, ErrNotFound
	}
	return &pwElement{h: h}, nil
}

func elements(hs []pw.ElementHandle, err error) ([]Element, error) {
	if err != nil {
		return nil, wrap(err)
	}
	out := make([]Element, 0, len(hs))
	for _, h := range hs {
		out = append(out, &pwElement{h: h})
	}
	return out, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pw.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func ms(d time.Duration) float64 { return float64(d / time.Millisecond) }
