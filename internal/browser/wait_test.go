package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/browser/browsertest"
)

func TestWaitUntil(t *testing.T) {
	ctx := context.Background()

	n := 0
	err := browser.WaitUntil(ctx, time.Second, func() (bool, error) {
		n++
		return n == 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	err = browser.WaitUntil(ctx, 0, func() (bool, error) { return false, nil })
	require.ErrorIs(t, err, browser.ErrTimeout)

	boom := errors.New("boom")
	err = browser.WaitUntil(ctx, time.Second, func() (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)
}

func TestWaitAnyAndSettle(t *testing.T) {
	ctx := context.Background()
	p := browsertest.New("https://x", `<html><body><div class="aciTree">tree</div><div id="gone" style="display: none">x</div></body></html>`)

	sel, err := browser.WaitAny(ctx, p, time.Millisecond, "#tree", ".aciTree")
	require.NoError(t, err)
	require.Equal(t, ".aciTree", sel)

	_, err = browser.WaitAny(ctx, p, time.Millisecond, "#gone", "#missing")
	require.ErrorIs(t, err, browser.ErrTimeout)

	require.NoError(t, browser.Settle(ctx, p, time.Second))
}

func TestFakeHooksAndElements(t *testing.T) {
	ctx := context.Background()
	p := browsertest.New("https://x/a", `<html><body>
<ul><li class="item"><a id="go" href="/b">next</a></li></ul></body></html>`)
	p.Routes["https://x/b"] = `<html><body><p class="done">ok</p></body></html>`
	p.On("#go", browsertest.Navigate("https://x/b"))

	a, err := p.Query("#go")
	require.NoError(t, err)
	require.Equal(t, "/b", browser.AttrOf(a, "href"))

	li, err := a.Closest("li.item")
	require.NoError(t, err)
	require.Equal(t, "next", browser.TextOf(li))

	_, err = a.Closest("table")
	require.True(t, browser.Missing(err))

	require.NoError(t, a.Click())
	require.Equal(t, "https://x/b", p.URL())
	require.True(t, browser.Exists(p, "p.done"))
	require.True(t, p.Did("click-el #go"))

	require.NoError(t, p.Goto(ctx, "https://x/b"))
	require.Error(t, p.Goto(ctx, "https://x/nowhere"))
}

func TestFakeDelayedNavigation(t *testing.T) {
	ctx := context.Background()
	p := browsertest.New("https://x/a", `<html><body><a id="go" href="/b">next</a><p class="old">a</p></body></html>`)
	p.Routes["https://x/b"] = `<html><body><p class="done">ok</p></body></html>`
	p.On("#go", browsertest.NavigateLater("https://x/b"))

	// a bare click leaves the old document in place
	require.NoError(t, p.Click("#go"))
	require.Equal(t, "https://x/a", p.URL())
	require.True(t, browser.Exists(p, "p.old"))

	require.NoError(t, p.ClickAndWait(ctx, time.Second, func() error { return p.Click("#go") }))
	require.Equal(t, "https://x/b", p.URL())
	require.True(t, browser.Exists(p, "p.done"))

	err := p.ClickAndWait(ctx, time.Second, func() error { return nil })
	require.ErrorIs(t, err, browser.ErrTimeout)
}
