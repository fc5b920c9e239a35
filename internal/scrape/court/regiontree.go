package court

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/regions"
	"courtparser-engine/internal/scrape/util"
)

var ErrTreeUnavailable = errors.New("region tree unavailable")

const (
	selTreeText   = "span.aciTreeText"
	selTreeLine   = ".aciTreeLine"
	selTreeItem   = "div[role=treeitem]"
	selTreeButton = "span.aciTreeButton"
	selTreeCheck  = "span.aciTreeCheck"
	selTreePanel  = ".aciTree"
)

var treeTriggers = []string{"#tree", ".aciTree"}

var confirmButtons = []string{
	"button.btn-primary",
	"button.btn-success",
	"input[type='submit']",
	"button[type='submit']",
}

var confirmLabels = []string{"Применить", "Выбрать", "OK", "Сохранить", "Готово"}

// tier is one fallback step of a UI interaction. Tiers run in order and the
// first one without an error wins.
type tier struct {
	name string
	run  func(ctx context.Context, page browser.Page, node browser.Element) error
}

var selectTiers = []tier{
	{"checkbox", func(_ context.Context, _ browser.Page, node browser.Element) error {
		item, err := node.Closest(selTreeItem)
		if err != nil {
			return err
		}
		cb, err := item.Query(selTreeCheck)
		if err != nil {
			return err
		}
		return cb.Click()
	}},
	{"node-click", func(_ context.Context, _ browser.Page, node browser.Element) error {
		return node.Click()
	}},
	{"coordinates", func(_ context.Context, page browser.Page, node browser.Element) error {
		box, err := node.Box()
		if err != nil {
			return err
		}
		x, y := box.Center()
		return page.ClickAt(x, y)
	}},
}

var confirmTiers = []tier{
	{"primary-button", func(_ context.Context, page browser.Page, _ browser.Element) error {
		for _, sel := range confirmButtons {
			els, _ := page.QueryAll(sel)
			for _, el := range els {
				if ok, _ := el.Visible(); ok {
					return el.Click()
				}
			}
		}
		return browser.ErrNotFound
	}},
	{"label-button", func(_ context.Context, page browser.Page, _ browser.Element) error {
		els, _ := page.QueryAll("button")
		for _, el := range els {
			text := browser.TextOf(el)
			for _, l := range confirmLabels {
				if strings.Contains(text, l) {
					return el.Click()
				}
			}
		}
		return browser.ErrNotFound
	}},
	{"outside-click", func(_ context.Context, page browser.Page, _ browser.Element) error {
		return page.Click("body")
	}},
	{"escape", func(_ context.Context, page browser.Page, _ browser.Element) error {
		return page.Press("Escape")
	}},
}

// TreeSelector ticks regions in the aciTree checkbox widget.
type TreeSelector struct {
	table *regions.Table
	opts  Options
}

func NewTreeSelector(tbl *regions.Table, opts Options) *TreeSelector {
	return &TreeSelector{table: tbl, opts: opts}
}

// Select opens the tree, expands each needed district and ticks the
// requested regions. It fails only when the tree cannot be opened; problems
// with single regions are logged and skipped.
func (t *TreeSelector) Select(ctx context.Context, page browser.Page, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := t.open(ctx, page); err != nil {
		return err
	}

	for _, g := range t.table.Groups(names) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.expandDistrict(ctx, page, g.District); err != nil {
			log.Printf("[tree] expand district=%q: %v", g.District, err)
		}
		for _, r := range g.Regions {
			if err := t.selectRegion(ctx, page, r); err != nil {
				log.Printf("[tree] select region=%q: %v", r, err)
			}
		}
	}

	t.confirm(ctx, page)
	return nil
}

func (t *TreeSelector) open(ctx context.Context, page browser.Page) error {
	opened := false
	for _, sel := range treeTriggers {
		el, err := page.Query(sel)
		if err != nil {
			continue
		}
		if err := el.Click(); err != nil {
			log.Printf("[tree] trigger %s click: %v", sel, err)
			continue
		}
		opened = true
		break
	}
	if !opened {
		return fmt.Errorf("%w: no trigger", ErrTreeUnavailable)
	}
	if err := page.WaitVisible(ctx, selTreePanel, t.opts.TreeTimeout); err != nil {
		return fmt.Errorf("%w: %v", ErrTreeUnavailable, err)
	}
	return nil
}

func (t *TreeSelector) expandDistrict(ctx context.Context, page browser.Page, district string) error {
	variants := t.table.Variants(district)
	node, err := findNode(page, variants, true)
	if err != nil {
		node, err = findNode(page, variants, false)
	}
	if err != nil {
		return fmt.Errorf("district node: %w", err)
	}

	if line, err := node.Closest(selTreeLine); err == nil && browser.AttrOf(line, "aria-expanded") == "true" {
		log.Printf("[tree] district=%q already expanded", district)
		return nil
	}

	btn, err := expandButton(node)
	if err != nil {
		return err
	}
	if err := btn.Click(); err != nil {
		return fmt.Errorf("expand click: %w", err)
	}
	log.Printf("[tree] expanded district=%q", district)
	_ = browser.Settle(ctx, page, t.opts.SettleTimeout)
	return nil
}

func expandButton(node browser.Element) (browser.Element, error) {
	item, err := node.Closest(selTreeItem)
	if err != nil {
		return node, nil
	}
	if btn, err := item.Query(selTreeButton); err == nil {
		return btn, nil
	}
	return node, nil
}

func (t *TreeSelector) selectRegion(ctx context.Context, page browser.Page, region string) error {
	labels := []string{t.table.Canonical(region), strings.TrimSpace(region)}
	node, err := findNode(page, labels, true)
	if err != nil {
		node, err = findNode(page, labels, false)
	}
	if err != nil {
		return fmt.Errorf("region node: %w", err)
	}

	if line, err := node.Closest(selTreeLine); err == nil && browser.AttrOf(line, "aria-checked") == "true" {
		log.Printf("[tree] region=%q already selected", region)
		return nil
	}

	name, err := runTiers(ctx, page, node, selectTiers)
	if err != nil {
		return err
	}
	log.Printf("[tree] selected region=%q tier=%s", region, name)
	return nil
}

func (t *TreeSelector) confirm(ctx context.Context, page browser.Page) {
	name, err := runTiers(ctx, page, nil, confirmTiers)
	if err != nil {
		log.Printf("[tree] confirm failed: %v", err)
		return
	}
	log.Printf("[tree] confirmed tier=%s", name)
}

func runTiers(ctx context.Context, page browser.Page, node browser.Element, tiers []tier) (string, error) {
	var errs []error
	for _, tr := range tiers {
		if err := tr.run(ctx, page, node); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tr.name, err))
			continue
		}
		return tr.name, nil
	}
	return "", errors.Join(errs...)
}

// findNode returns the first tree label equal to (exact) or containing one of
// labels, trying labels in order.
func findNode(page browser.Page, labels []string, exact bool) (browser.Element, error) {
	nodes, err := page.QueryAll(selTreeText)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = util.Lower(util.CleanText(browser.TextOf(n)))
	}
	for _, l := range labels {
		want := util.Lower(util.CleanText(l))
		if want == "" {
			continue
		}
		for i, txt := range texts {
			if (exact && txt == want) || (!exact && strings.Contains(txt, want)) {
				return nodes[i], nil
			}
		}
	}
	return nil, browser.ErrNotFound
}
