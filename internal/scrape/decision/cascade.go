package decision

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/scrape/util"
)

const (
	selDownloadLinks = ".btn-group1 a"
	selJustified     = "p.MsoNormal[style*='TEXT-ALIGN: justify'], p.MsoNormal[style*='text-align: justify'], p[class*='MsoNormal'][style*='justify']"
	selHeading       = "h3.text-center"
	selQuotedText    = "blockquote[itemprop=text]"
)

// Snapshot is a rendered case page as the cascade sees it.
type Snapshot struct {
	Doc    *goquery.Document
	HTML   string
	Link   string // case page URL
	Origin string
}

// Finding is an accepted decision.
type Finding struct {
	Strategy string
	Link     string
	Type     string
	Content  string
	Date     *time.Time
	Embedded bool
}

// Strategy is one tier of the cascade. It is pure: it only reads the
// snapshot.
type Strategy struct {
	Name string
	Find func(r Rules, s *Snapshot) (Finding, bool)
}

// Cascade lists the detection tiers in order: a downloadable file first,
// then three ways of finding a decision embedded in the page.
func Cascade() []Strategy {
	return []Strategy{
		{"file-link", findFileLink},
		{"paragraphs", findParagraphs},
		{"blockquote", findBlockquote},
		{"whole-page", findWholePage},
	}
}

// Detect runs the cascade; the first tier that finds something wins.
func (r Rules) Detect(s *Snapshot) (Finding, bool) {
	for _, st := range Cascade() {
		if f, ok := st.Find(r, s); ok {
			f.Strategy = st.Name
			return f, true
		}
	}
	return Finding{}, false
}

func findFileLink(r Rules, s *Snapshot) (Finding, bool) {
	var out Finding
	found := false
	s.Doc.Find(selDownloadLinks).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		text := util.CleanText(a.Text())
		if !r.AcceptsLink(href, text) {
			return true
		}
		out = Finding{Link: util.Absolute(s.Origin, href), Type: r.TypeFromLinkText(text)}
		found = true
		return false
	})
	return out, found
}

func findParagraphs(r Rules, s *Snapshot) (Finding, bool) {
	paras := s.Doc.Find(selJustified)
	if paras.Length() < r.MinParagraphs {
		return Finding{}, false
	}
	if r.MaxParagraphs > 0 && paras.Length() > r.MaxParagraphs {
		paras = paras.Slice(0, r.MaxParagraphs)
	}

	var frags []string
	paras.Each(func(_ int, p *goquery.Selection) {
		t := util.CleanText(p.Text())
		if utf8.RuneCountInString(t) > r.MinFragmentLen {
			frags = append(frags, t)
		}
	})
	if len(frags) < r.MinFragments {
		return Finding{}, false
	}
	return r.embedded(s, strings.Join(frags, " "))
}

func findBlockquote(r Rules, s *Snapshot) (Finding, bool) {
	var out Finding
	found := false
	s.Doc.Find(selHeading).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		q := h.Next().Filter(selQuotedText)
		if q.Length() == 0 {
			return true
		}
		out, found = r.embedded(s, util.CleanText(q.Text()))
		return !found
	})
	return out, found
}

func findWholePage(r Rules, s *Snapshot) (Finding, bool) {
	if !util.ContainsAny(util.Lower(s.HTML), r.PageIndicators...) {
		return Finding{}, false
	}
	return r.embedded(s, util.VisibleText(s.HTML))
}

// embedded validates and classifies text found on the page itself.
func (r Rules) embedded(s *Snapshot, text string) (Finding, bool) {
	if !r.Validate(text) {
		return Finding{}, false
	}
	typ := r.Classify(text)
	if typ == "" {
		return Finding{}, false
	}
	return Finding{
		Link:     domain.EmbeddedLink(s.Link),
		Type:     typ,
		Content:  text,
		Date:     ExtractDecisionDate(text),
		Embedded: true,
	}, true
}
