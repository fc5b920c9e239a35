// Package sudact searches the Supreme Court index on sudact.ru. It is a plain
// HTTP source: no browser, no decision check.
package sudact

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/scrape/types"
	"courtparser-engine/internal/scrape/util"
)

const (
	DefaultBaseURL = "https://sudact.ru"
	searchPath     = "/vsrf/doc_ajax/"
	Region         = "Верховный Суд РФ"
)

type Config struct {
	BaseURL   string
	Query     string
	UserAgent string
	Timeout   time.Duration
	// MinInterval spaces consecutive requests.
	MinInterval time.Duration
}

type Scraper struct {
	cfg     Config
	http    *resty.Client
	limiter *util.HostLimiter
}

func New(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetHeader("user-agent", cfg.UserAgent)
	client.SetHeader("x-requested-with", "XMLHttpRequest")
	client.SetTimeout(cfg.Timeout)

	return &Scraper{cfg: cfg, http: client, limiter: util.NewIntervalLimiter(cfg.MinInterval)}
}

func (s *Scraper) Name() string { return "sudact" }

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	cases, err := s.Search(ctx, s.cfg.Query)
	res := types.ScrapeResult{Source: s.Name(), Region: Region, Cases: cases, Pages: 1}
	if err != nil {
		return res, err
	}
	return res, nil
}

// Search runs one keyword query and returns the listed cases.
func (s *Scraper) Search(ctx context.Context, query string) ([]domain.CaseRecord, error) {
	if err := s.limiter.WaitURL(ctx, s.cfg.BaseURL); err != nil {
		return nil, err
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("vsrf-txt", query).
		Get(searchPath)
	if err != nil {
		return nil, fmt.Errorf("sudact search: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("sudact search status %d", res.StatusCode())
	}

	body, err := util.DecodeBody(res.Header().Get("Content-Type"), res.Body())
	if err != nil {
		return nil, err
	}
	content, err := htmlContent([]byte(body))
	if err != nil {
		return nil, err
	}
	cases, err := Parse(content, s.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	log.Printf("[sudact] query=%q cases=%d", query, len(cases))
	return cases, nil
}

// htmlContent pulls the HTML fragment out of the ajax JSON. The fragment is
// normally under "content"; otherwise the first string field is used.
func htmlContent(body []byte) (string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("sudact decode json: %w", err)
	}
	var s string
	if v, ok := raw["content"]; ok && json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
		return s, nil
	}
	for _, v := range raw {
		if json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("sudact: no html content in response")
}

var caseNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`№\s*([А-Я]\d+-\d+/\d+)`),
	regexp.MustCompile(`(?i)дело\s*№?\s*([А-Я]\d+-\d+/\d+)`),
}

// CaseNumber pulls a case number like "А40-12345/2023" out of a title.
func CaseNumber(title string) string {
	for _, re := range caseNumberPatterns {
		if m := re.FindStringSubmatch(title); m != nil {
			return m[1]
		}
	}
	return ""
}

// Parse reads the result list fragment.
func Parse(fragment, baseURL string) ([]domain.CaseRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("sudact parse html: %w", err)
	}

	var out []domain.CaseRecord
	doc.Find("ul.results li").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("h4 a").First()
		if a.Length() == 0 {
			return
		}
		title := util.CleanText(a.Text())

		justice := li.Find(".b-justice").First().Clone()
		justice.Find(".addution").Remove()
		addition := util.CleanText(li.Find(".addution").First().Text())

		rec := domain.CaseRecord{
			Title:         title,
			Link:          util.Absolute(baseURL, a.AttrOr("href", "")),
			CaseNumber:    CaseNumber(title),
			CourtType:     util.CleanText(justice.Text()),
			Description:   addition,
			Subject:       strings.TrimSpace(strings.TrimPrefix(addition, "Суть спора:")),
			Region:        Region,
			CaseMovements: []domain.CaseMovement{},
		}
		rec.ResetDecision()
		out = append(out, rec)
	})
	return out, nil
}
