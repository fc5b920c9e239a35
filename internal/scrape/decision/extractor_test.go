package decision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"courtparser-engine/internal/browser/browsertest"
	"courtparser-engine/internal/domain"
)

const caseURL = "https://court.test/extended/101"

func testOptions() Options { return Options{} }

func enrich(t *testing.T, html string) (domain.CaseRecord, *browsertest.Page) {
	t.Helper()
	p := browsertest.New("about:blank", "<html></html>")
	p.Routes[caseURL] = html
	rec := domain.CaseRecord{CaseNumber: "2-101/2024", Link: caseURL}
	NewExtractor(DefaultRules(), origin, testOptions()).Enrich(context.Background(), p, &rec)
	require.True(t, rec.DecisionConsistent())
	return rec, p
}

func TestEnrichFileLink(t *testing.T) {
	rec, _ := enrich(t, page(detailHeader, `<div class="btn-group1">
<a href="/decisions/101/other.docx">Скачать</a>
<a href="/decisions/101/reshenie.pdf">Решение</a>
</div>`, justified(decisionParagraphs)))

	require.True(t, rec.HasDecision)
	require.Equal(t, TypeDecision, rec.DecisionType)
	require.Equal(t, "https://court.test/decisions/101/reshenie.pdf", rec.DecisionLink)
	require.False(t, rec.IsEmbeddedDecision())
	require.Empty(t, rec.DecisionContent)
}

func TestEnrichMotivatedFileLink(t *testing.T) {
	rec, _ := enrich(t, page(`<div class="btn-group1"><a href="https://files.test/decisions/9.doc">Мотивированное решение</a></div>`))
	require.True(t, rec.HasDecision)
	require.Equal(t, TypeMotivated, rec.DecisionType)
	require.Equal(t, "https://files.test/decisions/9.doc", rec.DecisionLink)
}

func TestEnrichJustifiedParagraphs(t *testing.T) {
	rec, _ := enrich(t, page(justified(decisionParagraphs)))

	require.True(t, rec.HasDecision)
	require.True(t, strings.HasSuffix(rec.DecisionLink, domain.EmbeddedSuffix))
	require.Equal(t, caseURL+domain.EmbeddedSuffix, rec.DecisionLink)
	require.Equal(t, TypeDecision, rec.DecisionType)
	require.Contains(t, rec.DecisionContent, "суд решил: иск удовлетворить")
	require.Equal(t, day(2024, 3, 15), *rec.DecisionDate)
}

func TestEnrichTooFewParagraphsFallsThrough(t *testing.T) {
	rec, _ := enrich(t, page(justified(decisionParagraphs[:4])))
	require.False(t, rec.HasDecision)
	require.Equal(t, domain.DecisionNotFound, rec.DecisionType)
}

func TestEnrichBlockquote(t *testing.T) {
	rec, _ := enrich(t, page(`<h3 class="text-center">Решение</h3>
<blockquote itemprop="text">Именем Российской Федерации суд, рассмотрев заявление, определил: заявление удовлетворить. 01.02.2024</blockquote>`))

	require.True(t, rec.HasDecision)
	require.Equal(t, TypeRuling, rec.DecisionType)
	require.Equal(t, day(2024, 2, 1), *rec.DecisionDate)
}

func TestEnrichWholePage(t *testing.T) {
	rec, _ := enrich(t, page(`<nav>меню суд иск</nav><h1>Р Е Ш Е Н И Е</h1>
<div>Именем Российской Федерации</div>
<div>суд, рассмотрев иск к ответчику, решил: отказать</div>`))

	require.True(t, rec.HasDecision)
	require.Equal(t, TypeDecision, rec.DecisionType)
	require.True(t, rec.IsEmbeddedDecision())
	require.NotContains(t, rec.DecisionContent, "меню")
}

func TestEnrichWeakTextIsNotFound(t *testing.T) {
	rec, _ := enrich(t, page(`<div>Решение по делу пока не опубликовано.</div>`))
	require.False(t, rec.HasDecision)
	require.Equal(t, domain.DecisionNotFound, rec.DecisionType)
	require.Empty(t, rec.DecisionLink)
}

func TestEnrichNavigationErrorMarksCheckError(t *testing.T) {
	p := browsertest.New("about:blank", "<html></html>")
	p.GotoErr[caseURL] = errors.New("net::ERR_CONNECTION_RESET")
	rec := domain.CaseRecord{CaseNumber: "2-101/2024", Link: caseURL, DecisionLink: "stale"}

	NewExtractor(DefaultRules(), origin, testOptions()).Enrich(context.Background(), p, &rec)
	require.False(t, rec.HasDecision)
	require.Equal(t, domain.DecisionCheckError, rec.DecisionType)
	require.Empty(t, rec.DecisionLink)
}

func TestEnrichOriginalLink(t *testing.T) {
	before := page(detailHeader, `<button id="show-original-link">Показать</button><div id="original-link"></div>`)
	after := page(detailHeader, `<div id="original-link"><a target="_blank" href="https://vahitovsky--tat.sudrf.ru/case/1">сайт суда</a></div>`)

	p := browsertest.New("about:blank", "<html></html>")
	p.Routes[caseURL] = before
	p.On("#show-original-link", func(p *browsertest.Page, _ string) error {
		p.Load(p.URL(), after)
		return nil
	})

	rec := domain.CaseRecord{CaseNumber: "2-101/2024", Link: caseURL}
	NewExtractor(DefaultRules(), origin, testOptions()).Enrich(context.Background(), p, &rec)
	require.Equal(t, "https://vahitovsky--tat.sudrf.ru/case/1", rec.OriginalCaseLink)
	require.Equal(t, "Иванов Иван Иванович", rec.JudgeName)
	require.Equal(t, domain.DecisionNotFound, rec.DecisionType)
}
