package court

import (
	"context"
	"fmt"
	"strings"

	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/browser/browsertest"
	"courtparser-engine/internal/domain"
)

func testOptions() Options {
	o := DefaultOptions()
	o.PageDelay = 0
	o.CaseDelay = 0
	o.ParseRetryDelay = 0
	o.SettleTimeout = 0
	return o
}

func testSite() Site {
	s := DefaultSite()
	s.Origin = "https://court.test"
	return s
}

const formHTML = `<html><body>
<select id="extendedSearch_case_type"><option value="gr_first">Гражданские</option></select>
<select id="extendedSearch_sub_category_1"><option value="46">Имущественные</option></select>
<select id="extendedSearch_sub_category_2"><option value="53">Займ</option></select>
<div class="region-picker"><span id="tree">Выбрать регион</span></div>
<div class="aciTree">
 <div role="treeitem">
  <div class="aciTreeLine" aria-expanded="false"><span class="aciTreeButton"></span><span class="aciTreeCheck" id="south-check"></span><span class="aciTreeText">Южный федеральный округ</span></div>
  <div role="treeitem">
   <div class="aciTreeLine" aria-checked="false"><span class="aciTreeCheck" id="kalm-check"></span><span class="aciTreeText">Республика Калмыкия</span></div>
  </div>
 </div>
 <div role="treeitem">
  <div class="aciTreeLine" aria-expanded="true"><span class="aciTreeButton" id="volga-btn"></span><span class="aciTreeCheck"></span><span class="aciTreeText">Приволжский федеральный округ</span></div>
  <div role="treeitem">
   <div class="aciTreeLine" aria-checked="true"><span class="aciTreeCheck" id="tat-check"></span><span class="aciTreeText">Республика Татарстан</span></div>
  </div>
 </div>
</div>
<button class="btn btn-primary" id="apply">Применить</button>
<button id="extendedSearch_search">Найти</button>
</body></html>`

// caseTable renders one bordered result table.
func caseTable(court, number, href, dates, parties string) string {
	return fmt.Sprintf(`<table class="table table-bordered">
<tr class="active"><td>%s</td><td><a href="%s">%s</a></td></tr>
<tr><td>%s</td><td>%s</td></tr>
</table>`, court, href, number, dates, parties)
}

func resultsPage(pagination string, tables ...string) string {
	return `<html><body><div class="count">Найдено дел: 42</div>` +
		strings.Join(tables, "\n") + pagination + `</body></html>`
}

func pagination(pages ...int) string {
	var b strings.Builder
	b.WriteString(`<ul class="pagination">`)
	for _, p := range pages {
		fmt.Fprintf(&b, `<li><a href="/extended-search?page=%d">%d</a></li>`, p, p)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

type stubEnricher struct {
	seen []string
}

func (s *stubEnricher) Enrich(_ context.Context, _ browser.Page, rec *domain.CaseRecord) {
	s.seen = append(s.seen, rec.CaseNumber)
	if strings.HasSuffix(rec.CaseNumber, "1/2024") {
		rec.HasDecision = true
		rec.DecisionType = "Решение"
		rec.DecisionLink = rec.Link + domain.EmbeddedSuffix
	}
}

func indexOf(actions []string, prefix string) int {
	for i, a := range actions {
		if strings.HasPrefix(a, prefix) {
			return i
		}
	}
	return -1
}

var _ browser.Page = (*browsertest.Page)(nil)
