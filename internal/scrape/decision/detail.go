package decision

import (
	"fmt"
	"html"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/scrape/util"
)

const (
	selHeaderBlock    = ".col-md-8.text-right"
	selCondensedTable = "table.table-condensed"
)

var (
	reCaseNumber = regexp.MustCompile(`(?i)Номер дела:\s*<b>\s*([^<]+?)\s*</b>`)
	reStartDate  = regexp.MustCompile(`(?i)Дата начала:\s*<b>\s*([^<]+?)\s*</b>`)
	reCourt      = regexp.MustCompile(`(?i)Суд:\s*<b>\s*([^<]+?)\s*</b>`)
	reJudge      = regexp.MustCompile(`(?i)Судья:\s*<b>\s*([^<]+?)\s*</b>`)
)

type detailStep struct {
	name string
	run  func(doc *goquery.Document, rec *domain.CaseRecord)
}

var detailSteps = []detailStep{
	{"header", extractHeader},
	{"parties", extractParties},
	{"movement", extractMovement},
	{"result", extractResult},
}

// ExtractDetails fills record fields from the detail page blocks. Each block
// is independent: a failure in one is logged and the next still runs.
func ExtractDetails(doc *goquery.Document, rec *domain.CaseRecord) {
	for _, s := range detailSteps {
		runStep(s, doc, rec)
	}
}

func runStep(s detailStep, doc *goquery.Document, rec *domain.CaseRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[decision] %s step case=%q: %v", s.name, rec.CaseNumber, r)
		}
	}()
	s.run(doc, rec)
}

func headerField(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return util.CleanText(html.UnescapeString(m[1]))
}

func extractHeader(doc *goquery.Document, rec *domain.CaseRecord) {
	sel := doc.Find(selHeaderBlock).First()
	if sel.Length() == 0 {
		log.Printf("[decision] header block missing case=%q", rec.CaseNumber)
		return
	}
	block, err := sel.Html()
	if err != nil {
		return
	}

	if v := headerField(reCaseNumber, block); v != "" {
		rec.CaseNumber = v
	}
	if v := headerField(reStartDate, block); v != "" {
		if t := util.ParseDate(v); t != nil {
			rec.StartDate = t
			rec.ReceivedDate = t
		}
	}
	if v := headerField(reCourt, block); v != "" {
		rec.CourtType = v
	}

	judge := headerField(reJudge, block)
	if judge == "" {
		judge = judgeByLabel(doc)
	}
	if judge != "" {
		rec.JudgeName = judge
	}
}

// judgeByLabel finds a <b> whose parent text reads "Судья: <name>".
func judgeByLabel(doc *goquery.Document) string {
	var judge string
	doc.Find("b").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		name := util.CleanText(b.Text())
		if name == "" {
			return true
		}
		pt := util.CleanText(b.Parent().Text())
		i := strings.Index(pt, "Судья:")
		if i < 0 {
			return true
		}
		if strings.HasPrefix(strings.TrimSpace(pt[i+len("Судья:"):]), name) {
			judge = name
			return false
		}
		return true
	})
	return judge
}

type partyLists struct {
	plaintiffs, defendants, third, reps []string
}

// role labels are matched by substring; representatives first since
// "ПРЕДСТАВИТЕЛЬ ОТВЕТЧИКА" also contains "ОТВЕТЧИК"
func (p *partyLists) add(role, name string) {
	role = strings.ToUpper(util.CleanText(role))
	name = util.CleanText(name)
	if role == "" || name == "" {
		return
	}
	switch {
	case strings.Contains(role, "ПРЕДСТАВИТЕЛЬ"):
		p.reps = append(p.reps, name)
	case strings.Contains(role, "ТРЕТЬЕ"):
		p.third = append(p.third, name)
	case strings.Contains(role, "ИСТЕЦ"), strings.Contains(role, "ЗАЯВИТЕЛЬ"):
		p.plaintiffs = append(p.plaintiffs, name)
	case strings.Contains(role, "ОТВЕТЧИК"), strings.Contains(role, "ДОЛЖНИК"):
		p.defendants = append(p.defendants, name)
	}
}

var partyMarkers = []string{"ИСТЕЦ", "ОТВЕТЧИК", "ТРЕТЬЕ", "ПРЕДСТАВИТЕЛЬ"}

func extractParties(doc *goquery.Document, rec *domain.CaseRecord) {
	var table *goquery.Selection
	doc.Find(selCondensedTable).EachWithBreak(func(_ int, t *goquery.Selection) bool {
		h, _ := t.Html()
		h = strings.ToUpper(h)
		for _, m := range partyMarkers {
			if strings.Contains(h, m) {
				table = t
				return false
			}
		}
		return true
	})

	var p partyLists
	if table != nil {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() >= 2 {
				p.add(cells.Eq(0).Text(), cells.Eq(1).Text())
			}
		})
		rec.Plaintiff = util.JoinNames(p.plaintiffs)
		rec.Defendant = util.JoinNames(p.defendants)
		rec.ThirdParties = util.JoinNames(p.third)
	}

	// representative rows are often outside the parties table; the name cell
	// carries itemprop there
	if len(p.reps) == 0 {
		doc.Find("td[itemprop]").Each(func(_ int, cell *goquery.Selection) {
			role := cell.PrevAllFiltered("td").Last()
			if role.Length() == 0 {
				return
			}
			if strings.Contains(strings.ToUpper(role.Text()), "ПРЕДСТАВИТЕЛЬ") {
				p.reps = append(p.reps, cell.Text())
			}
		})
	}
	if len(p.reps) > 0 {
		rec.Representatives = util.JoinNames(p.reps)
	}

	if table != nil || len(p.reps) > 0 {
		log.Printf("[decision] parties case=%q plaintiffs=%d defendants=%d third=%d reps=%d",
			rec.CaseNumber, len(p.plaintiffs), len(p.defendants), len(p.third), len(p.reps))
	}
}

func extractMovement(doc *goquery.Document, rec *domain.CaseRecord) {
	var table *goquery.Selection
	doc.Find(selCondensedTable).EachWithBreak(func(_ int, t *goquery.Selection) bool {
		txt := t.Text()
		if strings.Contains(txt, "Движение дела") || strings.Contains(txt, "Наименование события") {
			table = t
			return false
		}
		return true
	})
	if table == nil {
		return
	}

	var events []string
	moves := []domain.CaseMovement{}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		name := util.CleanText(cells.Eq(0).Text())
		date := util.CleanText(cells.Eq(3).Text())
		if name == "" {
			return
		}
		m := domain.CaseMovement{
			EventName:   name,
			EventResult: util.CleanText(cells.Eq(1).Text()),
			Basis:       util.CleanText(cells.Eq(2).Text()),
			EventDate:   util.ParseDate(date),
		}
		moves = append(moves, m)
		if date == "" {
			return
		}
		events = append(events, fmt.Sprintf("%s: %s", name, date))

		if m.EventDate == nil {
			return
		}
		switch {
		case strings.Contains(name, "Решение") && strings.Contains(name, "вынесено"):
			rec.DecisionDate = m.EventDate
		case strings.Contains(name, "Регистрация") && strings.Contains(name, "иска"):
			rec.ReceivedDate = m.EventDate
		}
	})

	rec.CaseMovements = moves
	if len(events) > 3 {
		events = events[:3]
	}
	if len(events) > 0 {
		rec.Description = strings.Join(events, "; ")
	}
}

func extractResult(doc *goquery.Document, rec *domain.CaseRecord) {
	fields := map[string]string{}
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			key := strings.TrimSuffix(util.CleanText(dt.Text()), ":")
			dd := dt.NextFiltered("dd")
			if key != "" && dd.Length() > 0 {
				fields[key] = util.CleanText(dd.Text())
			}
		})
	})

	rec.CaseResult = domain.NotSpecified
	if v := fields["Результат"]; v != "" {
		rec.CaseResult = v
	}
	if v := fields["Категория"]; v != "" {
		parts := strings.Split(v, "/")
		if c := strings.TrimSpace(parts[0]); c != "" {
			rec.CaseCategory = c
		}
		if len(parts) > 1 {
			if s := strings.TrimSpace(strings.Join(parts[1:], "/")); s != "" {
				rec.CaseSubcategory = s
			}
		}
	}
}
