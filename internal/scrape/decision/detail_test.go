package decision

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"courtparser-engine/internal/domain"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestExtractDetailsFullPage(t *testing.T) {
	rec := domain.CaseRecord{CaseNumber: "2-101/2024", CaseCategory: "старое", Plaintiff: "из списка"}
	ExtractDetails(parse(t, page(detailHeader, partiesTable, movementTable, resultList)), &rec)

	require.Equal(t, "2-101/2024 ~ М-50/2024", rec.CaseNumber)
	require.Equal(t, "Вахитовский районный суд г. Казани", rec.CourtType)
	require.Equal(t, "Иванов Иван Иванович", rec.JudgeName)
	require.Equal(t, day(2024, 1, 10), *rec.StartDate)

	require.Equal(t, "ПАО Сбербанк", rec.Plaintiff)
	require.Equal(t, "Иванов И.И.; Петров П.П.", rec.Defendant)
	require.Equal(t, "ООО Страхование", rec.ThirdParties)
	require.Equal(t, "Сидоров С.С.", rec.Representatives)

	require.Len(t, rec.CaseMovements, 4)
	require.Equal(t, "Судебное заседание", rec.CaseMovements[2].EventName)
	require.Equal(t, "Отложено", rec.CaseMovements[2].EventResult)
	require.Equal(t, "неявка", rec.CaseMovements[2].Basis)
	require.Equal(t, day(2024, 1, 10), *rec.ReceivedDate)
	require.Equal(t, day(2024, 3, 15), *rec.DecisionDate)
	require.Equal(t,
		"Регистрация иска (заявления, жалобы) в суде: 10.01.2024; Подготовка дела: 15.01.2024; Судебное заседание: 01.02.2024",
		rec.Description)

	require.Equal(t, "Иск удовлетворен", rec.CaseResult)
	require.Equal(t, "Имущественные споры", rec.CaseCategory)
	require.Equal(t, "Иски о взыскании сумм по договору займа", rec.CaseSubcategory)
}

func TestExtractDetailsSparsePage(t *testing.T) {
	rec := domain.CaseRecord{CaseNumber: "2-1/2024", Plaintiff: "Банк", CaseCategory: "Имущественные споры"}
	ExtractDetails(parse(t, page(`<div>Судья: <b>Петрова А.А.</b></div>
<table><tr><td>Представитель истца</td><td itemprop="name">Кузнецов К.К.</td></tr></table>`)), &rec)

	require.Equal(t, "2-1/2024", rec.CaseNumber)
	require.Equal(t, "Банк", rec.Plaintiff)
	require.Equal(t, "Кузнецов К.К.", rec.Representatives)
	require.Equal(t, domain.NotSpecified, rec.CaseResult)
	require.Equal(t, "Имущественные споры", rec.CaseCategory)
	require.Empty(t, rec.JudgeName, "judge lookup only runs with a header block")
}

func TestJudgeFallback(t *testing.T) {
	rec := domain.CaseRecord{}
	ExtractDetails(parse(t, page(`<div class="col-md-8 text-right">Суд: <b>Кировский районный суд</b></div>
<div class="judge">Судья: <b>Петрова А.А.</b></div>`)), &rec)
	require.Equal(t, "Кировский районный суд", rec.CourtType)
	require.Equal(t, "Петрова А.А.", rec.JudgeName)
}
