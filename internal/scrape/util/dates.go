package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"courtparser-engine/internal/domain"
)

// ListingDates is the received/decision pair parsed from a results-page cell.
// Text fields hold what the page said (or the "не указана" sentinel); the
// pointers hold the best-effort parsed values.
type ListingDates struct {
	Received   string
	Decision   string
	ReceivedAt *time.Time
	DecisionAt *time.Time
}

// tried in order, first match wins
var listingDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Поступило:\s*(\d{1,2}\s+\pL+\s+\d{4}).*?Решение:\s*(\d{1,2}\s+\pL+\s+\d{4})`),
	regexp.MustCompile(`(?i)(\d{1,2}\s+\pL+\s+\d{4}).*?(\d{1,2}\s+\pL+\s+\d{4})`),
	regexp.MustCompile(`(?i)Поступило:\s*([^,]+).*?Решение:\s*([^,]+)`),
}

func ExtractDates(text string) ListingDates {
	out := ListingDates{Received: domain.DateNotSpecified, Decision: domain.DateNotSpecified}
	cleaned := CleanText(text)
	if cleaned == "" {
		return out
	}
	for _, re := range listingDatePatterns {
		m := re.FindStringSubmatch(cleaned)
		if len(m) < 3 {
			continue
		}
		out.Received = strings.TrimSpace(m[1])
		out.Decision = strings.TrimSpace(m[2])
		out.ReceivedAt = ParseDate(out.Received)
		out.DecisionAt = ParseDate(out.Decision)
		break
	}
	return out
}

var months = map[string]time.Month{
	"января": time.January, "январь": time.January, "янв": time.January,
	"февраля": time.February, "февраль": time.February, "фев": time.February,
	"марта": time.March, "март": time.March, "мар": time.March,
	"апреля": time.April, "апрель": time.April, "апр": time.April,
	"мая": time.May, "май": time.May,
	"июня": time.June, "июнь": time.June, "июн": time.June,
	"июля": time.July, "июль": time.July, "июл": time.July,
	"августа": time.August, "август": time.August, "авг": time.August,
	"сентября": time.September, "сентябрь": time.September, "сен": time.September, "сент": time.September,
	"октября": time.October, "октябрь": time.October, "окт": time.October,
	"ноября": time.November, "ноябрь": time.November, "ноя": time.November,
	"декабря": time.December, "декабрь": time.December, "дек": time.December,
}

var (
	longDate    = regexp.MustCompile(`(?i)(\d{1,2})\s+(\pL+)\.?\s+(\d{4})`)
	dottedDate  = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	isoDate     = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	dateNoMatch = map[string]bool{"": true, domain.DateNotSpecified: true}
)

// ParseDate understands "12 марта 2024 [года]", "12.03.2024" and "2024-03-12".
// Returns nil when nothing parses to a real calendar date.
func ParseDate(s string) *time.Time {
	s = CleanText(s)
	if dateNoMatch[strings.ToLower(s)] {
		return nil
	}
	if m := longDate.FindStringSubmatch(s); m != nil {
		if mon, ok := months[Lower(m[2])]; ok {
			if t := mkDate(m[3], int(mon), m[1]); t != nil {
				return t
			}
		}
	}
	if m := dottedDate.FindStringSubmatch(s); m != nil {
		mon, _ := strconv.Atoi(m[2])
		if t := mkDate(m[3], mon, m[1]); t != nil {
			return t
		}
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		mon, _ := strconv.Atoi(m[2])
		if t := mkDate(m[1], mon, m[3]); t != nil {
			return t
		}
	}
	return nil
}

func mkDate(year string, month int, day string) *time.Time {
	y, err1 := strconv.Atoi(year)
	d, err2 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || month < 1 || month > 12 || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, time.Month(month), d, 0, 0, 0, 0, time.UTC)
	// reject 31.02 style overflow
	if t.Day() != d || int(t.Month()) != month {
		return nil
	}
	return &t
}
