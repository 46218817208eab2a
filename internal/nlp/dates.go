package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/ru"

	"github.com/user/video-analytics-bot/internal/dsl"
)

// Порядок важен: "март" должен проверяться раньше префикса "ма" (май)
var months = []struct {
	prefix string
	num    time.Month
}{
	{"январ", time.January},
	{"феврал", time.February},
	{"март", time.March},
	{"апрел", time.April},
	{"ма", time.May},
	{"июн", time.June},
	{"июл", time.July},
	{"август", time.August},
	{"сентябр", time.September},
	{"октябр", time.October},
	{"ноябр", time.November},
	{"декабр", time.December},
}

// monthNum принимает слово с названием месяца в любом склонении
func monthNum(word string) (time.Month, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	for _, m := range months {
		if strings.HasPrefix(w, m.prefix) {
			return m.num, true
		}
	}
	return 0, false
}

// Разборщик свободных русских формулировок дат ("вчера", "28 ноября" и т.п.)
var phraseParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(ru.All...)
	w.Add(common.All...)
	return w
}()

var (
	bareDayRe      = regexp.MustCompile(`^\d{1,2}$`)
	dayMonthRe     = regexp.MustCompile(`^\d{1,2}\s+[а-я]+$`)
	literalDateRe  = regexp.MustCompile(`(\d{1,2})\s+([а-я]+)\s+(\d{4})`)
	anyLiteralRe   = regexp.MustCompile(`(\d{1,2}\s+[а-яА-Я]+\s+\d{4})`)
	dayMonthFullRe = regexp.MustCompile(`^(\d{1,2})\s+([а-яА-Я]+)$`)
	timeRangeRe    = regexp.MustCompile(`(?i)с\s*(\d{1,2}):(\d{2})\s*(?:до|по)\s*(\d{1,2}):(\d{2})`)
	rangeRe        = regexp.MustCompile(
		`(?i)(?:^|\s)с\s+(\d{1,2}(?:\s+[а-яА-Я]+)?(?:\s+\d{4})?)\s+по\s+` +
			`(\d{1,2}(?:\s+[а-яА-Я]+)?(?:\s+\d{4})?)(?:\s+включительно)?(?:\s|$)`)
)

// parsePhrase прогоняет текст через общий парсер дат с нормализацией к UTC
func parsePhrase(s string) *dsl.Date {
	r, err := phraseParser.Parse(s, time.Now().UTC())
	if err != nil || r == nil {
		return nil
	}
	d := dsl.DateOf(r.Time)
	return &d
}

// parseDate разбирает строку даты: сначала буквальная форма "ДД месяц ГГГГ",
// затем общий парсер. Неполные формы ("5", "5 ноября") не разбираются здесь,
// их доразбирает extractRange по правому краю диапазона.
func parseDate(s string) *dsl.Date {
	norm := strings.ToLower(strings.TrimSpace(s))
	if bareDayRe.MatchString(norm) {
		return nil
	}
	if dayMonthRe.MatchString(norm) {
		return nil
	}
	if m := literalDateRe.FindStringSubmatch(norm); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthNum(m[2])
		if !ok {
			return nil
		}
		year, _ := strconv.Atoi(m[3])
		if !validCivilDate(year, month, day) {
			return nil
		}
		d := dsl.NewDate(year, month, day)
		return &d
	}
	return parsePhrase(s)
}

// validCivilDate проверяет, что (год, месяц, день) существует в календаре
func validCivilDate(year int, month time.Month, day int) bool {
	if day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && t.Month() == month && t.Day() == day
}

// extractDay ищет дату в тексте: буквальную форму в любой позиции,
// затем общий парсер по всему тексту
func extractDay(text string) *dsl.Date {
	if m := anyLiteralRe.FindStringSubmatch(text); m != nil {
		if d := parseDate(m[1]); d != nil {
			return d
		}
	}
	return parsePhrase(text)
}

// clockRange - диапазон времени "с HH:MM до HH:MM" внутри суток
type clockRange struct {
	fromHour, fromMin int
	toHour, toMin     int
}

// extractTimeRange ищет диапазон времени в тексте
func extractTimeRange(text string) (clockRange, bool) {
	m := timeRangeRe.FindStringSubmatch(text)
	if m == nil {
		return clockRange{}, false
	}
	h1, _ := strconv.Atoi(m[1])
	m1, _ := strconv.Atoi(m[2])
	h2, _ := strconv.Atoi(m[3])
	m2, _ := strconv.Atoi(m[4])
	if h1 > 23 || h2 > 23 || m1 > 59 || m2 > 59 {
		return clockRange{}, false
	}
	return clockRange{fromHour: h1, fromMin: m1, toHour: h2, toMin: m2}, true
}

// extractRange ищет включительный диапазон "с X по Y [включительно]".
// Правая дата обязана разобраться полностью, иначе диапазон отбрасывается.
// Левая может быть неполной: "1" или "1 ноября" наследуют месяц/год правой.
func extractRange(text string) (*dsl.Date, *dsl.Date) {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	leftRaw := strings.TrimSpace(m[1])
	rightRaw := strings.TrimSpace(m[2])

	right := parseDate(rightRaw)
	if right == nil {
		return nil, nil
	}
	if left := parseDate(leftRaw); left != nil {
		return left, right
	}

	if bareDayRe.MatchString(leftRaw) {
		day, _ := strconv.Atoi(leftRaw)
		if !validCivilDate(right.Year, right.Month, day) {
			return nil, nil
		}
		left := dsl.NewDate(right.Year, right.Month, day)
		return &left, right
	}

	if dm := dayMonthFullRe.FindStringSubmatch(leftRaw); dm != nil {
		left := parseDate(dm[1] + " " + dm[2] + " " + strconv.Itoa(right.Year))
		return left, right
	}

	return nil, nil
}
