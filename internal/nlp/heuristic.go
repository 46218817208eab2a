package nlp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/user/video-analytics-bot/internal/dsl"
)

var metricAliases = []struct {
	metric  dsl.Metric
	aliases []string
}{
	{dsl.MetricViews, []string{"просмотр"}},
	{dsl.MetricLikes, []string{"лайк"}},
	{dsl.MetricComments, []string{"коммент", "комментар"}},
	{dsl.MetricReports, []string{"жалоб", "репорт"}},
}

// detectMetric ищет метрику в тексте; "" если не найдена
func detectMetric(text string) dsl.Metric {
	t := strings.ToLower(text)
	for _, ma := range metricAliases {
		for _, a := range ma.aliases {
			if strings.Contains(t, a) {
				return ma.metric
			}
		}
	}
	return ""
}

var (
	creatorRuRe = regexp.MustCompile("(?i)креатор[а-я]*\\s+с\\s+id\\s+`?([0-9a-fA-F]{32})`?")
	creatorEnRe = regexp.MustCompile("(?i)creator\\s*[_-]?id\\s*[:=]\\s*`?([0-9a-fA-F]{32})`?")

	spacesRe = regexp.MustCompile(`\s+`)

	greaterRe = regexp.MustCompile(`(?:больше|>)\s*([0-9][0-9\s]*)`)
	notLessRe = regexp.MustCompile(`не\s+менее\s*([0-9][0-9\s]*)`)
	notMoreRe = regexp.MustCompile(`не\s+более\s*([0-9][0-9\s]*)`)
)

// extractCreatorID ищет 32-символьный hex-идентификатор креатора,
// нормализованный к нижнему регистру; "" если не найден
func extractCreatorID(text string) string {
	if m := creatorRuRe.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	if m := creatorEnRe.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// parseIntWithSpaces разбирает число с внутренними пробелами ("100 000")
func parseIntWithSpaces(s string) (int64, error) {
	return strconv.ParseInt(spacesRe.ReplaceAllString(s, ""), 10, 64)
}

// extractThreshold ищет числовой порог: нужна метрика и числовая подсказка.
// "больше"/">" -> gt, "не менее" -> gte, "не более" -> lte.
func extractThreshold(text string) *dsl.Threshold {
	t := strings.ToLower(text)

	var op string
	var re *regexp.Regexp
	switch {
	case strings.Contains(t, "не менее"):
		op, re = "gte", notLessRe
	case strings.Contains(t, "не более"):
		op, re = "lte", notMoreRe
	case strings.Contains(t, "больше") || strings.Contains(t, ">"):
		op, re = "gt", greaterRe
	default:
		return nil
	}

	metric := detectMetric(text)
	if metric == "" {
		return nil
	}

	m := re.FindStringSubmatch(t)
	if m == nil {
		return nil
	}
	value, err := parseIntWithSpaces(m[1])
	if err != nil {
		return nil
	}
	return &dsl.Threshold{Metric: metric, Op: op, Value: value}
}

// heuristicParse разбирает вопрос без обращения к сети.
// Правила проверяются по порядку, побеждает первое структурное совпадение.
// nil означает "эвристики не распознали запрос".
func heuristicParse(text string) *dsl.QueryDSL {
	t := strings.ToLower(text)

	// Замеры с отрицательной дельтой
	if strings.Contains(t, "замер") || strings.Contains(t, "снапш") || strings.Contains(t, "за час") {
		metric := detectMetric(text)
		negative := strings.Contains(t, "отриц") || strings.Contains(t, "стало меньше") || strings.Contains(t, "уменьш")
		if metric != "" && negative {
			return &dsl.QueryDSL{
				Aggregation: dsl.AggCountSnapshotsWithDeltaLt0,
				Metric:      metric,
				Day:         extractDay(text),
				CreatorID:   extractCreatorID(text),
			}
		}
	}

	newMetricIntent := strings.Contains(t, "получ") && strings.Contains(t, "нов") && detectMetric(text) != ""

	// Простой счёт видео
	if strings.Contains(t, "сколько") && strings.Contains(t, "видео") &&
		!strings.Contains(t, "вырос") && !strings.Contains(t, "прирост") &&
		!newMetricIntent &&
		!(strings.Contains(t, "разн") && strings.Contains(t, "креатор")) {
		q := &dsl.QueryDSL{
			Aggregation: dsl.AggCountVideos,
			CreatorID:   extractCreatorID(text),
			Threshold:   extractThreshold(text),
		}
		if left, right := extractRange(text); left != nil && right != nil {
			start, _ := left.BoundsUTC()
			_, end := right.BoundsUTC()
			q.PublishedFrom = &start
			q.PublishedTo = &end
		}
		return q
	}

	// Прирост (сумма дельт) за день
	if (strings.Contains(t, "вырос") || strings.Contains(t, "прирост")) && strings.Contains(t, "видео") {
		metric := detectMetric(text)
		if metric == "" {
			metric = dsl.MetricViews
		}
		day := extractDay(text)
		if day == nil {
			return nil
		}
		q := &dsl.QueryDSL{
			Aggregation: dsl.AggSumDelta,
			Metric:      metric,
			CreatorID:   extractCreatorID(text),
			Day:         day,
		}
		if cr, ok := extractTimeRange(text); ok {
			start := day.At(cr.fromHour, cr.fromMin)
			end := day.At(cr.toHour, cr.toMin)
			if !end.After(start) {
				// Окно через полночь
				end = end.AddDate(0, 0, 1)
			}
			q.SnapshotFrom = &start
			q.SnapshotTo = &end
		}
		return q
	}

	// Разные видео с положительной дельтой
	if strings.Contains(t, "сколько") && strings.Contains(t, "разн") && strings.Contains(t, "видео") &&
		(strings.Contains(t, "нов") || strings.Contains(t, "получ")) {
		metric := detectMetric(text)
		if metric == "" {
			metric = dsl.MetricViews
		}
		day := extractDay(text)
		if day == nil {
			return nil
		}
		return &dsl.QueryDSL{
			Aggregation: dsl.AggCountDistinctVideosWithDeltaGt,
			Metric:      metric,
			Day:         day,
		}
	}

	// Разные креаторы с видео выше порога
	if strings.Contains(t, "сколько") && strings.Contains(t, "разн") &&
		strings.Contains(t, "креатор") && strings.Contains(t, "видео") {
		threshold := extractThreshold(text)
		if threshold == nil {
			return nil
		}
		q := &dsl.QueryDSL{
			Aggregation: dsl.AggCountDistinctCreatorsFinalGt,
			CreatorID:   extractCreatorID(text),
			Threshold:   threshold,
		}
		if left, right := extractRange(text); left != nil && right != nil {
			start, _ := left.BoundsUTC()
			_, end := right.BoundsUTC()
			q.PublishedFrom = &start
			q.PublishedTo = &end
		}
		return q
	}

	// Сумма метрики за всё время
	if strings.Contains(t, "сколько") && detectMetric(text) != "" && strings.Contains(t, "вс") {
		return &dsl.QueryDSL{Aggregation: dsl.AggSumFinal, Metric: detectMetric(text)}
	}

	return nil
}
