package dsl

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metric - метрика видео
type Metric string

const (
	MetricViews    Metric = "views"
	MetricLikes    Metric = "likes"
	MetricComments Metric = "comments"
	MetricReports  Metric = "reports"
)

// Aggregation - вид агрегации в запросе
type Aggregation string

const (
	AggCountVideos                    Aggregation = "count_videos"
	AggSumFinal                       Aggregation = "sum_final"
	AggSumDelta                       Aggregation = "sum_delta"
	AggCountDistinctVideosWithDeltaGt Aggregation = "count_distinct_videos_with_delta_gt0"
	AggCountSnapshotsWithDeltaLt0     Aggregation = "count_snapshots_with_delta_lt0"
	AggCountDistinctCreatorsFinalGt   Aggregation = "count_distinct_creators_with_final_gt"
	AggCountDistinctPublishDays       Aggregation = "count_distinct_publish_days"
)

// Threshold - числовой фильтр по final-метрике
type Threshold struct {
	Metric Metric `json:"metric"`
	Op     string `json:"op"` // "gt", "gte", "lt", "lte"
	Value  int64  `json:"value"`
}

// Date - календарная дата (UTC) без времени
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate создаёт Date из года, месяца и дня
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf создаёт Date из time.Time (в UTC)
func DateOf(t time.Time) Date {
	u := t.UTC()
	return Date{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// BoundsUTC возвращает полуоткрытые границы суток [00:00, +1 день) в UTC
func (d Date) BoundsUTC() (time.Time, time.Time) {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// At возвращает момент времени внутри суток в UTC
func (d Date) At(hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// QueryDSL - разобранный запрос пользователя, единственный контракт
// между парсингом и компиляцией SQL. Создаётся целиком и не мутируется.
type QueryDSL struct {
	Aggregation Aggregation
	Metric      Metric // "" означает "не указана" (компилятор подставит views)

	CreatorID string // 32 hex-символа в нижнем регистре или ""

	PublishedFrom *time.Time // включительно
	PublishedTo   *time.Time // исключительно (начало следующего дня)

	SnapshotFrom *time.Time
	SnapshotTo   *time.Time

	Day *Date

	Threshold *Threshold
}

var validAggregations = map[Aggregation]bool{
	AggCountVideos:                    true,
	AggSumFinal:                       true,
	AggSumDelta:                       true,
	AggCountDistinctVideosWithDeltaGt: true,
	AggCountSnapshotsWithDeltaLt0:     true,
	AggCountDistinctCreatorsFinalGt:   true,
	AggCountDistinctPublishDays:       true,
}

var validMetrics = map[Metric]bool{
	MetricViews:    true,
	MetricLikes:    true,
	MetricComments: true,
	MetricReports:  true,
}

// queryDSLJSON - промежуточная форма для разбора JSON-ответа LLM
type queryDSLJSON struct {
	Aggregation   string         `json:"aggregation"`
	Metric        *string        `json:"metric"`
	CreatorID     *string        `json:"creator_id"`
	PublishedFrom *string        `json:"published_from"`
	PublishedTo   *string        `json:"published_to"`
	SnapshotFrom  *string        `json:"snapshot_from"`
	SnapshotTo    *string        `json:"snapshot_to"`
	Day           *string        `json:"day"`
	Threshold     *thresholdJSON `json:"threshold"`
}

type thresholdJSON struct {
	Metric string `json:"metric"`
	Op     string `json:"op"`
	Value  int64  `json:"value"`
}

func parseInstant(s string) (*time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u, nil
		}
	}
	return nil, fmt.Errorf("неверный формат даты-времени: %q", s)
}

// Decode разбирает JSON-объект в QueryDSL и валидирует его по схеме.
// Любое нарушение схемы возвращается как ошибка, а не как частичный результат.
func Decode(blob []byte) (*QueryDSL, error) {
	var raw queryDSLJSON
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("ошибка разбора JSON: %w", err)
	}

	agg := Aggregation(raw.Aggregation)
	if !validAggregations[agg] {
		return nil, fmt.Errorf("неизвестная агрегация: %q", raw.Aggregation)
	}

	q := &QueryDSL{Aggregation: agg}

	if raw.Metric != nil && *raw.Metric != "" {
		m := Metric(*raw.Metric)
		if !validMetrics[m] {
			return nil, fmt.Errorf("неизвестная метрика: %q", *raw.Metric)
		}
		q.Metric = m
	}

	if raw.CreatorID != nil {
		q.CreatorID = *raw.CreatorID
	}

	var err error
	if raw.PublishedFrom != nil && *raw.PublishedFrom != "" {
		if q.PublishedFrom, err = parseInstant(*raw.PublishedFrom); err != nil {
			return nil, err
		}
	}
	if raw.PublishedTo != nil && *raw.PublishedTo != "" {
		if q.PublishedTo, err = parseInstant(*raw.PublishedTo); err != nil {
			return nil, err
		}
	}
	if raw.SnapshotFrom != nil && *raw.SnapshotFrom != "" {
		if q.SnapshotFrom, err = parseInstant(*raw.SnapshotFrom); err != nil {
			return nil, err
		}
	}
	if raw.SnapshotTo != nil && *raw.SnapshotTo != "" {
		if q.SnapshotTo, err = parseInstant(*raw.SnapshotTo); err != nil {
			return nil, err
		}
	}

	if raw.Day != nil && *raw.Day != "" {
		t, err := time.Parse("2006-01-02", *raw.Day)
		if err != nil {
			return nil, fmt.Errorf("неверный формат day: %q", *raw.Day)
		}
		d := NewDate(t.Year(), t.Month(), t.Day())
		q.Day = &d
	}

	if raw.Threshold != nil {
		m := Metric(raw.Threshold.Metric)
		if !validMetrics[m] {
			return nil, fmt.Errorf("неизвестная метрика порога: %q", raw.Threshold.Metric)
		}
		if raw.Threshold.Value < 0 {
			return nil, fmt.Errorf("отрицательное значение порога: %d", raw.Threshold.Value)
		}
		q.Threshold = &Threshold{Metric: m, Op: raw.Threshold.Op, Value: raw.Threshold.Value}
	}

	return q, nil
}
