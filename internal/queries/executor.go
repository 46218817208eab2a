package queries

import (
	"fmt"
	"log"
	"strings"

	"github.com/user/video-analytics-bot/internal/dsl"
)

// ScalarFetcher - выполнение агрегатного SQL с одним числовым результатом
type ScalarFetcher interface {
	FetchScalar(stmt string, args ...interface{}) (int64, error)
}

// Executor - компилятор QueryDSL в параметризованный SQL
type Executor struct {
	store ScalarFetcher
}

// NewExecutor создаёт новый исполнитель запросов
func NewExecutor(store ScalarFetcher) *Executor {
	return &Executor{store: store}
}

// metricColumn возвращает имя колонки final-метрики в таблице videos.
// Колонки берутся только из этой фиксированной таблицы, никогда из ввода.
func metricColumn(m dsl.Metric) string {
	switch m {
	case dsl.MetricLikes:
		return "likes_count"
	case dsl.MetricComments:
		return "comments_count"
	case dsl.MetricReports:
		return "reports_count"
	default:
		return "views_count"
	}
}

// deltaMetricColumn возвращает имя колонки delta-метрики в таблице video_snapshots
func deltaMetricColumn(m dsl.Metric) string {
	switch m {
	case dsl.MetricLikes:
		return "delta_likes_count"
	case dsl.MetricComments:
		return "delta_comments_count"
	case dsl.MetricReports:
		return "delta_reports_count"
	default:
		return "delta_views_count"
	}
}

// thresholdSQLOp переводит оператор порога в SQL.
// Нераспознанный оператор намеренно трактуется как "gt".
func thresholdSQLOp(op string) string {
	switch op {
	case "gte":
		return ">="
	case "lt":
		return "<"
	case "lte":
		return "<="
	default:
		return ">"
	}
}

func (e *Executor) metricOrViews(q *dsl.QueryDSL) dsl.Metric {
	if q.Metric == "" {
		return dsl.MetricViews
	}
	return q.Metric
}

// videoFilters собирает общие фильтры по таблице videos (креатор и диапазон публикации)
func videoFilters(q *dsl.QueryDSL) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	if q.CreatorID != "" {
		where = append(where, "creator_id = ?")
		args = append(args, q.CreatorID)
	}
	if q.PublishedFrom != nil {
		where = append(where, "video_created_at >= ?")
		args = append(args, *q.PublishedFrom)
	}
	if q.PublishedTo != nil {
		where = append(where, "video_created_at < ?")
		args = append(args, *q.PublishedTo)
	}
	return where, args
}

// Execute компилирует QueryDSL в SQL и возвращает число.
// Никогда не возвращает ошибку наружу: любой сбой логируется и даёт 0.
func (e *Executor) Execute(q *dsl.QueryDSL) int64 {
	result, err := e.run(q)
	if err != nil {
		log.Printf("[DSL] Ошибка выполнения агрегации %s: %v", q.Aggregation, err)
		return 0
	}
	return result
}

func (e *Executor) run(q *dsl.QueryDSL) (int64, error) {
	switch q.Aggregation {
	case dsl.AggCountVideos:
		where, args := videoFilters(q)
		if q.Threshold != nil {
			col := metricColumn(q.Threshold.Metric)
			where = append(where, fmt.Sprintf("%s %s ?", col, thresholdSQLOp(q.Threshold.Op)))
			args = append(args, q.Threshold.Value)
		}
		stmt := "SELECT count(*) FROM videos"
		if len(where) > 0 {
			stmt += " WHERE " + strings.Join(where, " AND ")
		}
		return e.fetch(q, stmt, args...)

	case dsl.AggSumFinal:
		col := metricColumn(e.metricOrViews(q))
		where, args := videoFilters(q)
		stmt := fmt.Sprintf("SELECT COALESCE(sum(%s), 0) FROM videos", col)
		if len(where) > 0 {
			stmt += " WHERE " + strings.Join(where, " AND ")
		}
		return e.fetch(q, stmt, args...)

	case dsl.AggSumDelta:
		col := deltaMetricColumn(e.metricOrViews(q))
		start, end, ok := snapshotWindow(q)
		if !ok {
			log.Printf("[DSL] sum_delta без дня и окна, возвращаю 0")
			return 0, nil
		}
		stmt := fmt.Sprintf(
			"SELECT COALESCE(sum(%s), 0) FROM video_snapshots WHERE created_at >= ? AND created_at < ?", col)
		return e.fetch(q, stmt, start, end)

	case dsl.AggCountDistinctVideosWithDeltaGt:
		col := deltaMetricColumn(e.metricOrViews(q))
		if q.Day == nil {
			log.Printf("[DSL] count_distinct_videos_with_delta_gt0 без дня, возвращаю 0")
			return 0, nil
		}
		start, end := q.Day.BoundsUTC()
		stmt := fmt.Sprintf(
			"SELECT count(DISTINCT video_id) FROM video_snapshots WHERE created_at >= ? AND created_at < ? AND %s > 0", col)
		return e.fetch(q, stmt, start, end)

	case dsl.AggCountSnapshotsWithDeltaLt0:
		col := deltaMetricColumn(e.metricOrViews(q))
		stmt := fmt.Sprintf("SELECT count(*) FROM video_snapshots WHERE %s < 0", col)
		var args []interface{}
		if q.Day != nil {
			start, end := q.Day.BoundsUTC()
			stmt += " AND created_at >= ? AND created_at < ?"
			args = append(args, start, end)
		}
		return e.fetch(q, stmt, args...)

	case dsl.AggCountDistinctCreatorsFinalGt:
		if q.Threshold == nil {
			log.Printf("[DSL] count_distinct_creators_with_final_gt без порога, возвращаю 0")
			return 0, nil
		}
		where, args := videoFilters(q)
		col := metricColumn(q.Threshold.Metric)
		where = append(where, fmt.Sprintf("%s %s ?", col, thresholdSQLOp(q.Threshold.Op)))
		args = append(args, q.Threshold.Value)
		stmt := "SELECT count(DISTINCT creator_id) FROM videos WHERE " + strings.Join(where, " AND ")
		return e.fetch(q, stmt, args...)

	case dsl.AggCountDistinctPublishDays:
		where, args := videoFilters(q)
		stmt := "SELECT count(DISTINCT date(video_created_at)) FROM videos"
		if len(where) > 0 {
			stmt += " WHERE " + strings.Join(where, " AND ")
		}
		return e.fetch(q, stmt, args...)
	}

	log.Printf("[DSL] Неизвестная агрегация %q, возвращаю 0", q.Aggregation)
	return 0, nil
}

// snapshotWindow возвращает границы окна по created_at для sum_delta:
// явное окно snapshot_from/snapshot_to, иначе сутки из day
func snapshotWindow(q *dsl.QueryDSL) (interface{}, interface{}, bool) {
	if q.SnapshotFrom != nil && q.SnapshotTo != nil {
		return *q.SnapshotFrom, *q.SnapshotTo, true
	}
	if q.Day != nil {
		start, end := q.Day.BoundsUTC()
		return start, end, true
	}
	return nil, nil, false
}

func (e *Executor) fetch(q *dsl.QueryDSL, stmt string, args ...interface{}) (int64, error) {
	result, err := e.store.FetchScalar(stmt, args...)
	if err != nil {
		return 0, err
	}
	log.Printf("[DSL] %s -> %d", q.Aggregation, result)
	return result, nil
}
