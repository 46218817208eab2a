package importer

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/user/video-analytics-bot/internal/models"
)

// Store - операции хранилища, нужные импортёру
type Store interface {
	CountVideos() (int64, error)
	CountVideoSnapshots() (int64, error)
	UpsertVideos(videos []models.Video) error
	UpsertVideoSnapshots(snapshots []models.VideoSnapshot) error
}

// DefaultBatchSize - размер пачки видео; пачка замеров в 20 раз больше
const DefaultBatchSize = 500

// Importer - идемпотентный импорт видео и замеров из JSON-файла
type Importer struct {
	store     Store
	batchSize int
}

// New создаёт импортёр с размером пачки по умолчанию
func New(store Store) *Importer {
	return &Importer{store: store, batchSize: DefaultBatchSize}
}

type snapshotDoc struct {
	ID                 *string `json:"id"`
	ViewsCount         int64   `json:"views_count"`
	LikesCount         int64   `json:"likes_count"`
	CommentsCount      int64   `json:"comments_count"`
	ReportsCount       int64   `json:"reports_count"`
	DeltaViewsCount    int64   `json:"delta_views_count"`
	DeltaLikesCount    int64   `json:"delta_likes_count"`
	DeltaCommentsCount int64   `json:"delta_comments_count"`
	DeltaReportsCount  int64   `json:"delta_reports_count"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type videoDoc struct {
	ID             string        `json:"id"`
	CreatorID      string        `json:"creator_id"`
	VideoCreatedAt string        `json:"video_created_at"`
	ViewsCount     int64         `json:"views_count"`
	LikesCount     int64         `json:"likes_count"`
	CommentsCount  int64         `json:"comments_count"`
	ReportsCount   int64         `json:"reports_count"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
	Snapshots      []snapshotDoc `json:"snapshots"`
}

type document struct {
	Videos []videoDoc `json:"videos"`
}

// parseTime разбирает ISO8601-метку времени
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("неверный формат времени: %q", s)
}

func readDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// countExpected считает записи файла, которые импорт реально запишет:
// видео с нечитаемым UUID пропускаются вместе со своими замерами
func countExpected(doc *document) (int64, int64) {
	var videos, snapshots int64
	for _, v := range doc.Videos {
		if _, err := uuid.Parse(v.ID); err != nil {
			continue
		}
		videos++
		for _, s := range v.Snapshots {
			if s.ID != nil {
				snapshots++
			}
		}
	}
	return videos, snapshots
}

// EnsureImported выполняет импорт только если таблицы содержат меньше строк,
// чем ожидается по файлу. Возвращает true если импорт был выполнен.
func (im *Importer) EnsureImported(path string) (bool, error) {
	var expectedVideos, expectedSnapshots int64 = -1, -1
	doc, err := readDocument(path)
	if err != nil {
		log.Printf("[Импорт] Не удалось прочитать ожидаемые значения из %s: %v", path, err)
	} else {
		expectedVideos, expectedSnapshots = countExpected(doc)
	}

	videosCount, vErr := im.store.CountVideos()
	snapshotsCount, sErr := im.store.CountVideoSnapshots()
	if vErr != nil || sErr != nil {
		log.Printf("[Импорт] Проверка счётчиков не удалась (videos: %v, snapshots: %v), импортирую", vErr, sErr)
		return true, im.ImportVideos(path)
	}

	if expectedVideos >= 0 && expectedSnapshots >= 0 {
		if videosCount >= expectedVideos && snapshotsCount >= expectedSnapshots {
			log.Printf("[Импорт] Пропуск: в БД %d видео и %d замеров, ожидается %d и %d",
				videosCount, snapshotsCount, expectedVideos, expectedSnapshots)
			return false, nil
		}
		log.Printf("[Импорт] Требуется импорт: в БД %d видео и %d замеров, ожидается %d и %d",
			videosCount, snapshotsCount, expectedVideos, expectedSnapshots)
		return true, im.ImportVideos(path)
	}

	if videosCount > 0 && snapshotsCount > 0 {
		log.Printf("[Импорт] Пропуск: в БД уже есть %d видео и %d замеров", videosCount, snapshotsCount)
		return false, nil
	}

	log.Printf("[Импорт] Требуется импорт: в БД %d видео и %d замеров", videosCount, snapshotsCount)
	return true, im.ImportVideos(path)
}

// ImportVideos выполняет UPSERT-импорт видео и замеров пачками.
// Повторный запуск по тем же данным не создаёт дублей.
func (im *Importer) ImportVideos(path string) error {
	log.Printf("[Импорт] Старт импорта из %s, размер пачки %d", path, im.batchSize)

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	if len(doc.Videos) == 0 {
		log.Printf("[Импорт] В файле %s нет видео", path)
		return nil
	}

	var videoBatch []models.Video
	var snapshotBatch []models.VideoSnapshot
	var importedVideos, importedSnapshots int

	flushVideos := func() error {
		if len(videoBatch) == 0 {
			return nil
		}
		if err := im.store.UpsertVideos(videoBatch); err != nil {
			return err
		}
		importedVideos += len(videoBatch)
		videoBatch = videoBatch[:0]
		return nil
	}
	flushSnapshots := func() error {
		if len(snapshotBatch) == 0 {
			return nil
		}
		if err := im.store.UpsertVideoSnapshots(snapshotBatch); err != nil {
			return err
		}
		importedSnapshots += len(snapshotBatch)
		snapshotBatch = snapshotBatch[:0]
		return nil
	}

	for _, v := range doc.Videos {
		videoID, err := uuid.Parse(v.ID)
		if err != nil {
			// Нечитаемый id — запись пропускается целиком
			continue
		}

		videoCreatedAt, err := parseTime(v.VideoCreatedAt)
		if err != nil {
			return err
		}
		createdAt, err := parseTime(v.CreatedAt)
		if err != nil {
			return err
		}
		updatedAt, err := parseTime(v.UpdatedAt)
		if err != nil {
			return err
		}

		videoBatch = append(videoBatch, models.Video{
			ID:             videoID,
			CreatorID:      v.CreatorID,
			VideoCreatedAt: videoCreatedAt,
			ViewsCount:     v.ViewsCount,
			LikesCount:     v.LikesCount,
			CommentsCount:  v.CommentsCount,
			ReportsCount:   v.ReportsCount,
			CreatedAt:      createdAt,
			UpdatedAt:      updatedAt,
		})

		for _, s := range v.Snapshots {
			if s.ID == nil {
				continue
			}
			snapCreatedAt, err := parseTime(s.CreatedAt)
			if err != nil {
				return err
			}
			snapUpdatedAt, err := parseTime(s.UpdatedAt)
			if err != nil {
				return err
			}
			snapshotBatch = append(snapshotBatch, models.VideoSnapshot{
				ID:                 *s.ID,
				VideoID:            videoID,
				ViewsCount:         s.ViewsCount,
				LikesCount:         s.LikesCount,
				CommentsCount:      s.CommentsCount,
				ReportsCount:       s.ReportsCount,
				DeltaViewsCount:    s.DeltaViewsCount,
				DeltaLikesCount:    s.DeltaLikesCount,
				DeltaCommentsCount: s.DeltaCommentsCount,
				DeltaReportsCount:  s.DeltaReportsCount,
				CreatedAt:          snapCreatedAt,
				UpdatedAt:          snapUpdatedAt,
			})
		}

		if len(videoBatch) >= im.batchSize {
			if err := flushVideos(); err != nil {
				return err
			}
		}

		if len(snapshotBatch) >= im.batchSize*20 {
			// Видео пишутся раньше своих замеров
			if err := flushVideos(); err != nil {
				return err
			}
			if err := flushSnapshots(); err != nil {
				return err
			}
		}
	}

	if err := flushVideos(); err != nil {
		return err
	}
	if err := flushSnapshots(); err != nil {
		return err
	}

	log.Printf("[Импорт] Готово: %d видео, %d замеров", importedVideos, importedSnapshots)
	return nil
}
