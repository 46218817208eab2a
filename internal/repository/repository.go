package repository

import (
	"database/sql"

	"github.com/user/video-analytics-bot/internal/config"
	"github.com/user/video-analytics-bot/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Repository - доступ к таблицам videos и video_snapshots
type Repository struct {
	db *gorm.DB
}

// NewPostgresDB создаёт подключение к PostgreSQL.
// Пул создаётся один раз на процесс и передаётся дальше явно.
func NewPostgresDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Автомиграция моделей
	if err := db.AutoMigrate(
		&models.Video{},
		&models.VideoSnapshot{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// NewRepository создаёт новый репозиторий
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ping проверяет доступность БД
func (r *Repository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// FetchScalar выполняет агрегатный запрос и возвращает одно целое число.
// Пустой результат и NULL трактуются как 0. Все значения передаются
// связанными параметрами, подстановка в текст запроса запрещена.
func (r *Repository) FetchScalar(stmt string, args ...interface{}) (int64, error) {
	row := r.db.Raw(stmt, args...).Row()
	var val sql.NullInt64
	if err := row.Scan(&val); err != nil {
		return 0, err
	}
	if !val.Valid {
		return 0, nil
	}
	return val.Int64, nil
}

// CountVideos возвращает количество строк в videos
func (r *Repository) CountVideos() (int64, error) {
	var n int64
	if err := r.db.Model(&models.Video{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CountVideoSnapshots возвращает количество строк в video_snapshots
func (r *Repository) CountVideoSnapshots() (int64, error) {
	var n int64
	if err := r.db.Model(&models.VideoSnapshot{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// UpsertVideos вставляет пачку видео с обновлением по первичному ключу
func (r *Repository) UpsertVideos(videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"creator_id", "video_created_at",
			"views_count", "likes_count", "comments_count", "reports_count",
			"created_at", "updated_at",
		}),
	}).Create(&videos).Error
}

// UpsertVideoSnapshots вставляет пачку замеров с обновлением по первичному ключу
func (r *Repository) UpsertVideoSnapshots(snapshots []models.VideoSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"video_id",
			"views_count", "likes_count", "comments_count", "reports_count",
			"delta_views_count", "delta_likes_count", "delta_comments_count", "delta_reports_count",
			"created_at", "updated_at",
		}),
	}).Create(&snapshots).Error
}
