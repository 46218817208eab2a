package models

import (
	"time"

	"github.com/google/uuid"
)

// Video - видео с накопленными (final) счётчиками
type Video struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID      string    `gorm:"size:64;index" json:"creator_id"`
	VideoCreatedAt time.Time `gorm:"index" json:"video_created_at"` // момент публикации
	ViewsCount     int64     `gorm:"not null;default:0" json:"views_count"`
	LikesCount     int64     `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount  int64     `gorm:"not null;default:0" json:"comments_count"`
	ReportsCount   int64     `gorm:"not null;default:0" json:"reports_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// VideoSnapshot - периодический замер счётчиков видео.
// Delta-поля знаковые: метрика может уменьшиться (например, отозванная жалоба).
type VideoSnapshot struct {
	ID                 string    `gorm:"size:64;primaryKey" json:"id"`
	VideoID            uuid.UUID `gorm:"type:uuid;index" json:"video_id"`
	ViewsCount         int64     `gorm:"not null;default:0" json:"views_count"`
	LikesCount         int64     `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount      int64     `gorm:"not null;default:0" json:"comments_count"`
	ReportsCount       int64     `gorm:"not null;default:0" json:"reports_count"`
	DeltaViewsCount    int64     `gorm:"not null;default:0" json:"delta_views_count"`
	DeltaLikesCount    int64     `gorm:"not null;default:0" json:"delta_likes_count"`
	DeltaCommentsCount int64     `gorm:"not null;default:0" json:"delta_comments_count"`
	DeltaReportsCount  int64     `gorm:"not null;default:0" json:"delta_reports_count"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
