package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/video-analytics-bot/internal/bot"
)

// Store - операции хранилища для служебных ручек
type Store interface {
	Ping() error
	CountVideos() (int64, error)
	CountVideoSnapshots() (int64, error)
}

// Handler - обработчики служебного HTTP API
type Handler struct {
	repo     Store
	resolver bot.Resolver
	runner   bot.Runner
}

// NewHandler создаёт новый обработчик
func NewHandler(repo Store, resolver bot.Resolver, runner bot.Runner) *Handler {
	return &Handler{repo: repo, resolver: resolver, runner: runner}
}

// Healthz проверяет доступность сервиса и БД
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.repo.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStats возвращает количество строк в таблицах
func (h *Handler) GetStats(c *gin.Context) {
	videos, err := h.repo.CountVideos()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	snapshots, err := h.repo.CountVideoSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos":          videos,
		"video_snapshots": snapshots,
	})
}

// QueryRequest - вопрос в свободной форме
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

// Query разбирает вопрос и возвращает числовой ответ вместе с
// промежуточным QueryDSL для отладки
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Требуется поле question"})
		return
	}

	q := h.resolver.Resolve(c.Request.Context(), req.Question)
	value := h.runner.Execute(q)

	c.JSON(http.StatusOK, gin.H{
		"answer": value,
		"query":  q,
	})
}
