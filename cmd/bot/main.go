package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/user/video-analytics-bot/internal/bot"
	"github.com/user/video-analytics-bot/internal/config"
	"github.com/user/video-analytics-bot/internal/handlers"
	"github.com/user/video-analytics-bot/internal/importer"
	"github.com/user/video-analytics-bot/internal/middleware"
	"github.com/user/video-analytics-bot/internal/nlp"
	"github.com/user/video-analytics-bot/internal/queries"
	"github.com/user/video-analytics-bot/internal/repository"
	"github.com/user/video-analytics-bot/internal/services/llm"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Bot.Token == "" {
		log.Fatal("Не задан BOT_TOKEN")
	}

	// Подключение к БД
	db, err := repository.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Ошибка подключения к БД: %v", err)
	}
	repo := repository.NewRepository(db)

	// Инициализация сервисов
	llmClient := llm.NewClient(cfg.LLM)
	parser := nlp.NewParser(llmClient)
	executor := queries.NewExecutor(repo)
	imp := importer.New(repo)

	// Автоимпорт при запуске, чтобы не задерживать старт бота
	if cfg.Import.Auto {
		go func() {
			log.Println("[Старт] Проверка импорта данных...")
			if _, err := imp.EnsureImported(cfg.Import.VideosJSONPath); err != nil {
				log.Printf("[Старт] Ошибка импорта: %v", err)
			}
		}()
	}

	// Cron-задачи
	c := cron.New(cron.WithLocation(time.UTC))

	// Проверка импорта — каждый час, идемпотентно
	if cfg.Import.Auto {
		_, err = c.AddFunc("0 * * * *", func() {
			log.Println("[Cron] Проверка импорта данных...")
			if _, err := imp.EnsureImported(cfg.Import.VideosJSONPath); err != nil {
				log.Printf("[Cron] Ошибка импорта: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Ошибка добавления cron-задачи импорта: %v", err)
		}
	}

	c.Start()
	defer c.Stop()

	// Служебный HTTP-сервер
	router := gin.Default()
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger())

	h := handlers.NewHandler(repo, parser, executor)
	router.GET("/healthz", h.Healthz)
	api := router.Group("/api")
	{
		api.GET("/stats", h.GetStats)
		api.POST("/query", h.Query)
	}

	go func() {
		log.Printf("[HTTP] Сервер запущен на порту %s", cfg.Server.Port)
		if err := router.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Ошибка запуска HTTP-сервера: %v", err)
		}
	}()

	// Telegram-бот
	tgBot, err := bot.New(cfg.Bot.Token, parser, executor)
	if err != nil {
		log.Fatalf("Ошибка инициализации бота: %v", err)
	}

	tgBot.Run(context.Background())
}
