package main

import (
	"context"
	"log"
	"time"

	"github.com/user/video-analytics-bot/internal/config"
	"github.com/user/video-analytics-bot/internal/nlp"
	"github.com/user/video-analytics-bot/internal/queries"
	"github.com/user/video-analytics-bot/internal/repository"
	"github.com/user/video-analytics-bot/internal/services/llm"
)

// Контрольные вопросы, покрывающие основные типы агрегаций
var questions = []string{
	"Сколько всего видео есть на платформе?",
	"Сколько видео опубликовал креатор с id aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa с 1 ноября 2025 по 5 ноября 2025 включительно?",
	"На сколько выросли просмотры всех видео 28 ноября 2025?",
	"Сколько разных видео получали новые лайки 27 ноября 2025?",
	"Сколько видео набрали больше 100 000 просмотров?",
}

// Прогон контрольных вопросов через разбор и выполнение запросов.
// Используется для ручной проверки на живой БД.
func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := repository.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Ошибка подключения к БД: %v", err)
	}
	repo := repository.NewRepository(db)

	parser := nlp.NewParser(llm.NewClient(cfg.LLM))
	executor := queries.NewExecutor(repo)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, question := range questions {
		q := parser.Resolve(ctx, question)
		value := executor.Execute(q)
		log.Printf("[Проверка] %q -> %s = %d", question, q.Aggregation, value)
	}
}
