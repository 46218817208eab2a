package main

import (
	"flag"
	"log"

	"github.com/user/video-analytics-bot/internal/config"
	"github.com/user/video-analytics-bot/internal/importer"
	"github.com/user/video-analytics-bot/internal/repository"
)

// Разовый импорт данных из JSON-файла. Повторный запуск безопасен:
// записи обновляются по первичному ключу.
func main() {
	path := flag.String("file", "", "путь к JSON-файлу с видео (по умолчанию из конфигурации)")
	force := flag.Bool("force", false, "импортировать даже если данные уже загружены")
	flag.Parse()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	jsonPath := cfg.Import.VideosJSONPath
	if *path != "" {
		jsonPath = *path
	}
	if jsonPath == "" {
		log.Fatal("Не задан путь к JSON-файлу (флаг -file или VIDEOS_JSON_PATH)")
	}

	db, err := repository.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Ошибка подключения к БД: %v", err)
	}
	repo := repository.NewRepository(db)

	imp := importer.New(repo)
	if *force {
		if err := imp.ImportVideos(jsonPath); err != nil {
			log.Fatalf("Ошибка импорта: %v", err)
		}
		return
	}

	imported, err := imp.EnsureImported(jsonPath)
	if err != nil {
		log.Fatalf("Ошибка импорта: %v", err)
	}
	if !imported {
		log.Println("[Импорт] Данные уже загружены, импорт не требовался")
	}
}
