package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config - основная конфигурация приложения
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Bot      BotConfig      `yaml:"bot"`
	Import   ImportConfig   `yaml:"import"`
	LLM      LLMConfig      `yaml:"llm"`
}

// ServerConfig - настройки HTTP-сервера
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// BotConfig - настройки Telegram-бота
type BotConfig struct {
	Token string `yaml:"token"`
}

// ImportConfig - настройки импорта JSON с видео
type ImportConfig struct {
	VideosJSONPath string `yaml:"videos_json_path"`
	Auto           bool   `yaml:"auto"`
}

// LLMConfig - настройки OpenRouter-совместимого LLM API
type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	FallbackModel  string `yaml:"fallback_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RequestsPerMin int    `yaml:"requests_per_min"`
}

// DefaultLLMBaseURL - OpenRouter endpoint (OpenAI-совместимый)
const DefaultLLMBaseURL = "https://openrouter.ai/api/v1"

// Load загружает конфигурацию из YAML-файла с переопределением из окружения.
// Отсутствие файла не является ошибкой: допускается запуск только на env.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Переопределение из переменных окружения
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("VIDEOS_JSON_PATH"); v != "" {
		cfg.Import.VideosJSONPath = v
	}
	if v := os.Getenv("AUTO_IMPORT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Import.Auto = b
		}
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("OPENROUTER_FALLBACK_MODEL"); v != "" {
		cfg.LLM.FallbackModel = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.TimeoutSeconds = n
		}
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		cfg.LLM.TimeoutSeconds = 120
	}

	return &cfg, nil
}
