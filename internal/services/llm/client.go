package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/video-analytics-bot/internal/config"
)

// Client - клиент OpenRouter-совместимого chat-completion API
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	models     []string
	limiter    *rate.Limiter
	enabled    bool
}

// NewClient создаёт новый клиент LLM. Без ключа или модели клиент
// отключён: разбор пойдёт только по эвристикам.
func NewClient(cfg config.LLMConfig) *Client {
	if cfg.APIKey == "" || cfg.Model == "" {
		log.Println("[LLM] API ключ или модель не указаны, LLM клиент отключён")
		return &Client{enabled: false}
	}

	models := []string{cfg.Model}
	if fb := strings.TrimSpace(cfg.FallbackModel); fb != "" {
		models = append(models, fb)
	}

	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 60
	}

	log.Printf("[LLM] Клиент инициализирован, модели: %s, таймаут: %ds",
		strings.Join(models, ", "), cfg.TimeoutSeconds)

	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		models:     models,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
		enabled:    true,
	}
}

// IsEnabled возвращает true если клиент активен
func (c *Client) IsEnabled() bool {
	return c.enabled && c.apiKey != ""
}

// ChatMessage - сообщение в чате
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest - запрос к chat-completion API
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatResponse - ответ chat-completion API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete отправляет system и user сообщения и возвращает контент первого choice.
// Модели пробуются по порядку: основная, затем резервная; при отказе всех
// кандидатов возвращается последняя ошибка.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.IsEnabled() {
		return "", fmt.Errorf("LLM клиент не инициализирован")
	}

	if !c.limiter.Allow() {
		return "", fmt.Errorf("превышен лимит запросов к LLM")
	}

	var lastErr error
	for _, model := range c.models {
		log.Printf("[LLM] Запрос к модели %s", model)
		content, err := c.complete(ctx, model, system, user)
		if err != nil {
			lastErr = err
			log.Printf("[LLM] Модель %s не ответила: %v", model, err)
			continue
		}
		return content, nil
	}
	return "", lastErr
}

func (c *Client) complete(ctx context.Context, model, system, user string) (string, error) {
	req := ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		// Температура 0 для детерминированного JSON
		Temperature: 0,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ошибка API (статус %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("пустой список choices")
	}
	content := chatResp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("пустой ответ модели")
	}

	return content, nil
}
