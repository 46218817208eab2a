package nlp

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/user/video-analytics-bot/internal/dsl"
)

// Completer - клиент удалённого chat-completion API
type Completer interface {
	IsEnabled() bool
	Complete(ctx context.Context, system, user string) (string, error)
}

// Parser - оркестратор разбора: эвристики и LLM с гарантированным фолбэком
type Parser struct {
	llm Completer
}

// NewParser создаёт парсер; llm может быть nil (работа только на эвристиках)
func NewParser(llm Completer) *Parser {
	return &Parser{llm: llm}
}

// Resolve разбирает текст в QueryDSL. Никогда не возвращает nil:
// в худшем случае это count_videos без фильтров.
func (p *Parser) Resolve(ctx context.Context, text string) *dsl.QueryDSL {
	// Эти две агрегации LLM разбирает ненадёжно, поэтому эвристика всегда в приоритете
	if h := heuristicParse(text); h != nil &&
		(h.Aggregation == dsl.AggCountSnapshotsWithDeltaLt0 ||
			h.Aggregation == dsl.AggCountDistinctCreatorsFinalGt) {
		return h
	}

	if p.llm != nil && p.llm.IsEnabled() {
		if q, ok := p.resolveLLM(ctx, text); ok {
			return q
		}
		log.Printf("[NLP] LLM не дал валидный DSL, переход на эвристики")
	}

	if h := heuristicParse(text); h != nil {
		return h
	}

	log.Printf("[NLP] Фолбэк по умолчанию: count_videos")
	return &dsl.QueryDSL{Aggregation: dsl.AggCountVideos}
}

// resolveLLM спрашивает модель и валидирует ответ по схеме.
// Любой сбой (сеть, мусорный ответ, нарушение схемы) даёт (nil, false).
func (p *Parser) resolveLLM(ctx context.Context, text string) (*dsl.QueryDSL, bool) {
	raw, err := p.llm.Complete(ctx, SystemPrompt, text)
	if err != nil {
		log.Printf("[NLP] Ошибка запроса к LLM: %v", err)
		return nil, false
	}

	blob := extractJSONObject(raw)
	if blob == nil {
		log.Printf("[NLP] В ответе LLM не найден JSON-объект")
		return nil, false
	}

	q, err := dsl.Decode(blob)
	if err != nil {
		log.Printf("[NLP] Ответ LLM не прошёл валидацию схемы: %v", err)
		return nil, false
	}

	// Модель склонна выражать отрицательную дельту как count_videos
	// с порогом "< 0" вместо выделенной агрегации
	t := strings.ToLower(text)
	snapshotIntent := strings.Contains(t, "замер") || strings.Contains(t, "снапш") || strings.Contains(t, "за час")
	if snapshotIntent && q.Aggregation == dsl.AggCountVideos &&
		q.Threshold != nil && q.Threshold.Op == "lt" && q.Threshold.Value == 0 {
		return &dsl.QueryDSL{
			Aggregation: dsl.AggCountSnapshotsWithDeltaLt0,
			Metric:      q.Threshold.Metric,
			Day:         q.Day,
		}, true
	}

	return q, true
}

var (
	fenceOpenRe  = regexp.MustCompile("^```[a-zA-Z]*\n?")
	fenceCloseRe = regexp.MustCompile("```$")
)

// extractJSONObject вырезает JSON-объект из сырого ответа LLM:
// снимает обёртку из тройных кавычек и берёт срез от первой '{' до последней '}'
func extractJSONObject(raw string) []byte {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = fenceOpenRe.ReplaceAllString(s, "")
		s = fenceCloseRe.ReplaceAllString(strings.TrimSpace(s), "")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return nil
	}
	return []byte(s[start : end+1])
}
