package bot

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/video-analytics-bot/internal/dsl"
)

// Resolver - разбор текста вопроса в QueryDSL
type Resolver interface {
	Resolve(ctx context.Context, text string) *dsl.QueryDSL
}

// Runner - выполнение QueryDSL и получение числового ответа
type Runner interface {
	Execute(q *dsl.QueryDSL) int64
}

// greeting - ответ на /start
const greeting = `Привет! Я бот аналитики видео.

Задай вопрос о просмотрах, лайках, комментариях или жалобах, например:
- Сколько всего видео есть на платформе?
- Сколько видео опубликовал креатор с id <id> с 1 ноября 2025 по 5 ноября 2025 включительно?
- На сколько выросли просмотры всех видео 28 ноября 2025?

Ответом всегда будет одно число.`

// Bot - Telegram-бот, отвечающий числом на вопросы об аналитике
type Bot struct {
	api      *tgbotapi.BotAPI
	resolver Resolver
	runner   Runner
}

// New создаёт бота по токену
func New(token string, resolver Resolver, runner Runner) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("[Бот] Авторизован как @%s", api.Self.UserName)
	return &Bot{api: api, resolver: resolver, runner: runner}, nil
}

// Run запускает long polling до отмены контекста
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	log.Println("[Бот] Запущен long polling")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Println("[Бот] Остановлен")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			// Каждое сообщение обрабатывается независимо
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Бот] Паника при обработке сообщения %d: %v", msg.MessageID, r)
			b.reply(msg, "0")
		}
	}()

	text := strings.TrimSpace(msg.Text)
	var fromID int64
	if msg.From != nil {
		fromID = msg.From.ID
	}
	log.Printf("[Бот] Сообщение %d от %d в чате %d: %q",
		msg.MessageID, fromID, msg.Chat.ID, text)

	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.reply(msg, greeting)
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 150*time.Second)
	defer cancel()

	q := b.resolver.Resolve(ctx, text)
	value := b.runner.Execute(q)
	b.reply(msg, strconv.FormatInt(value, 10))
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		log.Printf("[Бот] Ошибка отправки ответа в чат %d: %v", msg.Chat.ID, err)
	}
}
