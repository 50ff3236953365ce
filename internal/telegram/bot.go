package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"second-brain/internal/agent"
	"second-brain/internal/llm"
	"second-brain/internal/session"
)

// InvokeFunc запускает агента для одного входящего сообщения
type InvokeFunc func(ctx context.Context, message, recipient string, history []llm.Message) agent.Result

// Bot принимает сообщения из Telegram и гоняет их через сессии и агента.
// Сам пользователю не отвечает: текст наружу уходит только через
// send_message инструмент агента.
type Bot struct {
	api     *tgbotapi.BotAPI
	allowed map[int64]bool
	store   *session.Store
	invoke  InvokeFunc
}

func New(botToken string, allowedUsers []int64, adminID int64, store *session.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	allowed := make(map[int64]bool, len(allowedUsers))
	for _, id := range allowedUsers {
		allowed[id] = true
	}
	if adminID != 0 {
		allowed[adminID] = true
	}
	return &Bot{
		api:     api,
		allowed: allowed,
		store:   store,
	}, nil
}

// SetInvoker подключает агента; вызывается до Start
func (b *Bot) SetInvoker(invoke InvokeFunc) {
	b.invoke = invoke
}

// SendText реализует agent.Messenger: получатель — chat ID строкой
func (b *Bot) SendText(recipient, text string) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil && update.Message.Text != "" {
			b.handleIncomingMessage(ctx, update.Message)
		}
	}
}

// Stop прерывает цикл получения обновлений
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed[msg.From.ID] {
		log.Printf("Unauthorized access attempt by user ID: %d, username: @%s", msg.From.ID, msg.From.UserName)
		return
	}

	log.Printf("Incoming message from %d (@%s): %q", msg.From.ID, msg.From.UserName, msg.Text)

	senderID := strconv.FormatInt(msg.Chat.ID, 10)
	sess := b.store.GetOrCreate(senderID)
	pending := sess.PendingInput

	result := b.invoke(ctx, msg.Text, senderID, sess.History)

	switch {
	case !result.Success:
		log.Printf("❌ Agent failed for %s: %s", senderID, result.Err)
		b.store.Delete(senderID)

	case result.RequestedClarification():
		// Агент задал вопрос: держим сессию, помним исходное сообщение
		if pending == "" {
			pending = msg.Text
		}
		if _, ok := b.store.Update(senderID, session.Update{
			History:      result.History,
			PendingInput: &pending,
		}); !ok {
			log.Printf("⚠️ Session %s vanished during agent run", senderID)
		}

	default:
		// Диалог завершен, сессия больше не нужна
		b.store.Delete(senderID)
	}
}
