package telegram

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"second-brain/internal/agent"
	"second-brain/internal/llm"
	"second-brain/internal/session"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.NewStore(filepath.Join(t.TempDir(), "sessions.json"), time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newTestBot собирает бота без подключения к Telegram API
func newTestBot(store *session.Store, invoke InvokeFunc) *Bot {
	return &Bot{
		allowed: map[int64]bool{100: true},
		store:   store,
		invoke:  invoke,
	}
}

func incoming(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "tester"},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func TestHandleIncomingMessageUnauthorized(t *testing.T) {
	store := newTestStore(t)
	invoked := false
	bot := newTestBot(store, func(context.Context, string, string, []llm.Message) agent.Result {
		invoked = true
		return agent.Result{Success: true}
	})

	bot.handleIncomingMessage(context.Background(), incoming(999, 999, "hi"))

	if invoked {
		t.Fatal("unauthorized sender must not reach the agent")
	}
	if len(store.ListAll()) != 0 {
		t.Fatal("unauthorized sender must not get a session")
	}
}

func TestHandleIncomingMessageCompletedRunDeletesSession(t *testing.T) {
	store := newTestStore(t)
	bot := newTestBot(store, func(_ context.Context, message, recipient string, _ []llm.Message) agent.Result {
		if message != "buy milk" || recipient != "100" {
			t.Errorf("unexpected invocation: %q for %s", message, recipient)
		}
		return agent.Result{
			Success:     true,
			ToolsCalled: []string{llm.ToolVaultWrite, llm.ToolSendMessage},
		}
	})

	bot.handleIncomingMessage(context.Background(), incoming(100, 100, "buy milk"))

	if _, ok := store.Get("100"); ok {
		t.Fatal("session must be removed after a completed run")
	}
}

func TestHandleIncomingMessageClarificationKeepsSession(t *testing.T) {
	store := newTestStore(t)
	history := []llm.Message{
		{Role: "user", Content: "that thing"},
		{Role: "assistant", Content: "which thing?"},
	}
	bot := newTestBot(store, func(context.Context, string, string, []llm.Message) agent.Result {
		return agent.Result{
			Success:     true,
			ToolsCalled: []string{llm.ToolSendMessage},
			History:     history,
		}
	})

	bot.handleIncomingMessage(context.Background(), incoming(100, 100, "that thing"))

	sess, ok := store.Get("100")
	if !ok {
		t.Fatal("clarification must keep the session alive")
	}
	if sess.PendingInput != "that thing" {
		t.Fatalf("original message must be remembered, got %q", sess.PendingInput)
	}
	if len(sess.History) != 2 {
		t.Fatalf("agent history must be stored, got %d messages", len(sess.History))
	}
}

func TestHandleIncomingMessageSecondClarificationKeepsOriginalPending(t *testing.T) {
	store := newTestStore(t)
	clarify := func(context.Context, string, string, []llm.Message) agent.Result {
		return agent.Result{Success: true, ToolsCalled: []string{llm.ToolSendMessage}}
	}
	bot := newTestBot(store, clarify)

	bot.handleIncomingMessage(context.Background(), incoming(100, 100, "that thing"))
	// Ответ пользователя снова вызывает уточнение
	bot.handleIncomingMessage(context.Background(), incoming(100, 100, "the blue one"))

	sess, ok := store.Get("100")
	if !ok {
		t.Fatal("session must survive repeated clarifications")
	}
	if sess.PendingInput != "that thing" {
		t.Fatalf("pending input must stay the original message, got %q", sess.PendingInput)
	}
}

func TestHandleIncomingMessageFailureDeletesSession(t *testing.T) {
	store := newTestStore(t)
	bot := newTestBot(store, func(context.Context, string, string, []llm.Message) agent.Result {
		return agent.Result{Err: "provider down"}
	})

	bot.handleIncomingMessage(context.Background(), incoming(100, 100, "buy milk"))

	if _, ok := store.Get("100"); ok {
		t.Fatal("failed run must not leave a session behind")
	}
}

func TestHandleIncomingMessagePassesSessionHistory(t *testing.T) {
	store := newTestStore(t)
	store.GetOrCreate("100")
	pending := "that thing"
	if _, ok := store.Update("100", session.Update{
		History:      []llm.Message{{Role: "user", Content: "that thing"}},
		PendingInput: &pending,
	}); !ok {
		t.Fatal("Update failed")
	}

	var gotHistory []llm.Message
	bot := newTestBot(store, func(_ context.Context, _, _ string, history []llm.Message) agent.Result {
		gotHistory = history
		return agent.Result{Success: true, ToolsCalled: []string{llm.ToolVaultWrite}}
	})

	bot.handleIncomingMessage(context.Background(), incoming(100, 100, "the blue one"))

	if len(gotHistory) != 1 || gotHistory[0].Content != "that thing" {
		t.Fatalf("stored history must reach the agent: %+v", gotHistory)
	}
}
