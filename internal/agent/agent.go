package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"second-brain/internal/calendar"
	"second-brain/internal/llm"
	"second-brain/internal/vault"
)

const (
	// MaxTurns максимальное число циклов tool-вызовов за один запуск
	MaxTurns = 10

	sourceName = "telegram"
)

// Messenger отправляет текст получателю
type Messenger interface {
	SendText(recipient, text string) error
}

// Result итог одного запуска агента
type Result struct {
	Success     bool
	ToolsCalled []string
	History     []llm.Message
	Err         string
}

// RequestedClarification агент задал уточняющий вопрос: написал пользователю,
// но ничего не сохранил в хранилище
func (r Result) RequestedClarification() bool {
	sent, stored := false, false
	for _, t := range r.ToolsCalled {
		switch t {
		case llm.ToolSendMessage:
			sent = true
		case llm.ToolVaultWrite:
			stored = true
		}
	}
	return r.Success && sent && !stored
}

// Invoker запускает LLM с инструментами хранилища и исполняет их вызовы
type Invoker struct {
	client       llm.Client
	vault        *vault.Vault
	cal          calendar.Provider
	messenger    Messenger
	systemPrompt string
}

func NewInvoker(client llm.Client, v *vault.Vault, cal calendar.Provider, messenger Messenger, systemPrompt string) *Invoker {
	if cal == nil {
		cal = calendar.NullProvider{}
	}
	return &Invoker{
		client:       client,
		vault:        v,
		cal:          cal,
		messenger:    messenger,
		systemPrompt: systemPrompt,
	}
}

// Invoke обрабатывает одно сообщение: гоняет LLM по циклу tool-вызовов,
// пока она не выдаст финальный ответ или не исчерпает MaxTurns
func (a *Invoker) Invoke(ctx context.Context, userMessage, recipient string, history []llm.Message) Result {
	log.Printf("🤖 Agent run for %s (history: %d messages)", recipient, len(history))

	var toolsCalled []string
	newHistory := append([]llm.Message(nil), history...)
	newHistory = append(newHistory, llm.Message{Role: "user", Content: userMessage})

	msgs := a.buildContext(history, userMessage)

	var assistantText string
	for turn := 0; turn < MaxTurns; turn++ {
		resp, err := a.client.GenerateWithTools(ctx, msgs, llm.GetVaultTools())
		if err != nil {
			log.Printf("❌ Agent run failed: %v", err)
			return Result{ToolsCalled: toolsCalled, History: newHistory, Err: err.Error()}
		}

		if resp.Content != "" {
			if assistantText != "" {
				assistantText += "\n\n"
			}
			assistantText += resp.Content
		}

		if len(resp.ToolCalls) == 0 {
			if assistantText != "" {
				newHistory = append(newHistory, llm.Message{Role: "assistant", Content: assistantText})
			}
			log.Printf("🤖 Agent run completed, tools called: %v", toolsCalled)
			return Result{Success: true, ToolsCalled: toolsCalled, History: newHistory}
		}

		msgs = append(msgs, llm.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, tc := range resp.ToolCalls {
			toolsCalled = append(toolsCalled, tc.Function.Name)
			out := a.executeTool(ctx, tc, recipient)
			msgs = append(msgs, llm.Message{
				Role:       "tool",
				Content:    out,
				ToolCallID: tc.ID,
				Name:       tc.Function.Name,
			})
		}
	}

	log.Printf("❌ Agent run exceeded %d turns", MaxTurns)
	return Result{ToolsCalled: toolsCalled, History: newHistory, Err: fmt.Sprintf("agent exceeded %d turns", MaxTurns)}
}

// buildContext собирает контекст запроса: системный промпт, предыдущий
// диалог и текущее сообщение
func (a *Invoker) buildContext(history []llm.Message, userMessage string) []llm.Message {
	var msgs []llm.Message
	if a.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: a.systemPrompt})
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: "user", Content: userMessage})
	return msgs
}

// executeTool исполняет один tool-вызов; результат уходит обратно в LLM
func (a *Invoker) executeTool(ctx context.Context, tc llm.ToolCall, recipient string) string {
	args := tc.Function.Arguments
	switch tc.Function.Name {
	case llm.ToolVaultWrite:
		meta := vault.NoteMeta{Created: time.Now(), Source: sourceName, Tags: stringSlice(args["tags"])}
		rel, err := a.vault.WriteNote(argString(args, "folder"), argString(args, "title"), argString(args, "body"), meta)
		if err != nil {
			return toolError(err)
		}
		return fmt.Sprintf("Note saved to %s", rel)

	case llm.ToolVaultRead:
		content, err := a.vault.ReadNote(argString(args, "filepath"))
		if err != nil {
			return toolError(err)
		}
		return content

	case llm.ToolVaultList:
		names, err := a.vault.ListNotes(argString(args, "folder"))
		if err != nil {
			return toolError(err)
		}
		if len(names) == 0 {
			return "(folder is empty)"
		}
		return strings.Join(names, "\n")

	case llm.ToolVaultMove:
		rel, err := a.vault.MoveNote(argString(args, "source"), argString(args, "destination"))
		if err != nil {
			return toolError(err)
		}
		return fmt.Sprintf("Note moved to %s", rel)

	case llm.ToolVaultSetReminder:
		rd := vault.ReminderData{
			Due:           argString(args, "due"),
			CalendarEvent: argString(args, "calendar_event"),
		}
		if off, ok := argInt(args, "offset"); ok {
			rd.Offset = &off
		}
		if err := a.vault.SetReminder(argString(args, "filepath"), rd); err != nil {
			return toolError(err)
		}
		return "Reminder set"

	case llm.ToolVaultListReminders:
		var before time.Time
		if raw := argString(args, "due_before"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return toolError(fmt.Errorf("invalid due_before %q: %w", raw, err))
			}
			before = t
		}
		reminders, err := a.vault.ListDueReminders(ctx, before)
		if err != nil {
			return toolError(err)
		}
		if len(reminders) == 0 {
			return "(no pending reminders)"
		}
		var b strings.Builder
		for _, r := range reminders {
			due := r.Reminder.Due
			if due == "" {
				due = "(calendar-linked)"
			}
			fmt.Fprintf(&b, "%s — %s, due %s\n", r.Filepath, r.Title, due)
		}
		return b.String()

	case llm.ToolCalendarList:
		from, to, err := calendarRange(argString(args, "range"), argString(args, "from"), argString(args, "to"))
		if err != nil {
			return toolError(err)
		}
		events, err := a.cal.ListEvents(ctx, from, to)
		if err != nil {
			return toolError(err)
		}
		if len(events) == 0 {
			return "(no events in range)"
		}
		var b strings.Builder
		for _, ev := range events {
			fmt.Fprintf(&b, "%s — %s", ev.Start.Format(time.RFC3339), ev.Title)
			if ev.Location != "" {
				fmt.Fprintf(&b, " @ %s", ev.Location)
			}
			b.WriteString("\n")
		}
		return b.String()

	case llm.ToolSendMessage:
		if err := a.messenger.SendText(recipient, argString(args, "text")); err != nil {
			return toolError(err)
		}
		return "Message sent"

	case llm.ToolLogInteraction:
		entry := vault.LogEntry{
			Timestamp:  time.Now(),
			Input:      argString(args, "input"),
			StoredPath: argString(args, "stored_path"),
		}
		if err := a.vault.AppendInteractionLog(entry); err != nil {
			return toolError(err)
		}
		return "Interaction logged"

	default:
		return fmt.Sprintf("Error: unknown tool %q", tc.Function.Name)
	}
}

func toolError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// calendarRange превращает именованный период в абсолютные границы
func calendarRange(name, from, to string) (time.Time, time.Time, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch name {
	case "", "today":
		return startOfDay, startOfDay.AddDate(0, 0, 1), nil
	case "tomorrow":
		start := startOfDay.AddDate(0, 0, 1)
		return start, start.AddDate(0, 0, 1), nil
	case "this_week":
		daysUntilSunday := 7 - int(now.Weekday())
		end := startOfDay.AddDate(0, 0, daysUntilSunday+1)
		return now, end, nil
	case "custom":
		if from == "" || to == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("both from and to are required for custom range")
		}
		fromT, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from %q: %w", from, err)
		}
		toT, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to %q: %w", to, err)
		}
		if !fromT.Before(toT) {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be before to")
		}
		return fromT, toT, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown range %q", name)
	}
}

func argString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
