package scheduler

import (
	"context"
	"fmt"
	"log"

	"second-brain/internal/vault"
)

// RunFunc вызывает агента с сообщением для получателя
type RunFunc func(ctx context.Context, message, recipient string) error

// NewDueHandler собирает обработчик просроченного напоминания: агент
// составляет и отправляет уведомление, после чего напоминание помечается
// отправленным. При ошибке агента пометка не ставится — напоминание
// повторится в следующем цикле (доставка как минимум один раз).
func NewDueHandler(v *vault.Vault, recipient string, run RunFunc) OnReminderDue {
	return func(ctx context.Context, r vault.ReminderInfo) error {
		log.Printf("📅 Processing due reminder: %s (%s)", r.Title, r.Filepath)

		due := r.Reminder.Due
		if due == "" {
			due = "(calendar-linked)"
		}
		message := fmt.Sprintf(
			"[SYSTEM: Reminder due]\n"+
				"The following reminder is now due. Read the note and send a friendly reminder to the user.\n\n"+
				"Note: %s\nTitle: %s\nOriginal due time: %s",
			r.Filepath, r.Title, due)

		if err := run(ctx, message, recipient); err != nil {
			return fmt.Errorf("send reminder for %s: %w", r.Filepath, err)
		}
		if err := v.MarkSent(r.Filepath); err != nil {
			return fmt.Errorf("mark reminder sent for %s: %w", r.Filepath, err)
		}
		log.Printf("✅ Reminder sent and marked: %s", r.Filepath)
		return nil
	}
}
