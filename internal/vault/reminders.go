package vault

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const maxReminders = 50

// ReminderInfo напоминание, найденное при сканировании хранилища
type ReminderInfo struct {
	Filepath string
	Title    string
	Reminder ReminderData
	// DueAt абсолютное время срабатывания; нулевое для неразрешенных
	// календарных напоминаний
	DueAt time.Time
}

// ListDueReminders возвращает неотправленные напоминания со сроком не позже
// before; нулевое before снимает верхнюю границу и отдает все неотправленные.
// Календарные напоминания разрешаются через провайдер календаря; неразрешенные
// включаются в выдачу и сортируются после датированных.
func (v *Vault) ListDueReminders(ctx context.Context, before time.Time) ([]ReminderInfo, error) {
	var all []ReminderInfo
	for _, folder := range ActiveFolders {
		found, err := v.scanFolderForReminders(folder)
		if err != nil {
			// Папки может не быть, это не ошибка сканирования
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		all = append(all, found...)
	}

	var due []ReminderInfo
	for _, r := range all {
		if r.Reminder.Sent {
			continue
		}
		r.DueAt = v.resolveDueTime(ctx, r)
		if r.DueAt.IsZero() {
			// Календарная привязка без разрешенного времени
			if r.Reminder.CalendarEvent != "" {
				due = append(due, r)
			}
			continue
		}
		if before.IsZero() || !r.DueAt.After(before) {
			due = append(due, r)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].DueAt, due[j].DueAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})

	if len(due) > maxReminders {
		due = due[:maxReminders]
	}
	return due, nil
}

func (v *Vault) scanFolderForReminders(folder string) ([]ReminderInfo, error) {
	entries, err := os.ReadDir(filepath.Join(v.path, folder))
	if err != nil {
		return nil, err
	}
	var out []ReminderInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		rel := filepath.Join(folder, e.Name())
		data, err := os.ReadFile(filepath.Join(v.path, folder, e.Name()))
		if err != nil {
			log.Printf("⚠️ failed to read note %s: %v", rel, err)
			continue
		}
		content := string(data)
		rd, err := ParseReminder(content)
		if err != nil {
			log.Printf("⚠️ failed to parse reminder in %s: %v", rel, err)
			continue
		}
		if rd == nil {
			continue
		}
		title := extractTitle(content)
		if title == "" {
			title = strings.TrimSuffix(e.Name(), ".md")
		}
		out = append(out, ReminderInfo{Filepath: rel, Title: title, Reminder: *rd})
	}
	return out, nil
}

// resolveDueTime возвращает абсолютное время напоминания: явный due, либо
// время события календаря со смещением
func (v *Vault) resolveDueTime(ctx context.Context, r ReminderInfo) time.Time {
	if r.Reminder.Due != "" {
		t, err := time.Parse(time.RFC3339, r.Reminder.Due)
		if err != nil {
			log.Printf("⚠️ invalid due time %q in %s: %v", r.Reminder.Due, r.Filepath, err)
			return time.Time{}
		}
		return t
	}
	if r.Reminder.CalendarEvent == "" {
		return time.Time{}
	}
	ev, err := v.cal.FindEventByTitle(ctx, r.Reminder.CalendarEvent, time.Now())
	if err != nil {
		log.Printf("⚠️ calendar lookup failed for %q: %v", r.Reminder.CalendarEvent, err)
		return time.Time{}
	}
	if ev == nil || ev.Start.IsZero() {
		return time.Time{}
	}
	offset := 0
	if r.Reminder.Offset != nil {
		offset = *r.Reminder.Offset
	}
	return ev.Start.Add(time.Duration(offset) * time.Second)
}

// SetReminder ставит или обновляет напоминание на заметке
func (v *Vault) SetReminder(rel string, rd ReminderData) error {
	if rd.Due == "" && rd.CalendarEvent == "" {
		return fmt.Errorf("either due or calendar_event must be provided")
	}
	if rd.Due != "" {
		if _, err := time.Parse(time.RFC3339, rd.Due); err != nil {
			return fmt.Errorf("invalid due time %q: %w", rd.Due, err)
		}
	}
	rd.Sent = false
	rd.SentAt = ""
	return v.updateReminder(rel, rd)
}

// MarkSent помечает напоминание отправленным, сохраняя расписание
func (v *Vault) MarkSent(rel string) error {
	full, err := v.resolvePath(rel)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("read note %s: %w", rel, err)
	}
	existing, err := ParseReminder(string(data))
	if err != nil {
		return err
	}
	rd := ReminderData{}
	if existing != nil {
		rd = *existing
	}
	rd.Sent = true
	rd.SentAt = time.Now().UTC().Format(time.RFC3339)
	return v.updateReminder(rel, rd)
}

func (v *Vault) updateReminder(rel string, rd ReminderData) error {
	full, err := v.resolvePath(rel)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("read note %s: %w", rel, err)
	}
	updated, err := renderWithReminder(string(data), rd)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("write note %s: %w", rel, err)
	}
	return nil
}
