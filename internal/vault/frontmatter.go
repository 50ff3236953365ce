package vault

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReminderData блок reminder из front matter заметки
type ReminderData struct {
	Due           string `yaml:"due,omitempty" json:"due,omitempty"`
	CalendarEvent string `yaml:"calendar_event,omitempty" json:"calendar_event,omitempty"`
	Offset        *int   `yaml:"offset,omitempty" json:"offset,omitempty"`
	Sent          bool   `yaml:"sent" json:"sent"`
	SentAt        string `yaml:"sent_at,omitempty" json:"sent_at,omitempty"`
}

// splitFrontmatter отделяет YAML front matter от тела заметки.
// Возвращает ok=false если front matter отсутствует.
func splitFrontmatter(content string) (front, rest string, ok bool) {
	if !strings.HasPrefix(content, "---\n") {
		return "", content, false
	}
	end := strings.Index(content[4:], "\n---")
	if end < 0 {
		return "", content, false
	}
	front = content[4 : 4+end]
	rest = content[4+end+len("\n---"):]
	return front, rest, true
}

func parseFrontmatter(content string) (map[string]interface{}, string, error) {
	front, rest, ok := splitFrontmatter(content)
	if !ok {
		return nil, content, nil
	}
	m := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(front), &m); err != nil {
		return nil, rest, fmt.Errorf("parse front matter: %w", err)
	}
	return m, rest, nil
}

// ParseReminder извлекает блок reminder из заметки; nil если блока нет
func ParseReminder(content string) (*ReminderData, error) {
	m, _, err := parseFrontmatter(content)
	if err != nil || m == nil {
		return nil, err
	}
	raw, exists := m["reminder"]
	if !exists {
		return nil, nil
	}
	// Через повторный marshal, чтобы не разбирать map вручную
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode reminder block: %w", err)
	}
	var rd ReminderData
	if err := yaml.Unmarshal(data, &rd); err != nil {
		return nil, fmt.Errorf("decode reminder block: %w", err)
	}
	return &rd, nil
}

// renderWithReminder возвращает содержимое заметки с обновленным блоком reminder
func renderWithReminder(content string, rd ReminderData) (string, error) {
	m, rest, err := parseFrontmatter(content)
	if err != nil {
		return "", err
	}
	if m == nil {
		m = map[string]interface{}{}
		rest = "\n\n" + strings.TrimPrefix(rest, "\n")
	}
	m["reminder"] = rd

	front, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	return "---\n" + string(front) + "---" + rest, nil
}

// extractTitle возвращает первый H1 заголовок заметки, либо пустую строку
func extractTitle(content string) string {
	_, rest, ok := splitFrontmatter(content)
	if !ok {
		rest = content
	}
	for _, line := range strings.Split(rest, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}
