package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogEntry запись журнала взаимодействий
type LogEntry struct {
	Timestamp  time.Time
	Input      string
	StoredPath string
}

// AppendInteractionLog дописывает запись в дневной журнал под _system/logs
func (v *Vault) AppendInteractionLog(entry LogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	day := entry.Timestamp.UTC().Format("2006-01-02")
	logPath := filepath.Join(v.path, systemDir, logsDir, day+".md")

	var content string
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		content = fmt.Sprintf("# Interaction Log: %s\n", day)
	}
	content += formatLogEntry(entry)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open interaction log: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("append interaction log: %w", err)
	}
	return nil
}

func formatLogEntry(entry LogEntry) string {
	return fmt.Sprintf("\n---\n\n## %s\n\n**Input:** %q\n\n**Stored:** `%s`\n",
		entry.Timestamp.UTC().Format("15:04:05"), entry.Input, entry.StoredPath)
}
