package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"second-brain/internal/calendar"
)

// ActiveFolders папки, в которых живут рабочие заметки (Archive и _system не сканируются)
var ActiveFolders = []string{"Inbox", "Tasks", "Ideas", "Projects", "Reference"}

const (
	ArchiveFolder = "Archive"
	systemDir     = "_system"
	logsDir       = "logs"
)

// Vault хранилище Markdown-заметок с YAML front matter
type Vault struct {
	path string
	cal  calendar.Provider
}

func New(path string, cal calendar.Provider) *Vault {
	if cal == nil {
		cal = calendar.NullProvider{}
	}
	return &Vault{path: path, cal: cal}
}

func (v *Vault) Path() string { return v.path }

// Init создает структуру папок хранилища
func (v *Vault) Init() error {
	dirs := append([]string{}, ActiveFolders...)
	dirs = append(dirs, ArchiveFolder, filepath.Join(systemDir, logsDir))
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(v.path, d), 0o755); err != nil {
			return fmt.Errorf("ensure vault dir %s: %w", d, err)
		}
	}
	return nil
}

// resolvePath превращает относительный путь в абсолютный, запрещая выход за пределы хранилища
func (v *Vault) resolvePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid filepath %q: outside of vault", rel)
	}
	return filepath.Join(v.path, cleaned), nil
}

// ReadNote читает заметку по относительному пути
func (v *Vault) ReadNote(rel string) (string, error) {
	full, err := v.resolvePath(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read note %s: %w", rel, err)
	}
	return string(data), nil
}

// ListNotes возвращает имена .md файлов в папке, отсортированные по имени
func (v *Vault) ListNotes(folder string) ([]string, error) {
	full, err := v.resolvePath(folder)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", folder, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
