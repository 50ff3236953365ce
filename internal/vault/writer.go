package vault

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// NoteMeta метаданные заметки для front matter
type NoteMeta struct {
	Created    time.Time
	Source     string
	Confidence *float64
	Tags       []string
}

type noteFrontmatter struct {
	Created    string   `yaml:"created"`
	Source     string   `yaml:"source,omitempty"`
	Confidence *float64 `yaml:"confidence,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
}

// WriteNote сохраняет новую заметку и возвращает ее относительный путь
func (v *Vault) WriteNote(folder, title, body string, meta NoteMeta) (string, error) {
	folderPath, err := v.resolvePath(folder)
	if err != nil {
		return "", err
	}
	if meta.Created.IsZero() {
		meta.Created = time.Now()
	}

	base := fmt.Sprintf("%s_%s.md", meta.Created.UTC().Format("2006-01-02"), generateSlug(title))
	name := resolveUniqueName(folderPath, base)

	content, err := formatNoteContent(title, body, meta)
	if err != nil {
		return "", err
	}
	full := filepath.Join(folderPath, name)
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}

	rel := filepath.Join(folder, name)
	log.Printf("📝 Note written: %s", rel)
	return rel, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugSpaces = regexp.MustCompile(`\s+`)

func generateSlug(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	if len(s) > 50 {
		s = s[:50]
	}
	if s == "" {
		s = "note"
	}
	return s
}

// resolveUniqueName добавляет числовой суффикс при коллизии имени
func resolveUniqueName(folderPath, base string) string {
	name := base
	for suffix := 1; ; suffix++ {
		if _, err := os.Stat(filepath.Join(folderPath, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s-%d.md", strings.TrimSuffix(base, ".md"), suffix)
	}
}

func formatNoteContent(title, body string, meta NoteMeta) (string, error) {
	fm := noteFrontmatter{
		Created:    meta.Created.UTC().Format(time.RFC3339),
		Source:     meta.Source,
		Confidence: meta.Confidence,
		Tags:       meta.Tags,
	}
	front, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	return fmt.Sprintf("---\n%s---\n\n# %s\n\n%s\n", front, title, body), nil
}
