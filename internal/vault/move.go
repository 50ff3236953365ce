package vault

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MoveNote переносит заметку в другую папку хранилища и возвращает ее новый
// относительный путь. При переносе в Archive заметка получает отметку
// archived_at и исходную папку в front matter.
func (v *Vault) MoveNote(source, destination string) (string, error) {
	if !isVaultFolder(destination) {
		return "", fmt.Errorf("invalid destination folder %q", destination)
	}
	sourcePath, err := v.resolvePath(source)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("read note %s: %w", source, err)
	}

	if destination == ArchiveFolder {
		originalFolder := strings.Split(filepath.ToSlash(filepath.Clean(source)), "/")[0]
		updated, err := withArchivalMetadata(string(data), originalFolder)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(sourcePath, []byte(updated), 0o644); err != nil {
			return "", fmt.Errorf("write note %s: %w", source, err)
		}
	}

	name := filepath.Base(source)
	destPath := filepath.Join(v.path, destination, name)
	if err := os.Rename(sourcePath, destPath); err != nil {
		return "", fmt.Errorf("move note %s: %w", source, err)
	}

	rel := filepath.Join(destination, name)
	log.Printf("📦 Note moved: %s -> %s", source, rel)
	return rel, nil
}

func isVaultFolder(folder string) bool {
	if folder == ArchiveFolder {
		return true
	}
	for _, f := range ActiveFolders {
		if f == folder {
			return true
		}
	}
	return false
}

// withArchivalMetadata дописывает archived_at и original_folder в front matter
func withArchivalMetadata(content, originalFolder string) (string, error) {
	m, rest, err := parseFrontmatter(content)
	if err != nil {
		return "", err
	}
	if m == nil {
		m = map[string]interface{}{}
		rest = "\n\n" + strings.TrimPrefix(rest, "\n")
	}
	m["archived_at"] = time.Now().UTC().Format(time.RFC3339)
	m["original_folder"] = originalFolder

	front, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	return "---\n" + string(front) + "---" + rest, nil
}
