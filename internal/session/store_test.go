package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"second-brain/internal/llm"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := NewStore(path, ttl)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreCRUD(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if _, ok := s.Get("u1"); ok {
		t.Fatal("expected no session before creation")
	}

	created := s.GetOrCreate("u1")
	if created.SenderID != "u1" {
		t.Fatalf("expected sender u1, got %s", created.SenderID)
	}
	if created.LastActivity.IsZero() {
		t.Fatal("expected LastActivity to be set on creation")
	}

	again := s.GetOrCreate("u1")
	if !again.LastActivity.Equal(created.LastActivity) {
		t.Fatal("GetOrCreate must not touch an existing session")
	}

	pending := "buy milk"
	updated, ok := s.Update("u1", Update{
		History:      []llm.Message{{Role: "user", Content: "buy milk"}},
		PendingInput: &pending,
	})
	if !ok {
		t.Fatal("Update of existing session must return true")
	}
	if updated.PendingInput != "buy milk" {
		t.Fatalf("expected pending input to be stored, got %q", updated.PendingInput)
	}
	if len(updated.History) != 1 {
		t.Fatalf("expected 1 history message, got %d", len(updated.History))
	}

	// Частичное обновление не затирает незатронутые поля
	partial, ok := s.Update("u1", Update{History: []llm.Message{
		{Role: "user", Content: "buy milk"},
		{Role: "assistant", Content: "task or idea?"},
	}})
	if !ok {
		t.Fatal("partial update failed")
	}
	if partial.PendingInput != "buy milk" {
		t.Fatalf("partial update must keep pending input, got %q", partial.PendingInput)
	}

	if !s.Delete("u1") {
		t.Fatal("Delete of existing session must return true")
	}
	if s.Delete("u1") {
		t.Fatal("second Delete must return false")
	}
}

func TestStoreUpdateUnknownSender(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if _, ok := s.Update("ghost", Update{History: []llm.Message{{Role: "user", Content: "hi"}}}); ok {
		t.Fatal("Update of unknown sender must return false")
	}
	if _, ok := s.Get("ghost"); ok {
		t.Fatal("Update must not create sessions as a side effect")
	}
}

func TestStoreCreateResetsSession(t *testing.T) {
	s := newTestStore(t, time.Hour)

	s.GetOrCreate("u1")
	pending := "old input"
	if _, ok := s.Update("u1", Update{PendingInput: &pending}); !ok {
		t.Fatal("Update failed")
	}

	fresh := s.Create("u1")
	if fresh.PendingInput != "" || len(fresh.History) != 0 {
		t.Fatal("Create must replace the session with a clean one")
	}
}

func TestStoreListAll(t *testing.T) {
	s := newTestStore(t, time.Hour)

	for i := 0; i < 3; i++ {
		s.GetOrCreate(fmt.Sprintf("u%d", i))
	}
	s.Delete("u1")

	all := s.ListAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}
	seen := make(map[string]bool)
	for _, sess := range all {
		seen[sess.SenderID] = true
	}
	if !seen["u0"] || !seen["u2"] {
		t.Fatalf("unexpected session set: %v", seen)
	}
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	s.GetOrCreate("chat42")
	pending := "call mom tomorrow"
	orig, ok := s.Update("chat42", Update{
		History: []llm.Message{
			{Role: "user", Content: "call mom tomorrow"},
			{Role: "assistant", Content: "when exactly?"},
		},
		PendingInput: &pending,
	})
	if !ok {
		t.Fatal("Update failed")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	restored, ok := reopened.Get("chat42")
	if !ok {
		t.Fatal("session not restored from disk")
	}
	if restored.PendingInput != "call mom tomorrow" {
		t.Fatalf("pending input lost: %q", restored.PendingInput)
	}
	if len(restored.History) != 2 {
		t.Fatalf("expected 2 history messages, got %d", len(restored.History))
	}
	if restored.History[1].Role != "assistant" || restored.History[1].Content != "when exactly?" {
		t.Fatalf("history mangled: %+v", restored.History[1])
	}
	if !restored.LastActivity.Equal(orig.LastActivity) {
		t.Fatalf("LastActivity drifted: %v vs %v", restored.LastActivity, orig.LastActivity)
	}
}

func TestStoreToolMessagesNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	s.GetOrCreate("u1")
	if _, ok := s.Update("u1", Update{History: []llm.Message{
		{Role: "user", Content: "hi"},
		{Role: "tool", Content: "{}", ToolCallID: "call_1"},
		{Role: "assistant", Content: "done"},
	}}); !ok {
		t.Fatal("Update failed")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	restored, _ := reopened.Get("u1")
	if len(restored.History) != 2 {
		t.Fatalf("tool messages must not survive persistence, got %d messages", len(restored.History))
	}
	for _, m := range restored.History {
		if m.Role == "tool" {
			t.Fatal("tool message leaked into snapshot")
		}
	}
}

func writeSessionsFile(t *testing.T, path string, sessions []persistedSession) {
	t.Helper()
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestStoreLoadSkipsExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	now := time.Now()
	writeSessionsFile(t, path, []persistedSession{
		{ID: "fresh", LastActivity: now.Add(-30 * time.Minute).UTC().Format(time.RFC3339Nano)},
		{ID: "stale", LastActivity: now.Add(-2 * time.Hour).UTC().Format(time.RFC3339Nano)},
		{ID: "edge", LastActivity: now.Add(-time.Hour).UTC().Format(time.RFC3339Nano)},
	})

	s, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	if _, ok := s.Get("fresh"); !ok {
		t.Fatal("session within TTL must be restored")
	}
	if _, ok := s.Get("stale"); ok {
		t.Fatal("session past TTL must be dropped at load")
	}
	// Ровно TTL — уже истекла
	if _, ok := s.Get("edge"); ok {
		t.Fatal("session aged exactly TTL must be dropped at load")
	}
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	s, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("corrupt file must not fail startup: %v", err)
	}
	defer s.Close()

	if got := len(s.ListAll()); got != 0 {
		t.Fatalf("expected empty store after corrupt file, got %d sessions", got)
	}
}

func TestStoreLoadSkipsBadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	writeSessionsFile(t, path, []persistedSession{
		{ID: "bad", LastActivity: "yesterday"},
		{ID: "good", LastActivity: time.Now().UTC().Format(time.RFC3339Nano)},
	})

	s, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	if _, ok := s.Get("bad"); ok {
		t.Fatal("session with unparseable timestamp must be skipped")
	}
	if _, ok := s.Get("good"); !ok {
		t.Fatal("valid session must survive a bad neighbor")
	}
}

func TestStoreLoadRemovesLeftoverTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")
	tempPath := path + tempSuffix
	if err := os.WriteFile(tempPath, []byte("partial write"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	s, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Fatal("leftover temp file must be removed at startup")
	}
}

func TestStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	s.GetOrCreate("u1")
	s.GetOrCreate("u2")
	s.Clear()

	if got := len(s.ListAll()); got != 0 {
		t.Fatalf("expected empty store after Clear, got %d", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if got := len(reopened.ListAll()); got != 0 {
		t.Fatalf("Clear must persist, got %d sessions after reopen", got)
	}
}

func TestStoreFlushWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := NewStore(path, time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	s.GetOrCreate("u1")
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("snapshot missing after Flush: %v", err)
	}
	var persisted []persistedSession
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != "u1" {
		t.Fatalf("unexpected snapshot contents: %+v", persisted)
	}
}

func TestStoreCloseIdempotent(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if err := s.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
