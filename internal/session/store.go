package session

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"second-brain/internal/llm"
)

const tempSuffix = ".tmp"

// Store хранит сессии в памяти и асинхронно сбрасывает их в один JSON-файл.
// Память — источник истины для работающего процесса; диск догоняет следующей
// успешной записью. Файл принадлежит ровно одному процессу, межпроцессных
// блокировок нет.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	filePath string

	fileMu  sync.Mutex
	writeCh chan []byte
	done    chan struct{}
	wg      sync.WaitGroup

	// now подменяется в тестах
	now func() time.Time
}

// NewStore загружает сессии с диска и запускает фоновую запись снапшотов
func NewStore(filePath string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	s := &Store{
		sessions: make(map[string]Session),
		ttl:      ttl,
		filePath: filePath,
		writeCh:  make(chan []byte, 1),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	s.load()
	s.wg.Add(1)
	go s.writerLoop()
	return s, nil
}

// load читает снапшот с диска; любые проблемы с файлом дают пустое хранилище
func (s *Store) load() {
	// Хвост прерванной записи убираем до чтения
	tempPath := s.filePath + tempSuffix
	if _, err := os.Stat(tempPath); err == nil {
		if err := os.Remove(tempPath); err != nil {
			log.Printf("⚠️ failed to remove leftover temp file %s: %v", tempPath, err)
		}
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ failed to read sessions file, starting fresh: %v", err)
		}
		return
	}

	var persisted []persistedSession
	if err := json.Unmarshal(data, &persisted); err != nil {
		log.Printf("⚠️ sessions file is corrupt, starting fresh: %v", err)
		return
	}

	now := s.now()
	expired := 0
	for _, p := range persisted {
		sess, err := p.toSession()
		if err != nil {
			log.Printf("⚠️ skipping session %s with bad timestamp: %v", p.ID, err)
			continue
		}
		if now.Sub(sess.LastActivity) >= s.ttl {
			expired++
			continue
		}
		s.sessions[sess.SenderID] = sess
	}
	if len(s.sessions) > 0 || expired > 0 {
		log.Printf("💾 Sessions restored from file: %d active, %d expired", len(s.sessions), expired)
	}
}

// Get возвращает сессию без побочных эффектов
func (s *Store) Get(senderID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[senderID]
	if !ok {
		return Session{}, false
	}
	return copySession(sess), true
}

// GetOrCreate возвращает существующую сессию или создает новую
func (s *Store) GetOrCreate(senderID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[senderID]; ok {
		return copySession(sess)
	}
	return s.createLocked(senderID)
}

// Create создает сессию с чистого листа, перезаписывая существующую
func (s *Store) Create(senderID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(senderID)
}

func (s *Store) createLocked(senderID string) Session {
	sess := Session{SenderID: senderID, LastActivity: s.now()}
	s.sessions[senderID] = sess
	s.enqueueSaveLocked()
	return copySession(sess)
}

// Update сливает частичные изменения в сессию и продвигает LastActivity.
// Для неизвестного отправителя ничего не создает и возвращает false.
func (s *Store) Update(senderID string, upd Update) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[senderID]
	if !ok {
		return Session{}, false
	}
	if upd.History != nil {
		sess.History = append([]llm.Message(nil), upd.History...)
	}
	if upd.PendingInput != nil {
		sess.PendingInput = *upd.PendingInput
	}
	sess.LastActivity = s.now()
	s.sessions[senderID] = sess
	s.enqueueSaveLocked()
	return copySession(sess), true
}

// Delete удаляет сессию, если она есть
func (s *Store) Delete(senderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[senderID]; !ok {
		return false
	}
	delete(s.sessions, senderID)
	s.enqueueSaveLocked()
	return true
}

// ListAll возвращает снимок всех сессий; порядок не определен
func (s *Store) ListAll() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	return out
}

// Clear удаляет все сессии и записывает пустой снапшот
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]Session)
	s.enqueueSaveLocked()
}

// snapshotLocked сериализует все сессии; вызывается под s.mu
func (s *Store) snapshotLocked() []byte {
	persisted := make([]persistedSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		persisted = append(persisted, sess.toPersisted())
	}
	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		log.Printf("⚠️ failed to serialize sessions: %v", err)
		return nil
	}
	return data
}

// enqueueSaveLocked отдает свежий снапшот писателю; устаревший в очереди
// снапшот вытесняется — писать имеет смысл только последнее состояние
func (s *Store) enqueueSaveLocked() {
	data := s.snapshotLocked()
	if data == nil {
		return
	}
	for {
		select {
		case s.writeCh <- data:
			return
		default:
			select {
			case <-s.writeCh:
			default:
			}
		}
	}
}

func (s *Store) writerLoop() {
	defer s.wg.Done()
	for {
		select {
		case data := <-s.writeCh:
			if err := s.writeSnapshot(data); err != nil {
				log.Printf("⚠️ failed to persist sessions: %v", err)
			}
		case <-s.done:
			return
		}
	}
}

// writeSnapshot пишет снапшот во временный файл и атомарно переименовывает.
// На диске всегда либо предыдущий, либо новый полный снапшот.
func (s *Store) writeSnapshot(data []byte) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	tempPath := s.filePath + tempSuffix
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		if rmErr := os.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("⚠️ failed to clean up temp file: %v", rmErr)
		}
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Flush синхронно записывает текущее состояние; единственный путь, по
// которому ошибка персистентности возвращается вызывающему
func (s *Store) Flush() error {
	s.mu.Lock()
	data := s.snapshotLocked()
	s.mu.Unlock()
	if data == nil {
		return fmt.Errorf("failed to serialize sessions")
	}
	return s.writeSnapshot(data)
}

// Close останавливает фоновую запись и сбрасывает финальный снапшот
func (s *Store) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	s.wg.Wait()
	return s.Flush()
}
