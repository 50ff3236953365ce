package session

import (
	"time"

	"second-brain/internal/llm"
)

// Session состояние диалога одного отправителя
type Session struct {
	SenderID     string
	History      []llm.Message
	LastActivity time.Time
	// PendingInput исходное сообщение пользователя, если агент задал
	// уточняющий вопрос и ждет ответа; пустая строка — ничего не ждем
	PendingInput string
}

// Update частичное обновление сессии; nil-поля не трогаются
type Update struct {
	History      []llm.Message
	PendingInput *string
}

// persistedSession сериализованная форма для снапшота на диске
type persistedSession struct {
	ID           string             `json:"id"`
	History      []persistedMessage `json:"history,omitempty"`
	LastActivity string             `json:"lastActivity"`
	PendingInput string             `json:"pendingInput,omitempty"`
}

type persistedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s Session) toPersisted() persistedSession {
	out := persistedSession{
		ID:           s.SenderID,
		LastActivity: s.LastActivity.UTC().Format(time.RFC3339Nano),
		PendingInput: s.PendingInput,
	}
	for _, m := range s.History {
		// Служебные tool-сообщения в снапшот не попадают
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		out.History = append(out.History, persistedMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (p persistedSession) toSession() (Session, error) {
	ts, err := time.Parse(time.RFC3339Nano, p.LastActivity)
	if err != nil {
		return Session{}, err
	}
	s := Session{
		SenderID:     p.ID,
		LastActivity: ts,
		PendingInput: p.PendingInput,
	}
	for _, m := range p.History {
		s.History = append(s.History, llm.Message{Role: m.Role, Content: m.Content})
	}
	return s, nil
}

func copySession(s Session) Session {
	out := s
	out.History = append([]llm.Message(nil), s.History...)
	return out
}
