package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"second-brain/internal/llm"
)

// RecoverFunc вызывает агента для разбора брошенного диалога
type RecoverFunc func(ctx context.Context, message, recipient string, history []llm.Message) error

// TimeoutChecker периодически проверяет сессии на протухание. Просроченные
// сессии без ожидаемого ответа удаляются молча; с ожидаемым ответом — сначала
// отдаются агенту на разбор.
type TimeoutChecker struct {
	store     *Store
	ttl       time.Duration
	interval  time.Duration
	recoverFn RecoverFunc

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewTimeoutChecker(store *Store, ttl, interval time.Duration, recoverFn RecoverFunc) *TimeoutChecker {
	return &TimeoutChecker{
		store:     store,
		ttl:       ttl,
		interval:  interval,
		recoverFn: recoverFn,
	}
}

// Start запускает проверку; повторный запуск — no-op
func (c *TimeoutChecker) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		log.Printf("⏰ Timeout checker already running")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cr := cron.New(cron.WithLocation(time.UTC))
	if _, err := cr.AddFunc(fmt.Sprintf("@every %s", c.interval), func() {
		c.CheckTimeouts(ctx)
	}); err != nil {
		cancel()
		return fmt.Errorf("schedule timeout checks: %w", err)
	}
	cr.Start()
	c.cron = cr
	c.ctx = ctx
	c.cancel = cancel
	log.Printf("⏰ Timeout checker started: ttl=%v, poll=%v", c.ttl, c.interval)
	return nil
}

// Stop останавливает таймер и дожидается завершения уже идущей проверки.
// Ожидание идет без мьютекса, чтобы не блокировать работающий тик.
// Повторная остановка — no-op.
func (c *TimeoutChecker) Stop() {
	c.mu.Lock()
	if c.cron == nil {
		c.mu.Unlock()
		return
	}
	cr := c.cron
	cancel := c.cancel
	c.cron = nil
	c.ctx = nil
	c.cancel = nil
	c.mu.Unlock()

	stopCtx := cr.Stop()
	<-stopCtx.Done()
	cancel()
	log.Printf("⏰ Timeout checker stopped")
}

func (c *TimeoutChecker) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cron != nil
}

// CheckTimeouts один проход по всем сессиям
func (c *TimeoutChecker) CheckTimeouts(ctx context.Context) {
	now := time.Now()
	for _, sess := range c.store.ListAll() {
		age := now.Sub(sess.LastActivity)
		if age < c.ttl {
			continue
		}
		if sess.PendingInput == "" {
			// Простой мусор: ничего не ждали, пользователю не о чем сообщать
			c.store.Delete(sess.SenderID)
			log.Printf("⏰ Expired idle session %s removed (age %v)", sess.SenderID, age)
			continue
		}
		log.Printf("⏰ Session %s timed out awaiting clarification (age %v)", sess.SenderID, age)
		c.handleTimeout(ctx, sess)
	}
}

// handleTimeout отдает зависшее сообщение агенту и удаляет сессию, если за
// время вызова в нее не пришел новый ответ пользователя
func (c *TimeoutChecker) handleTimeout(ctx context.Context, sess Session) {
	captured := sess.LastActivity

	message := fmt.Sprintf(
		"[SYSTEM: The user has not responded to your clarification question within %d minutes. "+
			"Please store the original message %q to the Inbox folder with a note that clarification "+
			"was requested but not received, and send a brief notification to the user that you've "+
			"saved it for later review.]",
		int(c.ttl.Minutes()), sess.PendingInput)

	if err := c.recoverFn(ctx, message, sess.SenderID, sess.History); err != nil {
		log.Printf("❌ Failed to handle timeout for %s: %v", sess.SenderID, err)
	}

	// Пока агент работал, пользователь мог ответить. Удаляем сессию только
	// если она не менялась с момента захвата — иначе затерли бы живой диалог.
	current, ok := c.store.Get(sess.SenderID)
	if !ok {
		return
	}
	if !current.LastActivity.Equal(captured) {
		log.Printf("⏰ Session %s was updated during timeout handling, keeping it", sess.SenderID)
		return
	}
	c.store.Delete(sess.SenderID)
}
