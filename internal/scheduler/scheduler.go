package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"second-brain/internal/vault"
)

// OnReminderDue обрабатывает одно просроченное напоминание
type OnReminderDue func(ctx context.Context, reminder vault.ReminderInfo) error

// Scheduler опрашивает хранилище на предмет просроченных напоминаний
type Scheduler struct {
	vault    *vault.Vault
	interval time.Duration
	onDue    OnReminderDue

	mu       sync.Mutex
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	checking bool
}

func New(v *vault.Vault, interval time.Duration, onDue OnReminderDue) *Scheduler {
	return &Scheduler{
		vault:    v,
		interval: interval,
		onDue:    onDue,
	}
}

// Start запускает опрос и сразу выполняет первую проверку.
// Повторный запуск — no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		log.Printf("📅 Reminder scheduler already running")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cr := cron.New(cron.WithLocation(time.UTC))
	if _, err := cr.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.CheckDueReminders(ctx)
	}); err != nil {
		cancel()
		return fmt.Errorf("schedule reminder checks: %w", err)
	}
	cr.Start()
	s.cron = cr
	s.ctx = ctx
	s.cancel = cancel
	log.Printf("📅 Reminder scheduler started: poll=%v", s.interval)

	go s.CheckDueReminders(ctx)
	return nil
}

// Stop останавливает таймер и дожидается завершения уже идущей проверки.
// Ждать нужно без мьютекса: работающей проверке он понадобится, чтобы
// завершиться. Повторная остановка — no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron == nil {
		s.mu.Unlock()
		return
	}
	cr := s.cron
	cancel := s.cancel
	s.cron = nil
	s.ctx = nil
	s.cancel = nil
	s.mu.Unlock()

	stopCtx := cr.Stop()
	<-stopCtx.Done()
	cancel()
	log.Printf("📅 Reminder scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// CheckDueReminders один цикл проверки. Одновременно выполняется не больше
// одной проверки: тик, пришедший во время работающей, пропускается целиком.
func (s *Scheduler) CheckDueReminders(ctx context.Context) {
	s.mu.Lock()
	if s.checking {
		s.mu.Unlock()
		log.Printf("📅 Reminder check already in progress, skipping tick")
		return
	}
	s.checking = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.checking = false
		s.mu.Unlock()
	}()

	reminders, err := s.vault.ListDueReminders(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Failed to list due reminders: %v", err)
		return
	}
	if len(reminders) == 0 {
		return
	}
	log.Printf("📅 Found %d due reminder(s)", len(reminders))

	for _, r := range reminders {
		// Ошибка одного напоминания не останавливает остальные; оно
		// останется неотправленным и попадет в следующий цикл
		if err := s.onDue(ctx, r); err != nil {
			log.Printf("❌ Failed to process reminder %s: %v", r.Filepath, err)
		}
	}
}
