package lifecycle

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownTimeout предел на мягкую остановку, дальше процесс гасится силой
const ShutdownTimeout = 10 * time.Second

// Options что останавливать при завершении процесса
type Options struct {
	StopBot       func()
	StopTimeouts  func()
	StopReminders func()
	// CloseStore останавливает фоновую запись и сбрасывает финальный
	// снапшот сессий; его ошибка делает выход ненулевым
	CloseStore func() error
}

// Wait блокируется до SIGINT/SIGTERM, выполняет мягкую остановку и
// возвращает код выхода процесса
func Wait(opts Options) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	signal.Stop(sigCh)

	log.Printf("🛑 Graceful shutdown initiated (%v)", sig)

	done := make(chan int, 1)
	var once sync.Once
	go func() {
		code := shutdown(opts)
		once.Do(func() { done <- code })
	}()

	select {
	case code := <-done:
		return code
	case <-time.After(ShutdownTimeout):
		log.Printf("❌ Shutdown timeout after %v, forcing exit", ShutdownTimeout)
		return 1
	}
}

func shutdown(opts Options) int {
	if opts.StopBot != nil {
		log.Printf("🛑 Stopping message transport...")
		opts.StopBot()
	}
	if opts.StopTimeouts != nil {
		log.Printf("🛑 Stopping timeout checker...")
		opts.StopTimeouts()
	}
	if opts.StopReminders != nil {
		log.Printf("🛑 Stopping reminder scheduler...")
		opts.StopReminders()
	}
	if opts.CloseStore != nil {
		log.Printf("🛑 Flushing sessions...")
		if err := opts.CloseStore(); err != nil {
			log.Printf("❌ Failed to flush sessions on shutdown: %v", err)
			return 1
		}
	}
	log.Printf("✅ Graceful shutdown complete")
	return 0
}
