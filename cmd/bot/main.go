package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"second-brain/internal/agent"
	"second-brain/internal/calendar"
	"second-brain/internal/config"
	"second-brain/internal/lifecycle"
	"second-brain/internal/llm"
	"second-brain/internal/scheduler"
	"second-brain/internal/session"
	"second-brain/internal/telegram"
	"second-brain/internal/vault"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx := context.Background()

	cal := newCalendarProvider(ctx, cfg)

	v := vault.New(cfg.VaultPath, cal)
	if err := v.Init(); err != nil {
		log.Fatalf("failed to init vault: %v", err)
	}

	store, err := session.NewStore(cfg.SessionsFilePath, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}

	factory := &llm.Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
	llmClient, err := factory.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	bot, err := telegram.New(cfg.TelegramBotToken, cfg.AllowedUsers, cfg.AdminUserID, store)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	invoker := agent.NewInvoker(llmClient, v, cal, bot, readSystemPrompt(cfg.SystemPromptPath))
	bot.SetInvoker(invoker.Invoke)

	timeouts := session.NewTimeoutChecker(store, cfg.SessionTTL, cfg.TimeoutPollInterval,
		func(ctx context.Context, message, recipient string, history []llm.Message) error {
			result := invoker.Invoke(ctx, message, recipient, history)
			if !result.Success {
				return errResult(result)
			}
			return nil
		})
	if err := timeouts.Start(); err != nil {
		log.Fatalf("failed to start timeout checker: %v", err)
	}

	reminders := scheduler.New(v, cfg.ReminderPollInterval,
		scheduler.NewDueHandler(v, adminRecipient(cfg), func(ctx context.Context, message, recipient string) error {
			result := invoker.Invoke(ctx, message, recipient, nil)
			if !result.Success {
				return errResult(result)
			}
			return nil
		}))
	if err := reminders.Start(); err != nil {
		log.Fatalf("failed to start reminder scheduler: %v", err)
	}

	go bot.Start(ctx)
	log.Printf("🤖 second-brain started, vault at %s", cfg.VaultPath)

	os.Exit(lifecycle.Wait(lifecycle.Options{
		StopBot:       bot.Stop,
		StopTimeouts:  timeouts.Stop,
		StopReminders: reminders.Stop,
		CloseStore:    store.Close,
	}))
}

func newCalendarProvider(ctx context.Context, cfg *config.Config) calendar.Provider {
	if cfg.CalendarProvider != config.CalendarGoogle {
		return calendar.NullProvider{}
	}
	p, err := calendar.NewGoogleProvider(ctx, cfg.GoogleCalendarCredsPath, cfg.GoogleCalendarIDs)
	if err != nil {
		log.Printf("⚠️ failed to init google calendar, falling back to null provider: %v", err)
		return calendar.NullProvider{}
	}
	log.Printf("📆 Google Calendar provider initialized")
	return p
}

// adminRecipient кому слать напоминания: админу, либо первому из allowlist
func adminRecipient(cfg *config.Config) string {
	id := cfg.AdminUserID
	if id == 0 && len(cfg.AllowedUsers) > 0 {
		id = cfg.AllowedUsers[0]
	}
	if id == 0 {
		log.Printf("⚠️ No admin or allowed users configured, reminders have no recipient")
	}
	return strconv.FormatInt(id, 10)
}

func readSystemPrompt(path string) string {
	if path == "" {
		return agent.DefaultSystemPrompt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s, using default: %v", path, err)
		return agent.DefaultSystemPrompt
	}
	return string(data)
}

func errResult(result agent.Result) error {
	if result.Err != "" {
		return errors.New(result.Err)
	}
	return errors.New("agent run failed")
}
