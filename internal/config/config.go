package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type CalendarProvider string

const (
	CalendarNone   CalendarProvider = "none"
	CalendarGoogle CalendarProvider = "google"
)

type Config struct {
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN,required"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
	AdminUserID      int64   `env:"ADMIN_USER"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Vault (content store)
	VaultPath string `env:"VAULT_PATH,required"`

	// Sessions
	SessionsFilePath    string        `env:"SESSIONS_FILE_PATH" envDefault:"data/sessions.json"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	TimeoutPollInterval time.Duration `env:"TIMEOUT_POLL_INTERVAL" envDefault:"1m"`

	// Reminders
	ReminderPollInterval time.Duration `env:"REMINDER_POLL_INTERVAL" envDefault:"5m"`

	// Calendar
	CalendarProvider        CalendarProvider `env:"CALENDAR_PROVIDER" envDefault:"none"`
	GoogleCalendarCredsPath string           `env:"GOOGLE_CALENDAR_CREDENTIALS_PATH" envDefault:"data/google_calendar.json"`
	GoogleCalendarIDs       []string         `env:"GOOGLE_CALENDAR_IDS" envSeparator:":" envDefault:"primary"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if cfg.SessionTTL <= 0 {
		log.Fatalf("SESSION_TTL must be a positive duration, got %v", cfg.SessionTTL)
	}
	return cfg
}
