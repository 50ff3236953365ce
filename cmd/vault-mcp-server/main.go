package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"second-brain/internal/calendar"
	"second-brain/internal/vault"
)

// WriteNoteParams параметры для сохранения заметки
type WriteNoteParams struct {
	Folder string   `json:"folder" mcp:"destination folder: Inbox, Tasks, Ideas, Projects or Reference"`
	Title  string   `json:"title" mcp:"short note title"`
	Body   string   `json:"body" mcp:"note content in markdown format"`
	Tags   []string `json:"tags,omitempty" mcp:"optional tags for the note"`
}

// ReadNoteParams параметры для чтения заметки
type ReadNoteParams struct {
	Filepath string `json:"filepath" mcp:"relative path of the note inside the vault"`
}

// ListNotesParams параметры для списка заметок
type ListNotesParams struct {
	Folder string `json:"folder" mcp:"folder to list: Inbox, Tasks, Ideas, Projects, Reference or Archive"`
}

// SetReminderParams параметры для установки напоминания
type SetReminderParams struct {
	Filepath      string `json:"filepath" mcp:"relative path of the note"`
	Due           string `json:"due,omitempty" mcp:"absolute reminder time in ISO 8601 (e.g. 2026-09-15T09:00:00Z)"`
	CalendarEvent string `json:"calendar_event,omitempty" mcp:"calendar event title to link the reminder to"`
	Offset        *int   `json:"offset,omitempty" mcp:"offset from the event in seconds, negative = before"`
	MarkSent      bool   `json:"mark_sent,omitempty" mcp:"if true, mark the reminder as sent instead of scheduling"`
}

// MoveNoteParams параметры для переноса заметки
type MoveNoteParams struct {
	Source      string `json:"source" mcp:"relative path of the note, e.g. Tasks/2026-01-10_follow-up.md"`
	Destination string `json:"destination" mcp:"destination folder: Inbox, Tasks, Ideas, Projects, Reference or Archive"`
}

// ListRemindersParams параметры для списка напоминаний
type ListRemindersParams struct {
	DueBefore string `json:"due_before,omitempty" mcp:"only reminders due before this ISO 8601 time (default: all unsent)"`
}

// ListEventsParams параметры для списка событий календаря
type ListEventsParams struct {
	From string `json:"from" mcp:"start of the range, ISO 8601"`
	To   string `json:"to" mcp:"end of the range, ISO 8601"`
}

// VaultMCPServer MCP сервер над хранилищем заметок
type VaultMCPServer struct {
	vault *vault.Vault
	cal   calendar.Provider
}

func (s *VaultMCPServer) WriteNote(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[WriteNoteParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("📝 MCP Server: writing note %q to %s", args.Title, args.Folder)

	meta := vault.NoteMeta{Created: time.Now(), Source: "mcp", Tags: args.Tags}
	rel, err := s.vault.WriteNote(args.Folder, args.Title, args.Body, meta)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to write note: %v", err)), nil
	}
	return textResult(fmt.Sprintf("✅ Note saved to %s", rel)), nil
}

func (s *VaultMCPServer) ReadNote(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ReadNoteParams]) (*mcp.CallToolResultFor[any], error) {
	content, err := s.vault.ReadNote(params.Arguments.Filepath)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to read note: %v", err)), nil
	}
	return textResult(content), nil
}

func (s *VaultMCPServer) ListNotes(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ListNotesParams]) (*mcp.CallToolResultFor[any], error) {
	names, err := s.vault.ListNotes(params.Arguments.Folder)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to list notes: %v", err)), nil
	}
	if len(names) == 0 {
		return textResult("(folder is empty)"), nil
	}
	return textResult(strings.Join(names, "\n")), nil
}

func (s *VaultMCPServer) MoveNote(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[MoveNoteParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("📦 MCP Server: moving note %s to %s", args.Source, args.Destination)

	rel, err := s.vault.MoveNote(args.Source, args.Destination)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to move note: %v", err)), nil
	}
	return textResult(fmt.Sprintf("✅ Note moved to %s", rel)), nil
}

func (s *VaultMCPServer) SetReminder(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[SetReminderParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	if args.MarkSent {
		if err := s.vault.MarkSent(args.Filepath); err != nil {
			return errorResult(fmt.Sprintf("❌ Failed to mark reminder sent: %v", err)), nil
		}
		return textResult(fmt.Sprintf("✅ Reminder marked sent for %s", args.Filepath)), nil
	}

	rd := vault.ReminderData{
		Due:           args.Due,
		CalendarEvent: args.CalendarEvent,
		Offset:        args.Offset,
	}
	if err := s.vault.SetReminder(args.Filepath, rd); err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to set reminder: %v", err)), nil
	}
	return textResult(fmt.Sprintf("✅ Reminder set for %s", args.Filepath)), nil
}

func (s *VaultMCPServer) ListReminders(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ListRemindersParams]) (*mcp.CallToolResultFor[any], error) {
	var before time.Time
	if raw := params.Arguments.DueBefore; raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return errorResult(fmt.Sprintf("❌ Invalid due_before, must be ISO 8601: %v", err)), nil
		}
		before = t
	}

	reminders, err := s.vault.ListDueReminders(ctx, before)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to list reminders: %v", err)), nil
	}
	if len(reminders) == 0 {
		return textResult("(no due reminders)"), nil
	}

	var b strings.Builder
	for _, r := range reminders {
		due := r.Reminder.Due
		if due == "" {
			due = "(calendar-linked)"
		}
		fmt.Fprintf(&b, "%s — %s, due %s\n", r.Filepath, r.Title, due)
	}
	return textResult(b.String()), nil
}

func (s *VaultMCPServer) ListEvents(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ListEventsParams]) (*mcp.CallToolResultFor[any], error) {
	from, err := time.Parse(time.RFC3339, params.Arguments.From)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Invalid from, must be ISO 8601: %v", err)), nil
	}
	to, err := time.Parse(time.RFC3339, params.Arguments.To)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Invalid to, must be ISO 8601: %v", err)), nil
	}
	if !from.Before(to) {
		return errorResult("❌ from must be before to"), nil
	}

	events, err := s.cal.ListEvents(ctx, from, to)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to list events: %v", err)), nil
	}
	if len(events) == 0 {
		return textResult("(no events in range)"), nil
	}

	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "%s — %s", ev.Start.Format(time.RFC3339), ev.Title)
		if ev.Location != "" {
			fmt.Fprintf(&b, " @ %s", ev.Location)
		}
		b.WriteString("\n")
	}
	return textResult(b.String()), nil
}

func textResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	vaultPath := os.Getenv("VAULT_PATH")
	if vaultPath == "" {
		log.Fatalf("❌ VAULT_PATH is required")
	}

	cal := newCalendarProvider()
	v := vault.New(vaultPath, cal)
	if err := v.Init(); err != nil {
		log.Fatalf("❌ Failed to init vault: %v", err)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "second-brain-vault-mcp",
		Version: "1.0.0",
	}, nil)

	vaultServer := &VaultMCPServer{vault: v, cal: cal}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "vault_write",
		Description: "Saves a note to the vault with YAML front matter",
	}, vaultServer.WriteNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "vault_read",
		Description: "Reads a note from the vault by relative path",
	}, vaultServer.ReadNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "vault_list",
		Description: "Lists notes in a vault folder",
	}, vaultServer.ListNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "vault_move",
		Description: "Moves a note to another vault folder, adding archival metadata on moves to Archive",
	}, vaultServer.MoveNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "vault_set_reminder",
		Description: "Sets, updates or marks sent a reminder on a note",
	}, vaultServer.SetReminder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "vault_list_reminders",
		Description: "Lists unsent reminders, optionally only those due before a given time",
	}, vaultServer.ListReminders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calendar_list",
		Description: "Lists calendar events in a time range",
	}, vaultServer.ListEvents)

	log.Printf("📋 Registered 7 tools: vault_write, vault_read, vault_list, vault_move, vault_set_reminder, vault_list_reminders, calendar_list")
	log.Printf("🔗 Starting server on stdin/stdout...")

	transport := mcp.NewStdioTransport()
	if err := server.Run(context.Background(), transport); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

// newCalendarProvider собирает провайдер календаря из окружения;
// без настройки события недоступны
func newCalendarProvider() calendar.Provider {
	if os.Getenv("CALENDAR_PROVIDER") != "google" {
		return calendar.NullProvider{}
	}
	credsPath := os.Getenv("GOOGLE_CALENDAR_CREDENTIALS_PATH")
	if credsPath == "" {
		credsPath = "data/google_calendar.json"
	}
	var calendarIDs []string
	if raw := os.Getenv("GOOGLE_CALENDAR_IDS"); raw != "" {
		calendarIDs = strings.Split(raw, ":")
	}
	p, err := calendar.NewGoogleProvider(context.Background(), credsPath, calendarIDs)
	if err != nil {
		log.Printf("⚠️ failed to init google calendar, events unavailable: %v", err)
		return calendar.NullProvider{}
	}
	log.Printf("📆 Google Calendar provider initialized")
	return p
}
