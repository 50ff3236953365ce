package llm

// Имена инструментов, по которым распознается исход диалога
const (
	ToolVaultWrite         = "vault_write"
	ToolVaultRead          = "vault_read"
	ToolVaultList          = "vault_list"
	ToolVaultMove          = "vault_move"
	ToolVaultSetReminder   = "vault_set_reminder"
	ToolVaultListReminders = "vault_list_reminders"
	ToolCalendarList       = "calendar_list"
	ToolSendMessage        = "send_message"
	ToolLogInteraction     = "log_interaction"
)

// GetVaultTools возвращает список инструментов хранилища заметок для LLM
func GetVaultTools() []Tool {
	return []Tool{
		{
			Type: "function",
			Function: Function{
				Name:        ToolVaultWrite,
				Description: "Сохраняет заметку в хранилище. Используется когда сообщение пользователя понятно и его нужно записать (задача, идея, ссылка, справка).",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"folder": map[string]interface{}{
							"type":        "string",
							"description": "Папка назначения: Inbox, Tasks, Ideas, Projects или Reference",
						},
						"title": map[string]interface{}{
							"type":        "string",
							"description": "Краткий заголовок заметки",
						},
						"body": map[string]interface{}{
							"type":        "string",
							"description": "Содержимое заметки в формате Markdown",
						},
						"tags": map[string]interface{}{
							"type":        "array",
							"items":       map[string]interface{}{"type": "string"},
							"description": "Теги заметки (опционально)",
						},
					},
					"required": []string{"folder", "title", "body"},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolVaultRead,
				Description: "Читает заметку из хранилища по относительному пути (например Tasks/2026-01-10_follow-up.md).",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"filepath": map[string]interface{}{
							"type":        "string",
							"description": "Относительный путь к заметке внутри хранилища",
						},
					},
					"required": []string{"filepath"},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolVaultList,
				Description: "Возвращает список заметок в папке хранилища.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"folder": map[string]interface{}{
							"type":        "string",
							"description": "Папка: Inbox, Tasks, Ideas, Projects, Reference или Archive",
						},
					},
					"required": []string{"folder"},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolVaultMove,
				Description: "Переносит заметку в другую папку хранилища. Используется для архивирования выполненных задач (перенос в Archive) и наведения порядка между папками; при переносе в Archive заметка получает отметку архивации.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"source": map[string]interface{}{
							"type":        "string",
							"description": "Относительный путь заметки (например Tasks/2026-01-10_follow-up.md)",
						},
						"destination": map[string]interface{}{
							"type":        "string",
							"description": "Папка назначения: Inbox, Tasks, Ideas, Projects, Reference или Archive",
						},
					},
					"required": []string{"source", "destination"},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolVaultSetReminder,
				Description: "Ставит напоминание на заметку: либо абсолютное время (due, ISO 8601), либо привязку к событию календаря со смещением в секундах.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"filepath": map[string]interface{}{
							"type":        "string",
							"description": "Относительный путь к заметке",
						},
						"due": map[string]interface{}{
							"type":        "string",
							"description": "Абсолютное время напоминания в ISO 8601 (например 2026-09-15T09:00:00Z)",
						},
						"calendar_event": map[string]interface{}{
							"type":        "string",
							"description": "Название события календаря для привязки (опционально)",
						},
						"offset": map[string]interface{}{
							"type":        "integer",
							"description": "Смещение относительно события в секундах, отрицательное — до события",
						},
					},
					"required": []string{"filepath"},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolVaultListReminders,
				Description: "Возвращает неотправленные напоминания, отсортированные по сроку (ближайшие первыми). Используется чтобы показать пользователю его напоминания или проверить их статус; Archive не сканируется.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"due_before": map[string]interface{}{
							"type":        "string",
							"description": "Только напоминания со сроком раньше этого времени, ISO 8601 (опционально)",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolCalendarList,
				Description: "Возвращает события календаря за период. Используется чтобы посмотреть расписание пользователя или найти событие для привязки напоминания.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"range": map[string]interface{}{
							"type":        "string",
							"description": "Период: today, tomorrow, this_week или custom (по умолчанию today)",
						},
						"from": map[string]interface{}{
							"type":        "string",
							"description": "Начало периода в ISO 8601, обязательно при range=custom",
						},
						"to": map[string]interface{}{
							"type":        "string",
							"description": "Конец периода в ISO 8601, обязательно при range=custom",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolSendMessage,
				Description: "Отправляет текстовое сообщение пользователю. Используется для подтверждений, уточняющих вопросов и напоминаний.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"text": map[string]interface{}{
							"type":        "string",
							"description": "Текст сообщения",
						},
					},
					"required": []string{"text"},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolLogInteraction,
				Description: "Записывает обработанное сообщение в журнал взаимодействий (что пришло и куда сохранено).",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"input": map[string]interface{}{
							"type":        "string",
							"description": "Исходное сообщение пользователя",
						},
						"stored_path": map[string]interface{}{
							"type":        "string",
							"description": "Путь, по которому сохранена заметка",
						},
					},
					"required": []string{"input", "stored_path"},
				},
			},
		},
	}
}
