package models

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// DateLayout — формат дат в БД и API (локальная дата бизнеса).
const DateLayout = "2006-01-02"

const (
	// DefaultGranularityMinutes шаг между слотами по умолчанию
	DefaultGranularityMinutes = 15

	// DefaultCodeLength длина кода подтверждения
	DefaultCodeLength = 4

	// DefaultCodeTTL время жизни кода подтверждения в секундах
	DefaultCodeTTL = 5 * 60

	// DefaultMaxAdvanceDays максимальный горизонт записи
	DefaultMaxAdvanceDays = 60

	// DefaultSendLimit количество кодов на номер в окне
	DefaultSendLimit = 3

	// DefaultSendWindow окно ограничения отправки кодов в секундах
	DefaultSendWindow = 10 * 60

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000
)

// ValidStatuses enumerates allowed appointment statuses for staff transitions.
var ValidStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusPaid:      true,
	StatusCancelled: true,
}

// ProvisionalClientName is assigned to clients auto-created by the public
// booking flow before staff fills in the real name.
const ProvisionalClientName = "Новый клиент"
