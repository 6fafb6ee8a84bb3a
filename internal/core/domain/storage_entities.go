package domain

import "time"

// UpsertOutcome - исход записи детали в хранилище.
type UpsertOutcome string

const (
	// OutcomeCreated - объявление встречено впервые, создан первый снимок.
	OutcomeCreated UpsertOutcome = "created"
	// OutcomeChanged - содержимое изменилось, добавлен новый снимок.
	OutcomeChanged UpsertOutcome = "changed"
	// OutcomeTouched - содержимое прежнее, обновлена только отметка времени.
	OutcomeTouched UpsertOutcome = "touched"
)

// UpdateCandidate - объявление из очереди актуализации.
type UpdateCandidate struct {
	HouseID     int64
	URL         string
	City        string
	LastCrawled time.Time
}

// CrawlState - сохраняемое состояние одного логического обхода, позволяет
// продолжить прерванный запуск с той же страницы.
type CrawlState struct {
	SearchKey   string
	LastPage    int
	TotalPages  int
	CompletedAt *time.Time
	UpdatedAt   time.Time
}
