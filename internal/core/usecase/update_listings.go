package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// UpdateListingsUseCase актуализирует давно не посещавшиеся активные
// объявления: забирает партию из очереди и прогоняет через конвейер
// деталей. При фатальном обрыве необработанные объявления возвращаются
// в очередь.
type UpdateListingsUseCase struct {
	actualizeRepo port.ActualizationStoragePort
	pipeline      *ProcessDetailsUseCase
	staleDays     int
	batchLimit    int
}

// NewUpdateListingsUseCase создает новый экземпляр UpdateListingsUseCase
func NewUpdateListingsUseCase(
	actualize port.ActualizationStoragePort,
	pipeline *ProcessDetailsUseCase,
	staleDays int,
	batchLimit int,
) *UpdateListingsUseCase {
	if staleDays <= 0 {
		staleDays = 7
	}
	if batchLimit <= 0 {
		batchLimit = 500
	}
	return &UpdateListingsUseCase{
		actualizeRepo: actualize,
		pipeline:      pipeline,
		staleDays:     staleDays,
		batchLimit:    batchLimit,
	}
}

// Execute выполняет один проход актуализации. Возвращает число
// обработанных объявлений.
func (uc *UpdateListingsUseCase) Execute(ctx context.Context) (int, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case":   "UpdateListings",
		"stale_days": uc.staleDays,
	})

	candidates, err := uc.actualizeRepo.ClaimListingsForUpdate(ctx, uc.staleDays, uc.batchLimit)
	if err != nil {
		return 0, fmt.Errorf("use case: failed to claim listings for update: %w", err)
	}
	if len(candidates) == 0 {
		ucLogger.Info("Nothing to update", nil)
		return 0, domain.ErrNoListingsDue
	}

	tasks := make([]DetailTask, 0, len(candidates))
	for _, c := range candidates {
		tasks = append(tasks, DetailTask{
			HouseID: c.HouseID,
			URL:     c.URL,
			City:    c.City,
		})
	}

	ucLogger.Info("Starting update pass", port.Fields{"claimed": len(tasks)})

	if err := uc.pipeline.Execute(ctx, tasks); err != nil {
		// обработанные объявления уже вернулись в очередь через запись
		// детали; остальные восстанавливаем явно
		ids := make([]int64, 0, len(tasks))
		for _, t := range tasks {
			ids = append(ids, t.HouseID)
		}
		if requeueErr := uc.actualizeRepo.RequeueListings(ctx, ids); requeueErr != nil {
			ucLogger.Error("Failed to requeue after aborted pass", requeueErr, nil)
		}
		if errors.Is(err, domain.ErrCookieExhausted) {
			ucLogger.Error("Update pass aborted, cookie refresh limit exhausted", err, nil)
		}
		return 0, fmt.Errorf("use case: update pass aborted: %w", err)
	}

	return len(tasks), nil
}
