package port

import (
	"context"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// HouseStoragePort определяет контракт для сохранения результатов обхода.
// Реализация с версионированием умеет различать новый снимок и повторное
// наблюдение того же содержимого, реализация в файл всегда дописывает.
type HouseStoragePort interface {
	// SaveDetail сохраняет деталь объявления и сообщает исход записи.
	SaveDetail(ctx context.Context, detail *domain.HouseDetail) (domain.UpsertOutcome, error)

	// SaveListingSummary сохраняет карточку из поисковой выдачи.
	SaveListingSummary(ctx context.Context, property *domain.Property) error

	// SaveImageRef сохраняет ссылку на изображение объявления.
	SaveImageRef(ctx context.Context, houseID int64, photoID int64, url string) error

	// Close освобождает ресурсы хранилища.
	Close() error
}

// ActualizationStoragePort определяет операции очереди актуализации.
// Реализуется только версионируемым хранилищем.
type ActualizationStoragePort interface {
	// ClaimListingsForUpdate атомарно забирает из очереди до limit
	// объявлений, не трогавшихся дольше staleDays дней. Забранные
	// объявления исчезают из очереди до следующей записи их детали.
	ClaimListingsForUpdate(ctx context.Context, staleDays int, limit int) ([]domain.UpdateCandidate, error)

	// RequeueListings возвращает объявления в очередь после неудачного
	// прохода, чтобы они не потерялись.
	RequeueListings(ctx context.Context, houseIDs []int64) error

	// ManageActiveListings синхронизирует очередь с текущими снимками:
	// активные по статусу объявления добавляются, остальные удаляются.
	// Возвращает число добавленных и удаленных строк.
	ManageActiveListings(ctx context.Context) (added int64, removed int64, err error)
}

// CrawlStatePort хранит прогресс обхода по поисковому запросу.
type CrawlStatePort interface {
	LoadCrawlState(ctx context.Context, searchKey string) (*domain.CrawlState, error)
	SaveCrawlState(ctx context.Context, state *domain.CrawlState) error
}

// ErrorArchivePort сохраняет неразобранные страницы для последующего
// анализа селекторов.
type ErrorArchivePort interface {
	ArchivePage(ctx context.Context, city string, houseID int64, html []byte) (path string, err error)
}
