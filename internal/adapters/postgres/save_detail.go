package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// SaveDetail записывает деталь объявления с версионированием содержимого.
// Повторное наблюдение того же содержимого только обновляет last_seen,
// изменение порождает новый снимок, старые снимки не трогаются.
func (a *HouseStorageAdapter) SaveDetail(ctx context.Context, detail *domain.HouseDetail) (domain.UpsertOutcome, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "HouseStorageAdapter",
		"method":    "SaveDetail",
		"house_id":  detail.HouseID,
	})

	attributeBlob, err := buildAttributeBlob(detail)
	if err != nil {
		return "", fmt.Errorf("HouseStorageAdapter: %w", err)
	}
	contentHash := calculateContentHash(buildHashPayload(detail, attributeBlob))

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("HouseStorageAdapter: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentHash string
	err = tx.QueryRow(ctx,
		`SELECT current_hash FROM listings WHERE house_id = $1 FOR UPDATE`,
		detail.HouseID,
	).Scan(&currentHash)

	found := true
	if errors.Is(err, pgx.ErrNoRows) {
		found = false
	} else if err != nil {
		return "", fmt.Errorf("HouseStorageAdapter: failed to read current hash: %w", err)
	}

	outcome := classifyUpsert(found, currentHash, contentHash)
	switch outcome {
	case domain.OutcomeCreated:
		if err := a.insertListing(ctx, tx, detail, contentHash, attributeBlob); err != nil {
			return "", err
		}
	case domain.OutcomeTouched:
		if _, err := tx.Exec(ctx,
			`UPDATE listings SET last_seen = $2 WHERE house_id = $1`,
			detail.HouseID, detail.CrawledAt,
		); err != nil {
			return "", fmt.Errorf("HouseStorageAdapter: failed to touch listing: %w", err)
		}
	case domain.OutcomeChanged:
		if err := a.appendSnapshot(ctx, tx, detail, contentHash, attributeBlob); err != nil {
			return "", err
		}
	}

	if err := a.syncActiveQueue(ctx, tx, detail); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("HouseStorageAdapter: failed to commit: %w", err)
	}

	repoLogger.Debug("Saved house detail", port.Fields{
		"outcome": string(outcome),
		"status":  detail.Status,
	})
	return outcome, nil
}

// classifyUpsert определяет исход записи по наличию объявления и хэшу
// его текущего содержимого: новое объявление создается, совпадающий хэш
// только освежает last_seen, изменившийся порождает новый снимок.
func classifyUpsert(found bool, currentHash, newHash string) domain.UpsertOutcome {
	switch {
	case !found:
		return domain.OutcomeCreated
	case currentHash == newHash:
		return domain.OutcomeTouched
	default:
		return domain.OutcomeChanged
	}
}

// insertListing создает запись объявления и его первый снимок.
func (a *HouseStorageAdapter) insertListing(ctx context.Context, tx pgx.Tx, detail *domain.HouseDetail, contentHash string, attributeBlob []byte) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO listings (house_id, url, city, offering_type, current_hash, first_seen, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		detail.HouseID, detail.URL, detail.City, string(detail.OfferingType), contentHash, detail.CrawledAt,
	); err != nil {
		return fmt.Errorf("HouseStorageAdapter: failed to insert listing: %w", err)
	}
	return a.insertSnapshot(ctx, tx, detail, contentHash, attributeBlob)
}

// appendSnapshot добавляет новый снимок и перенацеливает указатель.
func (a *HouseStorageAdapter) appendSnapshot(ctx context.Context, tx pgx.Tx, detail *domain.HouseDetail, contentHash string, attributeBlob []byte) error {
	if _, err := tx.Exec(ctx,
		`UPDATE listings SET current_hash = $2, last_seen = $3 WHERE house_id = $1`,
		detail.HouseID, contentHash, detail.CrawledAt,
	); err != nil {
		return fmt.Errorf("HouseStorageAdapter: failed to update listing pointer: %w", err)
	}
	return a.insertSnapshot(ctx, tx, detail, contentHash, attributeBlob)
}

func (a *HouseStorageAdapter) insertSnapshot(ctx context.Context, tx pgx.Tx, detail *domain.HouseDetail, contentHash string, attributeBlob []byte) error {
	var snapshotID int64
	err := tx.QueryRow(ctx,
		`INSERT INTO listing_snapshots
		   (house_id, content_hash, status, price, attributes, parse_warning, crawled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		detail.HouseID, contentHash, detail.Status, detail.Price, attributeBlob,
		detail.ParseWarning, detail.CrawledAt,
	).Scan(&snapshotID)
	if err != nil {
		return fmt.Errorf("HouseStorageAdapter: failed to insert snapshot: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE listings SET current_snapshot_id = $2 WHERE house_id = $1`,
		detail.HouseID, snapshotID,
	); err != nil {
		return fmt.Errorf("HouseStorageAdapter: failed to repoint current snapshot: %w", err)
	}
	return nil
}

// syncActiveQueue поддерживает очередь актуализации: активные объявления
// в ней присутствуют, остальные удаляются.
func (a *HouseStorageAdapter) syncActiveQueue(ctx context.Context, tx pgx.Tx, detail *domain.HouseDetail) error {
	if detail.IsAvailable() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO active_listings (house_id, url, city, last_crawled)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (house_id) DO UPDATE SET last_crawled = EXCLUDED.last_crawled, url = EXCLUDED.url`,
			detail.HouseID, detail.URL, detail.City, detail.CrawledAt,
		); err != nil {
			return fmt.Errorf("HouseStorageAdapter: failed to upsert active listing: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM active_listings WHERE house_id = $1`,
		detail.HouseID,
	); err != nil {
		return fmt.Errorf("HouseStorageAdapter: failed to remove inactive listing: %w", err)
	}
	return nil
}
