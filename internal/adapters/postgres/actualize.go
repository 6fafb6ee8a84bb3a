package postgres

import (
	"context"
	"fmt"

	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// ClaimListingsForUpdate атомарно забирает из очереди до limit объявлений,
// не трогавшихся дольше staleDays дней. SKIP LOCKED позволяет нескольким
// процессам разбирать очередь без пересечений; забранные строки удаляются
// в той же транзакции и вернутся в очередь при следующей записи детали.
func (a *HouseStorageAdapter) ClaimListingsForUpdate(ctx context.Context, staleDays int, limit int) ([]domain.UpdateCandidate, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":  "HouseStorageAdapter",
		"method":     "ClaimListingsForUpdate",
		"stale_days": staleDays,
		"limit":      limit,
	})

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("HouseStorageAdapter: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		WITH due AS (
			SELECT house_id
			FROM active_listings
			WHERE last_crawled < now() - make_interval(days => $1)
			ORDER BY last_crawled ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		DELETE FROM active_listings al
		USING due
		WHERE al.house_id = due.house_id
		RETURNING al.house_id, al.url, al.city, al.last_crawled;
	`

	rows, err := tx.Query(ctx, query, staleDays, limit)
	if err != nil {
		repoLogger.Error("Failed to claim listings for update", err, nil)
		return nil, fmt.Errorf("HouseStorageAdapter: failed to claim listings: %w", err)
	}

	var candidates []domain.UpdateCandidate
	for rows.Next() {
		var c domain.UpdateCandidate
		if err := rows.Scan(&c.HouseID, &c.URL, &c.City, &c.LastCrawled); err != nil {
			rows.Close()
			return nil, fmt.Errorf("HouseStorageAdapter: failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("HouseStorageAdapter: error during candidate iteration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("HouseStorageAdapter: failed to commit claim: %w", err)
	}

	if len(candidates) == 0 {
		repoLogger.Info("No listings due for update", nil)
	} else {
		repoLogger.Info("Claimed listings for update", port.Fields{"count": len(candidates)})
	}
	return candidates, nil
}

// requeueQuery возвращает в очередь только объявления, чей текущий снимок
// все еще активен: успевшая записаться деталь со статусом rented не должна
// воскресать в очереди.
const requeueQuery = `
	INSERT INTO active_listings (house_id, url, city, last_crawled)
	SELECT l.house_id, l.url, l.city, l.last_seen
	FROM listings l
	JOIN listing_snapshots s ON s.id = l.current_snapshot_id
	WHERE l.house_id = ANY($1)
	  AND ` + activeStatusPredicate + `
	ON CONFLICT (house_id) DO NOTHING;
`

// RequeueListings возвращает объявления в очередь после неудачного прохода.
// Отметка времени берется из listings, чтобы объявление осталось первым
// кандидатом на следующий проход.
func (a *HouseStorageAdapter) RequeueListings(ctx context.Context, houseIDs []int64) error {
	if len(houseIDs) == 0 {
		return nil
	}

	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "HouseStorageAdapter",
		"method":    "RequeueListings",
	})

	tag, err := a.pool.Exec(ctx, requeueQuery, houseIDs)
	if err != nil {
		repoLogger.Error("Failed to requeue listings", err, nil)
		return fmt.Errorf("HouseStorageAdapter: failed to requeue listings: %w", err)
	}

	repoLogger.Info("Requeued listings", port.Fields{
		"requested": len(houseIDs),
		"restored":  tag.RowsAffected(),
	})
	return nil
}
