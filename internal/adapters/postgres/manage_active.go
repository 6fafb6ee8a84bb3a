package postgres

import (
	"context"
	"fmt"

	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// статусы считаются активными по тем же образцам, что и в домене
const activeStatusPredicate = `
	(lower(s.status) LIKE '%available%'
	 OR lower(s.status) LIKE '%under option%'
	 OR lower(s.status) LIKE '%negotiations%')
`

// ManageActiveListings синхронизирует очередь актуализации с текущими
// снимками: объявления с активным статусом попадают в очередь, потерявшие
// активность удаляются.
func (a *HouseStorageAdapter) ManageActiveListings(ctx context.Context) (int64, int64, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "HouseStorageAdapter",
		"method":    "ManageActiveListings",
	})

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("HouseStorageAdapter: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	addQuery := `
		INSERT INTO active_listings (house_id, url, city, last_crawled)
		SELECT l.house_id, l.url, l.city, l.last_seen
		FROM listings l
		JOIN listing_snapshots s ON s.id = l.current_snapshot_id
		WHERE ` + activeStatusPredicate + `
		ON CONFLICT (house_id) DO NOTHING;
	`
	addTag, err := tx.Exec(ctx, addQuery)
	if err != nil {
		return 0, 0, fmt.Errorf("HouseStorageAdapter: failed to add active listings: %w", err)
	}

	removeQuery := `
		DELETE FROM active_listings al
		USING listings l
		JOIN listing_snapshots s ON s.id = l.current_snapshot_id
		WHERE al.house_id = l.house_id
		  AND NOT ` + activeStatusPredicate + `;
	`
	removeTag, err := tx.Exec(ctx, removeQuery)
	if err != nil {
		return 0, 0, fmt.Errorf("HouseStorageAdapter: failed to remove inactive listings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("HouseStorageAdapter: failed to commit sweep: %w", err)
	}

	added, removed := addTag.RowsAffected(), removeTag.RowsAffected()
	repoLogger.Info("Active listings sweep finished", port.Fields{
		"added":   added,
		"removed": removed,
	})
	return added, removed, nil
}
