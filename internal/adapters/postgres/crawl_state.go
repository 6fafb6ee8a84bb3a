package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// LoadCrawlState возвращает сохраненный прогресс обхода по ключу запроса,
// nil если обход еще не начинался.
func (a *HouseStorageAdapter) LoadCrawlState(ctx context.Context, searchKey string) (*domain.CrawlState, error) {
	var state domain.CrawlState
	err := a.pool.QueryRow(ctx,
		`SELECT search_key, last_page, total_pages, completed_at, updated_at
		 FROM crawl_state WHERE search_key = $1`,
		searchKey,
	).Scan(&state.SearchKey, &state.LastPage, &state.TotalPages, &state.CompletedAt, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("HouseStorageAdapter: failed to load crawl state: %w", err)
	}
	return &state, nil
}

// SaveCrawlState сохраняет прогресс обхода.
func (a *HouseStorageAdapter) SaveCrawlState(ctx context.Context, state *domain.CrawlState) error {
	state.UpdatedAt = time.Now().UTC()
	_, err := a.pool.Exec(ctx,
		`INSERT INTO crawl_state (search_key, last_page, total_pages, completed_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (search_key) DO UPDATE SET
		   last_page = EXCLUDED.last_page,
		   total_pages = EXCLUDED.total_pages,
		   completed_at = EXCLUDED.completed_at,
		   updated_at = EXCLUDED.updated_at`,
		state.SearchKey, state.LastPage, state.TotalPages, state.CompletedAt, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("HouseStorageAdapter: failed to save crawl state: %w", err)
	}
	return nil
}
