package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HouseStorageAdapter - версионируемое хранилище объявлений в PostgreSQL.
// Снимки неизменяемы и только добавляются; текущая версия объявления
// определяется указателем в таблице listings.
type HouseStorageAdapter struct {
	pool *pgxpool.Pool
}

func NewHouseStorageAdapter(pool *pgxpool.Pool) (*HouseStorageAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("HouseStorageAdapter: pool cannot be nil")
	}
	return &HouseStorageAdapter{pool: pool}, nil
}

func (a *HouseStorageAdapter) Close() error {
	a.pool.Close()
	return nil
}
