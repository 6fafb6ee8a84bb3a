package port

import (
	"context"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// FundaFetcherPort объединяет все операции, которые можно выполнить
// с источником данных funda.
type FundaFetcherPort interface {
	// FetchSearchPage загружает одну страницу поисковой выдачи.
	FetchSearchPage(ctx context.Context, params domain.SearchParams) (*domain.PageResult, error)

	// FetchDetailPage загружает HTML страницы объявления. Возвращает
	// domain.ErrIPBlocked, если вместо страницы пришла заглушка антибота.
	FetchDetailPage(ctx context.Context, url string) ([]byte, error)
}
