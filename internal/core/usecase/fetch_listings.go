package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// FetchListingsUseCase инкапсулирует обход поисковой выдачи: первая
// страница дает общее число результатов, остальные загружаются
// параллельно.
type FetchListingsUseCase struct {
	fetcherRepo port.FundaFetcherPort
	concurrency int

	// OnPage вызывается для каждой успешно загруженной страницы до
	// агрегации, позволяет обрабатывать выдачу лениво. Вызовы
	// сериализованы: обработчик не обязан защищать свое состояние.
	OnPage func(ctx context.Context, page *domain.PageResult)
}

// NewFetchListingsUseCase создает новый экземпляр FetchListingsUseCase
func NewFetchListingsUseCase(fetcher port.FundaFetcherPort, concurrency int) *FetchListingsUseCase {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &FetchListingsUseCase{
		fetcherRepo: fetcher,
		concurrency: concurrency,
	}
}

// Execute загружает все страницы выдачи для запроса. Частичные отказы не
// прерывают обход: неудачные страницы запоминаются, дубликаты по ID
// отбрасываются. Достижение предела пагинации сохраняет собранное.
func (uc *FetchListingsUseCase) Execute(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "FetchListings",
		"areas":    params.SelectedAreas,
		"offering": string(params.OfferingType),
	})

	ucLogger.Info("Starting to fetch search pages", nil)

	firstPage, err := uc.fetcherRepo.FetchSearchPage(ctx, params.WithPage(1))
	if err != nil {
		return nil, fmt.Errorf("use case: failed to fetch first search page: %w", err)
	}
	if uc.OnPage != nil {
		uc.OnPage(ctx, firstPage)
	}

	totalPages := (firstPage.Total + constants.PageSize - 1) / constants.PageSize

	// глубже фиксированного смещения индекс не отдает результаты
	maxReachable := constants.PaginationOffsetLimit / constants.PageSize
	limitHit := false
	if totalPages > maxReachable {
		totalPages = maxReachable
		limitHit = true
		ucLogger.Warn("Result set exceeds pagination limit, tail pages are unreachable", port.Fields{
			"total":     firstPage.Total,
			"max_pages": maxReachable,
		})
	}

	result := &domain.SearchResult{
		Total: firstPage.Total,
		Pages: totalPages,
	}

	var mu sync.Mutex
	pages := make([]*domain.PageResult, 0, totalPages)
	pages = append(pages, firstPage)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)

	for pageNum := 2; pageNum <= totalPages; pageNum++ {
		pageNum := pageNum
		g.Go(func() error {
			page, fetchErr := uc.fetcherRepo.FetchSearchPage(gctx, params.WithPage(pageNum))
			if fetchErr != nil {
				if errors.Is(fetchErr, domain.ErrPaginationLimit) {
					// собранное до предела остается валидным
					mu.Lock()
					result.FailedPages = append(result.FailedPages, pageNum)
					mu.Unlock()
					return nil
				}
				ucLogger.Error("Failed to fetch search page", fetchErr, port.Fields{"page": pageNum})
				mu.Lock()
				result.FailedPages = append(result.FailedPages, pageNum)
				mu.Unlock()
				return nil
			}
			// вызов под mu: обработчик страниц никогда не конкурирует
			// сам с собой
			mu.Lock()
			if uc.OnPage != nil {
				uc.OnPage(gctx, page)
			}
			pages = append(pages, page)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("use case: page fan-out aborted: %w", err)
	}

	seen := make(map[int64]struct{})
	for _, page := range pages {
		for _, prop := range page.Properties {
			if _, dup := seen[prop.ID]; dup {
				continue
			}
			seen[prop.ID] = struct{}{}
			result.Properties = append(result.Properties, prop)
		}
	}

	ucLogger.Info("Finished fetching search pages", port.Fields{
		"total":        result.Total,
		"pages":        result.Pages,
		"failed_pages": len(result.FailedPages),
		"properties":   len(result.Properties),
		"limit_hit":    limitHit,
	})
	return result, nil
}
