package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

func pipelineConfig() PipelineConfig {
	// задержки выключены, тесты не должны спать
	return PipelineConfig{BatchSize: 10, MaxConcurrency: 2, MinDelay: 0, MaxDelay: 0}
}

func detailTasks(n int) []DetailTask {
	tasks := make([]DetailTask, 0, n)
	for i := 0; i < n; i++ {
		id := int64(1000 + i)
		tasks = append(tasks, DetailTask{
			HouseID: id,
			URL:     fmt.Sprintf("https://www.funda.nl/en/huur/amsterdam/huis-%d/", id),
			City:    "amsterdam",
		})
	}
	return tasks
}

func healthyExtractor() *fakeExtractor {
	return &fakeExtractor{
		extractFn: func(html []byte, houseID int64, url string) (*domain.HouseDetail, error) {
			return &domain.HouseDetail{
				HouseID: houseID,
				URL:     url,
				Status:  "Available",
				Price:   1500,
			}, nil
		},
	}
}

func TestProcessDetailsStoresEverything(t *testing.T) {
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("<html>listing</html>"), nil
		},
	}
	storage := &fakeStorage{}
	summary := &domain.CrawlSummary{}

	uc := NewProcessDetailsUseCase(fetcher, healthyExtractor(), &fakeCookies{}, storage, &fakeArchive{}, pipelineConfig(), summary)
	require.NoError(t, uc.Execute(context.Background(), detailTasks(25)))

	require.Len(t, storage.savedDetails(), 25)
	require.Equal(t, int64(25), summary.DetailsStored.Load())
	require.Equal(t, int64(0), summary.DetailsSkipped.Load())
}

func TestProcessDetailsRecoversFromIPBlock(t *testing.T) {
	// первый запрос упирается в антибот, после обновления cookie проходит
	blocked := true
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			if blocked {
				blocked = false
				return nil, domain.ErrIPBlocked
			}
			return []byte("<html>listing</html>"), nil
		},
	}
	cookies := &fakeCookies{}
	storage := &fakeStorage{}
	summary := &domain.CrawlSummary{}

	cfg := pipelineConfig()
	cfg.MaxConcurrency = 1

	uc := NewProcessDetailsUseCase(fetcher, healthyExtractor(), cookies, storage, &fakeArchive{}, cfg, summary)
	require.NoError(t, uc.Execute(context.Background(), detailTasks(1)))

	require.Equal(t, 1, cookies.RefreshCount())
	require.Equal(t, 2, fetcher.detailCallCount())
	require.Equal(t, int64(1), summary.IPBlocks.Load())
	require.Equal(t, int64(1), summary.DetailsStored.Load())
}

func TestProcessDetailsAbortsOnCookieExhaustion(t *testing.T) {
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			return nil, domain.ErrIPBlocked
		},
	}
	cookies := &fakeCookies{refreshErr: domain.ErrCookieExhausted}
	storage := &fakeStorage{}
	summary := &domain.CrawlSummary{}

	uc := NewProcessDetailsUseCase(fetcher, healthyExtractor(), cookies, storage, &fakeArchive{}, pipelineConfig(), summary)
	err := uc.Execute(context.Background(), detailTasks(25))

	require.ErrorIs(t, err, domain.ErrCookieExhausted)
	require.Empty(t, storage.savedDetails())
}

func TestProcessDetailsSkipsNonParseablePages(t *testing.T) {
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("<html>project page</html>"), nil
		},
	}
	extractor := healthyExtractor()
	extractor.parseable = func(html []byte) bool { return false }
	storage := &fakeStorage{}
	summary := &domain.CrawlSummary{}

	uc := NewProcessDetailsUseCase(fetcher, extractor, &fakeCookies{}, storage, &fakeArchive{}, pipelineConfig(), summary)
	require.NoError(t, uc.Execute(context.Background(), detailTasks(3)))

	require.Empty(t, storage.savedDetails())
	require.Equal(t, int64(3), summary.DetailsSkipped.Load())
}

func TestProcessDetailsStoresTombstoneForUnparseable(t *testing.T) {
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("<html>redesigned layout</html>"), nil
		},
	}
	extractor := &fakeExtractor{
		extractFn: func(html []byte, houseID int64, url string) (*domain.HouseDetail, error) {
			return nil, domain.ErrNotParseable
		},
	}
	storage := &fakeStorage{}
	archive := &fakeArchive{}
	summary := &domain.CrawlSummary{}

	uc := NewProcessDetailsUseCase(fetcher, extractor, &fakeCookies{}, storage, archive, pipelineConfig(), summary)
	require.NoError(t, uc.Execute(context.Background(), detailTasks(2)))

	saved := storage.savedDetails()
	require.Len(t, saved, 2)
	for _, s := range saved {
		require.Equal(t, constants.TombstoneStatus, s.detail.Status)
		require.Equal(t, "amsterdam", s.detail.City)
	}
	require.Equal(t, 2, archive.archivedCount())
	require.Equal(t, int64(2), summary.Tombstones.Load())
}

func TestProcessDetailsCountsPartialExtraction(t *testing.T) {
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("<html>listing</html>"), nil
		},
	}
	extractor := &fakeExtractor{
		extractFn: func(html []byte, houseID int64, url string) (*domain.HouseDetail, error) {
			return &domain.HouseDetail{
				HouseID:      houseID,
				URL:          url,
				Status:       "Available",
				Price:        1500,
				ParseWarning: "missing fields: interior, garden",
			}, nil
		},
	}
	storage := &fakeStorage{}
	archive := &fakeArchive{}
	summary := &domain.CrawlSummary{}

	uc := NewProcessDetailsUseCase(fetcher, extractor, &fakeCookies{}, storage, archive, pipelineConfig(), summary)
	require.NoError(t, uc.Execute(context.Background(), detailTasks(1)))

	require.Equal(t, int64(1), summary.DetailsPartial.Load())
	require.Equal(t, int64(1), summary.DetailsStored.Load())
	require.Equal(t, 1, archive.archivedCount())
}

func TestProcessDetailsSkipsEmptyBody(t *testing.T) {
	// пустое тело без ошибки загрузки - пропуск, никаких надгробий
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			return nil, nil
		},
	}
	storage := &fakeStorage{}
	summary := &domain.CrawlSummary{}

	uc := NewProcessDetailsUseCase(fetcher, healthyExtractor(), &fakeCookies{}, storage, &fakeArchive{}, pipelineConfig(), summary)
	require.NoError(t, uc.Execute(context.Background(), detailTasks(3)))

	require.Empty(t, storage.savedDetails())
	require.Equal(t, int64(3), summary.DetailsSkipped.Load())
	require.Equal(t, int64(0), summary.Tombstones.Load())
}

func TestProcessDetailsMergesListingContext(t *testing.T) {
	// селекторы не нашли адресные поля - их закрывает карточка выдачи,
	// а извлеченный город детали остается нетронутым
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("<html>listing</html>"), nil
		},
	}
	extractor := &fakeExtractor{
		extractFn: func(html []byte, houseID int64, url string) (*domain.HouseDetail, error) {
			return &domain.HouseDetail{
				HouseID:      houseID,
				URL:          url,
				Status:       "Available",
				OfferingType: domain.OfferingRent,
				City:         "Amstelveen",
			}, nil
		},
	}
	storage := &fakeStorage{}
	summary := &domain.CrawlSummary{}

	tasks := detailTasks(1)
	tasks[0].Listing = &domain.Property{
		ID: tasks[0].HouseID,
		Address: domain.Address{
			City:         "Amsterdam",
			PostalCode:   "1015 AB",
			StreetName:   "Keizersgracht",
			HouseNumber:  "1",
			Neighborhood: "Grachtengordel",
		},
		AgencyName:  "Makelaardij Van Dijk",
		EnergyLabel: "B",
		Price:       domain.PropertyPrice{RentPrice: []float64{1850}},
	}

	uc := NewProcessDetailsUseCase(fetcher, extractor, &fakeCookies{}, storage, &fakeArchive{}, pipelineConfig(), summary)
	require.NoError(t, uc.Execute(context.Background(), tasks))

	saved := storage.savedDetails()
	require.Len(t, saved, 1)
	detail := saved[0].detail
	require.Equal(t, "Amstelveen", detail.City)
	require.Equal(t, "1015 AB", detail.PostCode)
	require.Equal(t, "Keizersgracht 1", detail.Address)
	require.Equal(t, "Grachtengordel", detail.Neighborhood)
	require.Equal(t, "Makelaardij Van Dijk", detail.AgencyName)
	require.Equal(t, "B", detail.EnergyLabel)
	require.Equal(t, float64(1850), detail.Price)
}

func TestProcessDetailsBackfillsCityFromTask(t *testing.T) {
	fetcher := &fakeFetcher{
		detailFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("<html>listing</html>"), nil
		},
	}
	storage := &fakeStorage{}
	summary := &domain.CrawlSummary{}

	uc := NewProcessDetailsUseCase(fetcher, healthyExtractor(), &fakeCookies{}, storage, &fakeArchive{}, pipelineConfig(), summary)
	require.NoError(t, uc.Execute(context.Background(), detailTasks(1)))

	saved := storage.savedDetails()
	require.Len(t, saved, 1)
	require.Equal(t, "amsterdam", saved[0].detail.City)
}
