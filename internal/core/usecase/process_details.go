package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// DetailTask - одно объявление для прохода по странице детали.
// Listing несет исходную карточку выдачи, когда задача пришла из поиска;
// в режиме update карточки нет и контекст ограничен городом.
type DetailTask struct {
	HouseID int64
	URL     string
	City    string
	Listing *domain.Property
}

// PipelineConfig задает параметры пакетной обработки деталей.
type PipelineConfig struct {
	BatchSize      int
	MaxConcurrency int
	MinDelay       time.Duration
	MaxDelay       time.Duration
}

// ProcessDetailsUseCase гонит объявления через конвейер
// загрузка - проверка - разбор - сохранение. Заглушка антибота вызывает
// обновление cookie и один повтор; исчерпание лимита обновлений
// останавливает весь проход.
type ProcessDetailsUseCase struct {
	fetcherRepo   port.FundaFetcherPort
	extractorRepo port.ExtractorPort
	cookieRepo    port.CookieManagerPort
	storageRepo   port.HouseStoragePort
	archiveRepo   port.ErrorArchivePort

	cfg     PipelineConfig
	summary *domain.CrawlSummary
}

// NewProcessDetailsUseCase создает новый экземпляр ProcessDetailsUseCase.
func NewProcessDetailsUseCase(
	fetcher port.FundaFetcherPort,
	extractor port.ExtractorPort,
	cookies port.CookieManagerPort,
	storage port.HouseStoragePort,
	archive port.ErrorArchivePort,
	cfg PipelineConfig,
	summary *domain.CrawlSummary,
) *ProcessDetailsUseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}
	return &ProcessDetailsUseCase{
		fetcherRepo:   fetcher,
		extractorRepo: extractor,
		cookieRepo:    cookies,
		storageRepo:   storage,
		archiveRepo:   archive,
		cfg:           cfg,
		summary:       summary,
	}
}

// Execute обрабатывает все задачи пакетами. Возвращает ошибку только при
// фатальном состоянии (исчерпание cookie или отмена контекста); отказ
// по отдельному объявлению учитывается в счетчиках и не прерывает проход.
func (uc *ProcessDetailsUseCase) Execute(ctx context.Context, tasks []DetailTask) error {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "ProcessDetails",
		"tasks":    len(tasks),
	})

	ucLogger.Info("Starting detail pipeline", port.Fields{
		"batch_size":  uc.cfg.BatchSize,
		"concurrency": uc.cfg.MaxConcurrency,
	})

	for batchStart := 0; batchStart < len(tasks); batchStart += uc.cfg.BatchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// пауза между пакетами, первый пакет идет сразу
		if batchStart > 0 {
			uc.sleepBetweenBatches(ctx)
		}

		batchEnd := batchStart + uc.cfg.BatchSize
		if batchEnd > len(tasks) {
			batchEnd = len(tasks)
		}
		batch := tasks[batchStart:batchEnd]

		ucLogger.Debug("Processing batch", port.Fields{
			"from": batchStart,
			"to":   batchEnd,
		})

		if err := uc.processBatch(ctx, batch); err != nil {
			return err
		}
	}

	ucLogger.Info("Detail pipeline finished", port.Fields{
		"stored":    uc.summary.DetailsStored.Load(),
		"skipped":   uc.summary.DetailsSkipped.Load(),
		"partial":   uc.summary.DetailsPartial.Load(),
		"tombstones": uc.summary.Tombstones.Load(),
	})
	return nil
}

func (uc *ProcessDetailsUseCase) sleepBetweenBatches(ctx context.Context) {
	if uc.cfg.MaxDelay <= 0 {
		return
	}
	delay := uc.cfg.MinDelay
	if spread := uc.cfg.MaxDelay - uc.cfg.MinDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// processBatch обрабатывает один пакет с ограничением параллелизма.
// Фатальная ошибка любого воркера гасит остаток пакета.
func (uc *ProcessDetailsUseCase) processBatch(ctx context.Context, batch []DetailTask) error {
	sem := make(chan struct{}, uc.cfg.MaxConcurrency)
	var wg sync.WaitGroup

	var fatalMu sync.Mutex
	var fatalErr error

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, task := range batch {
		task := task
		select {
		case <-batchCtx.Done():
			wg.Wait()
			fatalMu.Lock()
			defer fatalMu.Unlock()
			if fatalErr != nil {
				return fatalErr
			}
			return batchCtx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := uc.processOne(batchCtx, task); err != nil {
				fatalMu.Lock()
				if fatalErr == nil {
					fatalErr = err
				}
				fatalMu.Unlock()
				cancel()
			}
		}()
	}

	wg.Wait()
	fatalMu.Lock()
	defer fatalMu.Unlock()
	return fatalErr
}

// processOne гонит одно объявление через все стадии конвейера.
// Возвращает ошибку только для фатальных состояний.
func (uc *ProcessDetailsUseCase) processOne(ctx context.Context, task DetailTask) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "ProcessDetails",
		"house_id": task.HouseID,
	})

	html, err := uc.fetchWithRecovery(ctx, task, logger)
	if err != nil {
		if errors.Is(err, domain.ErrCookieExhausted) || errors.Is(err, context.Canceled) {
			return err
		}
		// одиночный отказ загрузки не фатален
		logger.Warn("Giving up on listing after fetch failure", port.Fields{"error": err.Error()})
		uc.summary.DetailsSkipped.Add(1)
		return nil
	}

	// пустое тело ответа - пропуск, а не надгробие
	if len(html) == 0 {
		logger.Warn("Empty response body, skipping listing", nil)
		uc.summary.DetailsSkipped.Add(1)
		return nil
	}

	if !uc.extractorRepo.IsParseable(html) {
		logger.Info("Skipping non-parseable listing", nil)
		uc.summary.DetailsSkipped.Add(1)
		return nil
	}

	detail, err := uc.extractorRepo.Extract(html, task.HouseID, task.URL)
	if err != nil {
		if errors.Is(err, domain.ErrNotParseable) {
			return uc.storeTombstone(ctx, task, html, logger)
		}
		logger.Error("Extractor failed", err, nil)
		uc.summary.DetailsSkipped.Add(1)
		return nil
	}

	mergeListingContext(detail, task)

	if detail.IsPartial() {
		uc.summary.DetailsPartial.Add(1)
		if uc.archiveRepo != nil {
			if _, archErr := uc.archiveRepo.ArchivePage(ctx, task.City, task.HouseID, html); archErr != nil {
				logger.Warn("Failed to archive partial page", port.Fields{"error": archErr.Error()})
			}
		}
	}

	outcome, err := uc.storageRepo.SaveDetail(ctx, detail)
	if err != nil {
		logger.Error("Failed to store house detail", err, nil)
		return nil
	}
	uc.summary.DetailsStored.Add(1)
	logger.Debug("Stored house detail", port.Fields{"outcome": string(outcome)})
	return nil
}

// mergeListingContext закрывает пропуски детали данными карточки выдачи.
// Поля детали имеют приоритет и никогда не перезаписываются.
func mergeListingContext(detail *domain.HouseDetail, task DetailTask) {
	if listing := task.Listing; listing != nil {
		if detail.City == "" {
			detail.City = domain.CleanText(listing.Address.City)
		}
		if detail.PostCode == "" {
			detail.PostCode = domain.CleanPostCode(listing.Address.PostalCode)
		}
		if detail.Address == "" {
			detail.Address = domain.CleanText(listing.Address.StreetName + " " + listing.Address.HouseNumber)
		}
		if detail.Neighborhood == "" {
			detail.Neighborhood = domain.CleanText(listing.Address.Neighborhood)
		}
		if detail.AgencyName == "" {
			detail.AgencyName = domain.CleanText(listing.AgencyName)
		}
		if detail.EnergyLabel == "" {
			detail.EnergyLabel = domain.CleanText(listing.EnergyLabel)
		}
		if detail.Price == 0 {
			detail.Price = listing.Price.First(detail.OfferingType)
		}
	}
	if detail.City == "" {
		detail.City = task.City
	}
}

// fetchWithRecovery загружает страницу детали. Заглушка антибота вызывает
// принудительное обновление cookie и один повтор.
func (uc *ProcessDetailsUseCase) fetchWithRecovery(ctx context.Context, task DetailTask, logger port.LoggerPort) ([]byte, error) {
	html, err := uc.fetcherRepo.FetchDetailPage(ctx, task.URL)
	if err == nil {
		return html, nil
	}
	if !errors.Is(err, domain.ErrIPBlocked) {
		return nil, err
	}

	uc.summary.IPBlocks.Add(1)
	logger.Warn("Request blocked, refreshing cookies and retrying", nil)

	if refreshErr := uc.cookieRepo.ForceRefresh(ctx); refreshErr != nil {
		return nil, refreshErr
	}
	uc.summary.CookieRefreshs.Add(1)

	return uc.fetcherRepo.FetchDetailPage(ctx, task.URL)
}

// storeTombstone сохраняет заглушку для неразбираемого объявления и
// архивирует страницу для анализа селекторов.
func (uc *ProcessDetailsUseCase) storeTombstone(ctx context.Context, task DetailTask, html []byte, logger port.LoggerPort) error {
	uc.summary.Tombstones.Add(1)

	if uc.archiveRepo != nil {
		if _, err := uc.archiveRepo.ArchivePage(ctx, task.City, task.HouseID, html); err != nil {
			logger.Warn("Failed to archive unparseable page", port.Fields{"error": err.Error()})
		}
	}

	tombstone := domain.Tombstone(task.HouseID, task.URL)
	tombstone.City = task.City
	if _, err := uc.storageRepo.SaveDetail(ctx, &tombstone); err != nil {
		logger.Error("Failed to store tombstone", err, nil)
	}
	return nil
}
