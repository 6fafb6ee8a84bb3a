package usecase

import (
	"context"
	"sync"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// Ручные заглушки портов для тестов use case'ов.

type fakeFetcher struct {
	mu sync.Mutex

	searchFn    func(ctx context.Context, params domain.SearchParams) (*domain.PageResult, error)
	detailFn    func(ctx context.Context, url string) ([]byte, error)
	searchCalls []int
	detailCalls []string
}

func (f *fakeFetcher) FetchSearchPage(ctx context.Context, params domain.SearchParams) (*domain.PageResult, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, params.Page)
	f.mu.Unlock()
	return f.searchFn(ctx, params)
}

func (f *fakeFetcher) FetchDetailPage(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, url)
	f.mu.Unlock()
	return f.detailFn(ctx, url)
}

func (f *fakeFetcher) detailCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detailCalls)
}

type fakeExtractor struct {
	parseable func(html []byte) bool
	extractFn func(html []byte, houseID int64, url string) (*domain.HouseDetail, error)
}

func (f *fakeExtractor) IsParseable(html []byte) bool {
	if f.parseable == nil {
		return true
	}
	return f.parseable(html)
}

func (f *fakeExtractor) Extract(html []byte, houseID int64, url string) (*domain.HouseDetail, error) {
	return f.extractFn(html, houseID, url)
}

type fakeCookies struct {
	mu           sync.Mutex
	refreshErr   error
	refreshCalls int
	failures     int
}

func (f *fakeCookies) Cookies(ctx context.Context) (map[string]string, error) {
	return map[string]string{"session": "fake"}, nil
}

func (f *fakeCookies) ReportFailure(ctx context.Context) {
	f.mu.Lock()
	f.failures++
	f.mu.Unlock()
}

func (f *fakeCookies) ForceRefresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return f.refreshErr
}

func (f *fakeCookies) RefreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

type savedDetail struct {
	detail  *domain.HouseDetail
	outcome domain.UpsertOutcome
}

type fakeStorage struct {
	mu      sync.Mutex
	saved   []savedDetail
	saveErr error
}

func (f *fakeStorage) SaveDetail(ctx context.Context, detail *domain.HouseDetail) (domain.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, savedDetail{detail: detail, outcome: domain.OutcomeCreated})
	return domain.OutcomeCreated, nil
}

func (f *fakeStorage) SaveListingSummary(ctx context.Context, property *domain.Property) error {
	return nil
}

func (f *fakeStorage) SaveImageRef(ctx context.Context, houseID int64, photoID int64, url string) error {
	return nil
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) savedDetails() []savedDetail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]savedDetail, len(f.saved))
	copy(out, f.saved)
	return out
}

type fakeArchive struct {
	mu    sync.Mutex
	pages []int64
}

func (f *fakeArchive) ArchivePage(ctx context.Context, city string, houseID int64, html []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, houseID)
	return "/tmp/archive/fake.html", nil
}

func (f *fakeArchive) archivedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pages)
}

type fakeActualization struct {
	mu         sync.Mutex
	candidates []domain.UpdateCandidate
	claimErr   error
	requeued   []int64
}

func (f *fakeActualization) ClaimListingsForUpdate(ctx context.Context, staleDays int, limit int) ([]domain.UpdateCandidate, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	if limit < len(f.candidates) {
		return f.candidates[:limit], nil
	}
	return f.candidates, nil
}

func (f *fakeActualization) RequeueListings(ctx context.Context, houseIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeued = append(f.requeued, houseIDs...)
	return nil
}

func (f *fakeActualization) ManageActiveListings(ctx context.Context) (int64, int64, error) {
	return 0, 0, nil
}
