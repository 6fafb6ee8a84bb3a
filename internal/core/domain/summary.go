package domain

import "sync/atomic"

// CrawlSummary - счетчики одного запуска краулера. Безопасен для
// конкурентного инкремента из воркеров пайплайна.
type CrawlSummary struct {
	PagesFetched   atomic.Int64
	PagesFailed    atomic.Int64
	ListingsFound  atomic.Int64
	DetailsStored  atomic.Int64
	DetailsSkipped atomic.Int64
	DetailsPartial atomic.Int64
	Tombstones     atomic.Int64
	IPBlocks       atomic.Int64
	CookieRefreshs atomic.Int64
	ImagesStored   atomic.Int64
}

// SummarySnapshot - неизменяемый срез счетчиков для отчета и логов.
type SummarySnapshot struct {
	PagesFetched   int64
	PagesFailed    int64
	ListingsFound  int64
	DetailsStored  int64
	DetailsSkipped int64
	DetailsPartial int64
	Tombstones     int64
	IPBlocks       int64
	CookieRefreshs int64
	ImagesStored   int64
}

// Snapshot возвращает текущие значения счетчиков.
func (s *CrawlSummary) Snapshot() SummarySnapshot {
	return SummarySnapshot{
		PagesFetched:   s.PagesFetched.Load(),
		PagesFailed:    s.PagesFailed.Load(),
		ListingsFound:  s.ListingsFound.Load(),
		DetailsStored:  s.DetailsStored.Load(),
		DetailsSkipped: s.DetailsSkipped.Load(),
		DetailsPartial: s.DetailsPartial.Load(),
		Tombstones:     s.Tombstones.Load(),
		IPBlocks:       s.IPBlocks.Load(),
		CookieRefreshs: s.CookieRefreshs.Load(),
		ImagesStored:   s.ImagesStored.Load(),
	}
}
