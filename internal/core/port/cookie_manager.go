package port

import "context"

// CookieManagerPort определяет контракт для выдачи и обновления cookie,
// которыми подписываются запросы к funda.
type CookieManagerPort interface {
	// Cookies возвращает валидный набор cookie, при необходимости
	// обновляя его. Конкурентные вызовы разделяют одно обновление.
	Cookies(ctx context.Context) (map[string]string, error)

	// ReportFailure сообщает, что запрос с текущим набором был отклонен.
	ReportFailure(ctx context.Context)

	// ForceRefresh принудительно обновляет набор, игнорируя его возраст.
	// Возвращает domain.ErrCookieExhausted при исчерпании лимита обновлений.
	ForceRefresh(ctx context.Context) error

	// RefreshCount возвращает число обновлений за текущий запуск.
	RefreshCount() int
}

// BrowserSessionPort определяет контракт для получения свежих cookie
// через управляемый браузер.
type BrowserSessionPort interface {
	// HarvestCookies открывает стартовую страницу, принимает баннер
	// согласия и возвращает собранные cookie.
	HarvestCookies(ctx context.Context) (map[string]string, error)
}
