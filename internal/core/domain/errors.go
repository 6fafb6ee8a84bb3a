package domain

import "errors"

var (
	// ErrPaginationLimit - поисковый индекс не отдает результаты глубже
	// фиксированного смещения, запрос надо сузить.
	ErrPaginationLimit = errors.New("pagination offset limit exceeded")

	// ErrEmptyResponse - поисковый API вернул ответ без документов.
	ErrEmptyResponse = errors.New("empty search response")

	// ErrIPBlocked - вместо страницы объявления пришла заглушка антибота.
	ErrIPBlocked = errors.New("request blocked by anti-bot protection")

	// ErrCookieExhausted - исчерпан лимит обновлений cookie за один запуск.
	ErrCookieExhausted = errors.New("cookie refresh limit exhausted")

	// ErrNotParseable - страница загружена, но не содержит данных объявления.
	ErrNotParseable = errors.New("page is not parseable")

	// ErrNoListingsDue - в очереди актуализации нет объявлений.
	ErrNoListingsDue = errors.New("no listings due for update")
)
