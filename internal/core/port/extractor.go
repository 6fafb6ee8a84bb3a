package port

import (
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// ExtractorPort определяет контракт для разбора HTML страницы объявления
// в доменную модель. Реализация управляется внешним профилем селекторов.
type ExtractorPort interface {
	// IsParseable быстро проверяет, содержит ли страница данные объявления.
	IsParseable(html []byte) bool

	// Extract разбирает страницу. Возвращает domain.ErrNotParseable только
	// для страниц, которые не являются жилыми объявлениями; потерянные
	// поля дают деталь с ParseWarning, а пропуск обязательного поля
	// дополнительно помечает описание маркером частичного разбора.
	Extract(html []byte, houseID int64, url string) (*domain.HouseDetail, error)
}
