package domain

import (
	"strings"
	"time"

	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
)

// HouseDetail - результат разбора страницы объявления. Поля с числовой
// семантикой уже очищены от валютных знаков и единиц измерения.
type HouseDetail struct {
	HouseID      int64
	URL          string
	City         string
	PostCode     string
	Address      string
	Neighborhood string

	Status       string
	OfferingType OfferingType
	Price        float64
	ServiceCost  float64
	Deposit      float64

	LivingArea int
	PlotArea   int
	Volume     int
	Rooms      int
	Bedrooms   int
	Bathrooms  int

	YearBuilt   int
	HouseType   string
	Interior    string
	EnergyLabel string
	Parking     string
	Garden      string
	Insulation  string
	Heating     string

	ListedSince  string
	AvailableAt  string
	Description  string
	AgencyName   string
	CrawledAt    time.Time
	ParseWarning string
}

// IsAvailable сообщает, считается ли объявление активным по его статусу.
func (d HouseDetail) IsAvailable() bool {
	status := strings.ToLower(strings.TrimSpace(d.Status))
	if status == "" {
		return false
	}
	for _, p := range constants.AvailableStatusPatterns {
		if strings.Contains(status, p) {
			return true
		}
	}
	return false
}

// IsPartial сообщает, что разбор прошел с потерей части полей.
func (d HouseDetail) IsPartial() bool {
	return d.ParseWarning != ""
}

// Tombstone возвращает заглушку для объявления, которое не удалось разобрать.
func Tombstone(houseID int64, url string) HouseDetail {
	return HouseDetail{
		HouseID:   houseID,
		URL:       url,
		Status:    constants.TombstoneStatus,
		CrawledAt: time.Now().UTC(),
	}
}
