package domain

import (
	"fmt"

	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
)

// OfferingType - режим сделки: аренда или покупка.
type OfferingType string

const (
	OfferingRent OfferingType = "rent"
	OfferingBuy  OfferingType = "buy"
)

func ParseOfferingType(s string) (OfferingType, error) {
	switch s {
	case string(OfferingRent):
		return OfferingRent, nil
	case string(OfferingBuy):
		return OfferingBuy, nil
	default:
		return "", fmt.Errorf("unknown offering type %q", s)
	}
}

// EnergyLabel - энергетический класс здания.
type EnergyLabel string

const (
	EnergyAPlus5 EnergyLabel = "A+++++"
	EnergyAPlus4 EnergyLabel = "A++++"
	EnergyAPlus3 EnergyLabel = "A+++"
	EnergyAPlus2 EnergyLabel = "A++"
	EnergyAPlus1 EnergyLabel = "A+"
	EnergyA      EnergyLabel = "A"
	EnergyB      EnergyLabel = "B"
	EnergyC      EnergyLabel = "C"
	EnergyD      EnergyLabel = "D"
	EnergyE      EnergyLabel = "E"
)

// Availability - доступность объявления в поисковом фильтре.
type Availability string

const (
	AvailabilityAvailable    Availability = "available"
	AvailabilityNegotiations Availability = "negotiations"
	AvailabilityUnavailable  Availability = "unavailable"
)

// PublicationDate - фильтр по дате публикации.
type PublicationDate string

const (
	PublicationNoPreference PublicationDate = "no_preference"
	PublicationToday        PublicationDate = "today"
	PublicationLast3Days    PublicationDate = "last_3_days"
	PublicationLast5Days    PublicationDate = "last_5_days"
	PublicationLast10Days   PublicationDate = "last_10_days"
	PublicationLast30Days   PublicationDate = "last_30_days"
)

// ConstructionPeriod - период постройки в терминах поискового фильтра funda.
type ConstructionPeriod string

const (
	PeriodBefore1906 ConstructionPeriod = "before_1906"
	Period1906To1930 ConstructionPeriod = "from_1906_to_1930"
	Period1931To1944 ConstructionPeriod = "from_1931_to_1944"
	Period1945To1959 ConstructionPeriod = "from_1945_to_1959"
	Period1960To1970 ConstructionPeriod = "from_1960_to_1970"
	Period1971To1980 ConstructionPeriod = "from_1971_to_1980"
	Period1981To1990 ConstructionPeriod = "from_1981_to_1990"
	Period1991To2000 ConstructionPeriod = "from_1991_to_2000"
	Period2001To2010 ConstructionPeriod = "from_2001_to_2010"
	Period2011To2020 ConstructionPeriod = "from_2011_to_2020"
	PeriodAfter2020  ConstructionPeriod = "after_2020"
	PeriodUnknown    ConstructionPeriod = "unknown"
)

// периоды в порядке возрастания, границы включительно
var constructionPeriodBounds = []struct {
	period ConstructionPeriod
	from   int
	to     int
}{
	{Period1906To1930, 1906, 1930},
	{Period1931To1944, 1931, 1944},
	{Period1945To1959, 1945, 1959},
	{Period1960To1970, 1960, 1970},
	{Period1971To1980, 1971, 1980},
	{Period1981To1990, 1981, 1990},
	{Period1991To2000, 1991, 2000},
	{Period2001To2010, 2001, 2010},
	{Period2011To2020, 2011, 2020},
}

// ConstructionPeriodForYear возвращает период, в который попадает год постройки.
func ConstructionPeriodForYear(year int) ConstructionPeriod {
	if year <= 0 {
		return PeriodUnknown
	}
	if year < 1906 {
		return PeriodBefore1906
	}
	if year > 2020 {
		return PeriodAfter2020
	}
	for _, b := range constructionPeriodBounds {
		if year >= b.from && year <= b.to {
			return b.period
		}
	}
	return PeriodUnknown
}

// ConstructionPeriodsForRange возвращает уникальные периоды, покрывающие
// диапазон лет [startYear, endYear].
func ConstructionPeriodsForRange(startYear, endYear int) []ConstructionPeriod {
	if endYear < startYear {
		startYear, endYear = endYear, startYear
	}
	var periods []ConstructionPeriod
	seen := make(map[ConstructionPeriod]struct{})
	for year := startYear; year <= endYear; year++ {
		p := ConstructionPeriodForYear(year)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		periods = append(periods, p)
	}
	return periods
}

// PriceRange - ценовой фильтр, обе границы включительно. Нулевая верхняя
// граница означает "без ограничения".
type PriceRange struct {
	From float64
	To   float64
}

// SearchParams - неизменяемый дескриптор одного поискового запроса.
// FromIndex всегда кратен размеру страницы: страницы адресуются номером,
// а смещение вычисляется, а не задается снаружи.
type SearchParams struct {
	SelectedAreas      []string
	OfferingType       OfferingType
	Price              *PriceRange
	FreeTextSearch     string
	Availability       []Availability
	PublicationDate    PublicationDate
	ConstructionPeriod []ConstructionPeriod
	EnergyLabels       []EnergyLabel
	Page               int
}

// FromIndex возвращает смещение в поисковом индексе для страницы запроса.
func (p SearchParams) FromIndex() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * constants.PageSize
}

// WithPage возвращает копию параметров для другой страницы.
func (p SearchParams) WithPage(page int) SearchParams {
	p.Page = page
	return p
}
