package domain

import (
	"fmt"
	"strings"
	"time"
)

// Address - адрес объекта из поисковой выдачи.
type Address struct {
	Country      string
	Province     string
	City         string
	Municipality string
	Neighborhood string
	StreetName   string
	HouseNumber  string
	PostalCode   string
	IsBAGAddress bool
}

// FullAddress возвращает человекочитаемый адрес для CSV и логов.
func (a Address) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.StreetName + " " + a.HouseNumber, a.PostalCode, a.City} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Agent - агентство, разместившее объявление.
type Agent struct {
	ID            int64
	Name          string
	AssociationID string
	LogoID        int64
	LogoType      string
	RelativeURL   string
	IsPrimary     bool
}

// PropertyPrice - цена из поисковой выдачи, до очистки.
type PropertyPrice struct {
	Condition    string
	Type         string
	RentPrice    []float64
	SellingPrice []float64
	Suffix       string
}

// First возвращает первое значение цены по типу предложения, 0 если нет.
func (p PropertyPrice) First(offering OfferingType) float64 {
	var vals []float64
	if offering == OfferingRent {
		vals = p.RentPrice
	} else {
		vals = p.SellingPrice
	}
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}

// Property - одна карточка из поисковой выдачи funda.
type Property struct {
	ID                 int64
	Address            Address
	AgencyName         string
	Agents             []Agent
	AvailabilityStatus string
	ConstructionType   string
	EnergyLabel        string
	FloorArea          []int
	PlotArea           []int
	Bedrooms           []int
	ObjectType         string
	OfferingType       []string
	Price              PropertyPrice
	PublishDate        time.Time
	RelativeURL        string
	ThumbnailID        []int64
}

// DetailURL возвращает абсолютный URL страницы объявления.
func (p Property) DetailURL(indexURL string) string {
	rel := strings.TrimPrefix(p.RelativeURL, "/")
	return strings.TrimSuffix(indexURL, "/") + "/" + rel
}

// размеры изображений медиахранилища funda
var imageSizeMap = map[string]string{
	"small":  "360x240",
	"medium": "720x480",
	"large":  "1440x960",
}

// ImageURL строит URL изображения по его идентификатору. Идентификатор
// дополняется нулями до девяти цифр и разбивается на три сегмента пути.
func ImageURL(photoID int64, size string) string {
	resolution, ok := imageSizeMap[size]
	if !ok {
		resolution = imageSizeMap["medium"]
	}
	id := fmt.Sprintf("%09d", photoID)
	return fmt.Sprintf("https://cloud.funda.nl/valentina_media/%s/%s/%s_%s.jpg",
		id[:3], id[3:6], id[6:], resolution)
}

// ThumbnailURL возвращает URL превью среднего размера, пустую строку
// если превью нет.
func (p Property) ThumbnailURL() string {
	if len(p.ThumbnailID) == 0 {
		return ""
	}
	return ImageURL(p.ThumbnailID[0], "medium")
}

// PageResult - результат загрузки одной страницы выдачи.
type PageResult struct {
	Page       int
	Total      int
	Properties []Property
	Err        error
}

// SearchResult - агрегат по всем страницам одного запроса.
type SearchResult struct {
	Total       int
	Pages       int
	FailedPages []int
	Properties  []Property
}
