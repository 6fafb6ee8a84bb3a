package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// XPathExtractor реализует разбор страницы объявления по внешнему профилю
// селекторов. Профиль выбирается по типу предложения при создании.
type XPathExtractor struct {
	profile  Profile
	offering domain.OfferingType
}

// NewXPathExtractor создает экстрактор для типа предложения из набора профилей.
func NewXPathExtractor(set ProfileSet, offering domain.OfferingType) (*XPathExtractor, error) {
	profile, ok := set[string(offering)]
	if !ok {
		return nil, fmt.Errorf("extractor: no profile for offering type %q", offering)
	}
	return &XPathExtractor{profile: profile, offering: offering}, nil
}

// заголовки страниц, которые не являются обычными жилыми объявлениями
var nonResidentialKeywords = []string{"parking", "garage", "bouwgrond", "project"}

func queryText(doc *html.Node, xpath string) string {
	if xpath == "" {
		return ""
	}
	node, err := htmlquery.Query(doc, xpath)
	if err != nil || node == nil {
		return ""
	}
	return htmlquery.InnerText(node)
}

func queryAllText(doc *html.Node, xpath string) []string {
	nodes, err := htmlquery.QueryAll(doc, xpath)
	if err != nil {
		return nil
	}
	var parts []string
	for _, n := range nodes {
		if s := strings.TrimSpace(htmlquery.InnerText(n)); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// IsParseable отфильтровывает нежилые объекты, проекты и объявления
// с диапазоном цен до полного разбора.
func (e *XPathExtractor) IsParseable(rawHTML []byte) bool {
	doc, err := htmlquery.Parse(bytes.NewReader(rawHTML))
	if err != nil {
		return false
	}
	return e.isParseableDoc(doc)
}

func (e *XPathExtractor) isParseableDoc(doc *html.Node) bool {
	title := strings.ToLower(queryText(doc, "//title/text()"))
	for _, keyword := range nonResidentialKeywords {
		if strings.Contains(title, keyword) {
			return false
		}
	}

	priceText := queryText(doc, "//div[contains(@class, 'flex-col text-xl')]//*[contains(text(), '€')]/text()")
	if strings.Contains(priceText, "to") || strings.Contains(priceText, "Prijzen op aanvraag") {
		return false
	}
	return true
}

// selectorsForStatus накладывает статусную секцию профиля поверх общей.
func (e *XPathExtractor) selectorsForStatus(status string) map[string]string {
	merged := make(map[string]string, len(e.profile.Common))
	for field, xpath := range e.profile.Common {
		merged[field] = xpath
	}

	var overlay map[string]string
	switch {
	case strings.Contains(status, "rented"):
		overlay = e.profile.Rented
	case strings.Contains(status, "sold"):
		overlay = e.profile.Sold
	default:
		// неизвестный статус разбирается как available
		overlay = e.profile.Available
	}
	for field, xpath := range overlay {
		merged[field] = xpath
	}
	return merged
}

// fieldSetters кладет очищенное значение поля профиля в доменную модель.
var fieldSetters = map[string]func(*domain.HouseDetail, string){
	"city":         func(d *domain.HouseDetail, raw string) { d.City = domain.CleanText(raw) },
	"post_code":    func(d *domain.HouseDetail, raw string) { d.PostCode = domain.CleanPostCode(raw) },
	"address":      func(d *domain.HouseDetail, raw string) { d.Address = domain.CleanText(raw) },
	"neighborhood": func(d *domain.HouseDetail, raw string) { d.Neighborhood = domain.CleanText(raw) },
	"price":        func(d *domain.HouseDetail, raw string) { d.Price = domain.CleanPrice(raw) },
	"service_cost": func(d *domain.HouseDetail, raw string) { d.ServiceCost = domain.CleanPrice(raw) },
	"deposit":      func(d *domain.HouseDetail, raw string) { d.Deposit = domain.CleanPrice(raw) },
	"living_area":  func(d *domain.HouseDetail, raw string) { d.LivingArea = domain.CleanArea(raw) },
	"plot_area":    func(d *domain.HouseDetail, raw string) { d.PlotArea = domain.CleanArea(raw) },
	"volume":       func(d *domain.HouseDetail, raw string) { d.Volume = domain.CleanArea(raw) },
	"rooms":        func(d *domain.HouseDetail, raw string) { d.Rooms = domain.CleanCount(raw) },
	"bedrooms":     func(d *domain.HouseDetail, raw string) { d.Bedrooms = domain.CleanCount(raw) },
	"bathrooms":    func(d *domain.HouseDetail, raw string) { d.Bathrooms = domain.CleanCount(raw) },
	"year_built":   func(d *domain.HouseDetail, raw string) { d.YearBuilt = domain.CleanYear(raw) },
	"house_type":   func(d *domain.HouseDetail, raw string) { d.HouseType = domain.CleanText(raw) },
	"interior":     func(d *domain.HouseDetail, raw string) { d.Interior = domain.CleanText(raw) },
	"energy_label": func(d *domain.HouseDetail, raw string) { d.EnergyLabel = domain.CleanText(raw) },
	"parking":      func(d *domain.HouseDetail, raw string) { d.Parking = domain.CleanText(raw) },
	"garden":       func(d *domain.HouseDetail, raw string) { d.Garden = domain.CleanText(raw) },
	"insulation":   func(d *domain.HouseDetail, raw string) { d.Insulation = domain.CleanText(raw) },
	"heating":      func(d *domain.HouseDetail, raw string) { d.Heating = domain.CleanText(raw) },
	"listed_since": func(d *domain.HouseDetail, raw string) { d.ListedSince = domain.CleanText(raw) },
	"available_at": func(d *domain.HouseDetail, raw string) { d.AvailableAt = domain.CleanText(raw) },
	"agency_name":  func(d *domain.HouseDetail, raw string) { d.AgencyName = domain.CleanText(raw) },
}

// Extract разбирает страницу объявления в доменную модель.
func (e *XPathExtractor) Extract(rawHTML []byte, houseID int64, url string) (*domain.HouseDetail, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extractor: failed to parse HTML for %d: %w", houseID, err)
	}

	if !e.isParseableDoc(doc) {
		return nil, fmt.Errorf("extractor: listing %d: %w", houseID, domain.ErrNotParseable)
	}

	detail := &domain.HouseDetail{
		HouseID:      houseID,
		URL:          url,
		OfferingType: e.offering,
		CrawledAt:    time.Now().UTC(),
	}

	status := "available"
	if raw := strings.TrimSpace(queryText(doc, e.profile.StatusCheckXPath)); raw != "" {
		status = strings.ToLower(raw)
	}
	detail.Status = strings.ToUpper(status[:1]) + status[1:]

	selectors := e.selectorsForStatus(status)

	var missing []string
	for field, xpath := range selectors {
		setter, ok := fieldSetters[field]
		if !ok {
			continue
		}
		raw := queryText(doc, xpath)
		if strings.TrimSpace(raw) == "" {
			missing = append(missing, field)
			continue
		}
		setter(detail, raw)
	}

	// описание собирается из блока текста, с откатом на meta description
	parts := queryAllText(doc, "//div[@data-headlessui-state and contains(@class,'listing-description-text')]/descendant::*/text()")
	detail.Description = strings.Join(parts, " ")
	if detail.Description == "" {
		detail.Description = domain.CleanText(queryText(doc, "//meta[@name='description']/@content"))
	}

	if len(missing) > 0 {
		detail.ParseWarning = "missing fields: " + strings.Join(missing, ", ")
	}

	// запись без обязательного поля сохраняется, но помечается маркером
	// в описании, чтобы выгрузку можно было отфильтровать
	for _, field := range e.profile.Essential {
		if containsField(missing, field) {
			detail.Description = strings.TrimSpace(constants.PartialFailMarker + " " + detail.Description)
			break
		}
	}

	return detail, nil
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
