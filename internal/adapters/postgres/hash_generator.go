package postgres

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// buildAttributeBlob собирает описательные атрибуты объявления в JSON
// с детерминированным порядком ключей. Блоб пишется в снимок и участвует
// в хэше содержимого.
func buildAttributeBlob(d *domain.HouseDetail) ([]byte, error) {
	attrs := map[string]any{
		"city":         d.City,
		"post_code":    d.PostCode,
		"address":      d.Address,
		"neighborhood": d.Neighborhood,
		"service_cost": d.ServiceCost,
		"deposit":      d.Deposit,
		"living_area":  d.LivingArea,
		"plot_area":    d.PlotArea,
		"volume":       d.Volume,
		"rooms":        d.Rooms,
		"bedrooms":     d.Bedrooms,
		"bathrooms":    d.Bathrooms,
		"year_built":   d.YearBuilt,
		"house_type":   d.HouseType,
		"interior":     d.Interior,
		"energy_label": d.EnergyLabel,
		"parking":      d.Parking,
		"garden":       d.Garden,
		"insulation":   d.Insulation,
		"heating":      d.Heating,
		"listed_since": d.ListedSince,
		"available_at": d.AvailableAt,
		"agency_name":  d.AgencyName,
		"description":  d.Description,
	}
	// ключи map сериализуются отсортированными, блоб стабилен
	blob, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attribute blob: %w", err)
	}
	return blob, nil
}

// buildHashPayload создает стабильную строку из ключевых полей объявления
// для хэширования: статус, цена и блоб атрибутов.
func buildHashPayload(d *domain.HouseDetail, attributeBlob []byte) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(d.Status)),
		fmt.Sprintf("%.2f", d.Price),
		string(attributeBlob),
	}
	return strings.Join(parts, "|")
}

// calculateContentHash вычисляет SHA256 хэш для снимка.
func calculateContentHash(payload string) string {
	h := sha256.New()
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum(nil))
}
