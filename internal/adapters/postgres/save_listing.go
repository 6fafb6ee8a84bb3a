package postgres

import (
	"context"
	"fmt"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// SaveListingSummary сохраняет карточку поисковой выдачи. Повторный обход
// перезаписывает изменяемые поля, история карточек не ведется: полная
// история живет в снимках деталей.
func (a *HouseStorageAdapter) SaveListingSummary(ctx context.Context, p *domain.Property) error {
	firstOr := func(vals []int) int {
		if len(vals) == 0 {
			return 0
		}
		return vals[0]
	}

	offering := "rent"
	if len(p.OfferingType) > 0 {
		offering = p.OfferingType[0]
	}

	_, err := a.pool.Exec(ctx,
		`INSERT INTO search_listings
		   (id, status, object_type, construction_type, energy_label,
		    city, postal_code, street_name, house_number, neighborhood,
		    floor_area, plot_area, bedrooms, price, agency_name,
		    offering_type, publish_date, detail_url, seen_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now())
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   energy_label = EXCLUDED.energy_label,
		   floor_area = EXCLUDED.floor_area,
		   plot_area = EXCLUDED.plot_area,
		   bedrooms = EXCLUDED.bedrooms,
		   price = EXCLUDED.price,
		   agency_name = EXCLUDED.agency_name,
		   detail_url = EXCLUDED.detail_url,
		   seen_at = now()`,
		p.ID, p.AvailabilityStatus, p.ObjectType, p.ConstructionType, p.EnergyLabel,
		p.Address.City, p.Address.PostalCode, p.Address.StreetName, p.Address.HouseNumber,
		p.Address.Neighborhood, firstOr(p.FloorArea), firstOr(p.PlotArea), firstOr(p.Bedrooms),
		p.Price.First(domain.OfferingType(offering)), p.AgencyName, offering,
		nullableTime(p), p.RelativeURL,
	)
	if err != nil {
		return fmt.Errorf("HouseStorageAdapter: failed to upsert search listing %d: %w", p.ID, err)
	}
	return nil
}

func nullableTime(p *domain.Property) any {
	if p.PublishDate.IsZero() {
		return nil
	}
	return p.PublishDate
}

// SaveImageRef сохраняет ссылку на изображение, дубликаты игнорируются.
func (a *HouseStorageAdapter) SaveImageRef(ctx context.Context, houseID int64, photoID int64, url string) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO listing_images (house_id, photo_id, url)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (house_id, photo_id) DO NOTHING`,
		houseID, photoID, url,
	)
	if err != nil {
		return fmt.Errorf("HouseStorageAdapter: failed to save image ref: %w", err)
	}
	return nil
}
