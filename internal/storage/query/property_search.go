package query

import (
	"fmt"
	"math"

	"lightbnb/internal/domain"
)

// DefaultLimit applies when the caller passes a non-positive limit.
const DefaultLimit = 10

// MaxPricePerNight bounds price filters in major units so the cent value
// always fits an int64.
const MaxPricePerNight = 1e15

// PropertyColumns is the column list scanned into domain.Property, in order.
const PropertyColumns = `properties.id,
  properties.owner_id,
  properties.title,
  properties.description,
  properties.thumbnail_photo_url,
  properties.cover_photo_url,
  properties.cost_per_night,
  properties.parking_spaces,
  properties.number_of_bathrooms,
  properties.number_of_bedrooms,
  properties.country,
  properties.street,
  properties.city,
  properties.province,
  properties.post_code,
  properties.active`

const propertySearchBase = `
SELECT
  ` + PropertyColumns + `,
  AVG(property_reviews.rating) AS average_rating
FROM properties
JOIN property_reviews ON properties.id = property_reviews.property_id`

// PropertySearch renders the filtered property search. Row filters go to WHERE,
// the rating threshold goes to HAVING after grouping on properties.id, and the
// limit is always the last argument. Unbindable bounds yield domain.ErrInvalidFilter.
func PropertySearch(d Dialect, f domain.PropertyFilter, limit int) (string, []any, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := NewSelect(d, propertySearchBase)

	if f.City != nil && *f.City != "" {
		s.Where("city "+d.CaseSensitiveLike()+" ?", "%"+*f.City+"%")
	}
	if f.OwnerID != nil {
		s.Where("owner_id = ?", *f.OwnerID)
	}
	if f.MinimumPricePerNight != nil {
		cents, err := ToMinorUnits(*f.MinimumPricePerNight)
		if err != nil {
			return "", nil, fmt.Errorf("minimum_price_per_night: %w", err)
		}
		s.Where("cost_per_night >= ?", cents)
	}
	if f.MaximumPricePerNight != nil {
		cents, err := ToMinorUnits(*f.MaximumPricePerNight)
		if err != nil {
			return "", nil, fmt.Errorf("maximum_price_per_night: %w", err)
		}
		s.Where("cost_per_night <= ?", cents)
	}

	s.GroupBy("properties.id")

	if f.MinimumRating != nil {
		r := *f.MinimumRating
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return "", nil, fmt.Errorf("minimum_rating %v: %w", r, domain.ErrInvalidFilter)
		}
		s.Having("AVG(property_reviews.rating) >= ?", r)
	}

	s.OrderBy("cost_per_night").Limit(limit)
	return s.Build()
}

// ToMinorUnits converts a major-unit price to cents. Non-finite values and
// magnitudes above MaxPricePerNight are rejected with domain.ErrInvalidFilter.
func ToMinorUnits(major float64) (int64, error) {
	if math.IsNaN(major) || math.IsInf(major, 0) || math.Abs(major) > MaxPricePerNight {
		return 0, fmt.Errorf("price %v: %w", major, domain.ErrInvalidFilter)
	}
	return int64(math.Round(major * 100)), nil
}
