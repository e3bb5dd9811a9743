package domain

type Property struct {
	ID                int64  `json:"id"`
	OwnerID           int64  `json:"owner_id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ThumbnailPhotoURL string `json:"thumbnail_photo_url"`
	CoverPhotoURL     string `json:"cover_photo_url"`
	CostPerNight      int64  `json:"cost_per_night"` // minor currency units
	ParkingSpaces     int    `json:"parking_spaces"`
	NumberOfBathrooms int    `json:"number_of_bathrooms"`
	NumberOfBedrooms  int    `json:"number_of_bedrooms"`
	Country           string `json:"country"`
	Street            string `json:"street"`
	City              string `json:"city"`
	Province          string `json:"province"`
	PostCode          string `json:"post_code"`
	Active            bool   `json:"active"`
}

// PropertyListing is a search hit: the property plus its mean review rating.
type PropertyListing struct {
	Property
	AverageRating float64 `json:"average_rating"`
}

// PropertyFilter holds the optional search criteria. A nil field is not applied.
// Prices are in major currency units.
type PropertyFilter struct {
	City                 *string  `json:"city,omitempty"`
	OwnerID              *int64   `json:"owner_id,omitempty"`
	MinimumPricePerNight *float64 `json:"minimum_price_per_night,omitempty"`
	MaximumPricePerNight *float64 `json:"maximum_price_per_night,omitempty"`
	MinimumRating        *float64 `json:"minimum_rating,omitempty"`
}
