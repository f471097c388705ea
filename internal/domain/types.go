package domain

import (
	"time"
)

// Place is a point of interest shown on the map.
type Place struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	ImageURL        string   `json:"imageUrl"`
	TicketPrice     *int     `json:"ticketPrice,omitempty"`
	PreviewImages   []string `json:"previewImages"`
	OfficialWebsite *string  `json:"officialWebsite,omitempty"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
}

// Purchasable reports whether a ticket can be bought for the place in-app.
func (p Place) Purchasable() bool {
	return p.TicketPrice != nil
}

// CollectibleRecord is a user's acquired NFT tied to a place.
type CollectibleRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	PlaceID    string    `json:"placeId"`
	Label      string    `json:"name"`
	ImageURL   string    `json:"imageUrl"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// CollectionEntry is a CollectibleRecord joined with its place name.
// PlaceName is nil when the place row no longer exists.
type CollectionEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ImageURL   string    `json:"imageUrl"`
	PlaceID    string    `json:"placeId"`
	PlaceName  *string   `json:"placeName"`
	AcquiredAt time.Time `json:"acquiredAt"`
}
