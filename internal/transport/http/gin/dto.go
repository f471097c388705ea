package httpgin

type ErrorResponse struct {
	Error string `json:"error"`
}

// AcquireNFTRequest binds without `required` tags so that missing fields are
// reported by the collection service together, not one at a time by gin.
type AcquireNFTRequest struct {
	PlaceID  string `json:"placeId"`
	NftName  string `json:"nftName"`
	ImageURL string `json:"imageUrl"`
}

type AcquireNFTResponse struct {
	Success bool   `json:"success"`
	NftID   string `json:"nftId"`
	Message string `json:"message"`
}

type ScanRequest struct {
	PlaceID string `json:"placeId"`
}

type TicketStubResponse struct {
	PlaceID     string `json:"placeId"`
	TicketPrice int    `json:"ticketPrice"`
	Message     string `json:"message"`
}

type MarkersQuery struct {
	LatitudeDelta *float64 `form:"latitudeDelta" binding:"required"`
	Selected      string   `form:"selected"`
}
