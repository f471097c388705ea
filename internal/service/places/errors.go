package places

import "errors"

var (
	ErrPlaceNotFound  = errors.New("place not found")
	ErrNotPurchasable = errors.New("place has no ticket for sale")
)
