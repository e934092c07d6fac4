package storefront

// DefaultMarkerEmoji is used for products whose category has no emoji.
const DefaultMarkerEmoji = "🛒"

// Marker is the data behind one map pin. Rendering is left to the caller.
type Marker struct {
	ProductID          string
	Name               string
	Lat                float64
	Lng                float64
	Emoji              string
	DiscountPercentage float64
	Quantity           int
	AvailableQuantity  int
}

// Markers returns one marker per product whose seller has a location, in
// catalog order.
func Markers(products []Product) []Marker {
	out := make([]Marker, 0, len(products))
	for _, p := range products {
		if p.Seller == nil || p.Seller.Location == nil {
			continue
		}
		emoji := DefaultMarkerEmoji
		if p.Category != nil && p.Category.Emoji != "" {
			emoji = p.Category.Emoji
		}
		out = append(out, Marker{
			ProductID:          p.ID,
			Name:               p.Name,
			Lat:                p.Seller.Location.Lat,
			Lng:                p.Seller.Location.Lng,
			Emoji:              emoji,
			DiscountPercentage: p.DiscountPercentage,
			Quantity:           p.Quantity,
			AvailableQuantity:  p.AvailableQuantity,
		})
	}
	return out
}
