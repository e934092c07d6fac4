package storefront

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Preferences []string  `json:"preferences"`
	Location    *Location `json:"location,omitempty"`
}

type CategoryRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji,omitempty"`
}

type Seller struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location *Location `json:"location,omitempty"`
}

// Product is a catalog entry. Quantity is the local purchase amount and is
// never sent to or read from the API.
type Product struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	OriginalPrice      float64      `json:"originalPrice"`
	DiscountedPrice    float64      `json:"discountedPrice"`
	DiscountPercentage float64      `json:"discountPercentage"`
	AvailableQuantity  int          `json:"availableQuantity"`
	CategoryID         string       `json:"categoryId"`
	SellerID           string       `json:"sellerId"`
	Category           *CategoryRef `json:"category,omitempty"`
	Seller             *Seller      `json:"seller,omitempty"`

	Quantity int `json:"-"`
}

type Category struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Emoji    string   `json:"emoji,omitempty"`
	Products []string `json:"products"`
}

// Chip is a category filter with its member products.
type Chip struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Emoji    string    `json:"emoji,omitempty"`
	Products []Product `json:"products"`
}

const PaymentCash = "cash"

type OrderRequest struct {
	BookedByID    string  `json:"bookedById"`
	ProductID     string  `json:"productId"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	PaymentMethod string  `json:"paymentMethod"`
}

type Order struct {
	ID            string  `json:"id"`
	BookedByID    string  `json:"bookedById"`
	ProductID     string  `json:"productId"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
}

type OrderResponse struct {
	Message string `json:"message"`
	Order   Order  `json:"data"`
}
