package domain

// Cart is a snapshot of the server-side cart. It is read fresh for every
// decision and never cached.
type Cart struct {
	Lines []CartLine `json:"lines" yaml:"lines"`
	Total CartTotal  `json:"total" yaml:"total"`
}

// CartLine is one product's quantity within the cart.
type CartLine struct {
	ProductID    string  `json:"product_id" yaml:"product_id"`
	Quantity     int     `json:"quantity" yaml:"quantity"`
	PricePerUnit float64 `json:"price_per_unit" yaml:"price_per_unit"`
}

// CartTotal carries the totals computed by the server.
type CartTotal struct {
	Quantity int     `json:"quantity" yaml:"quantity"`
	Price    float64 `json:"price" yaml:"price"`
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID string) (CartLine, bool) {
	if c == nil {
		return CartLine{}, false
	}
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Lines) == 0
}

// CartItem is a cart line enriched with the product it refers to.
type CartItem struct {
	CartLine     `yaml:",inline"`
	Product      *Product `json:"product" yaml:"product"`
	CanIncrement bool     `json:"can_increment" yaml:"can_increment"`
}

// CartView is the cart page: enriched lines plus server totals.
type CartView struct {
	Items []CartItem `json:"items" yaml:"items"`
	Total CartTotal  `json:"total" yaml:"total"`
}
