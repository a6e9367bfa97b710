package domain

import "encoding/json"

// Product mirrors the commerce API product document.
type Product struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Brand       string      `json:"brand,omitempty" yaml:"brand,omitempty"`
	Thumbnail   string      `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Images      []string    `json:"images,omitempty" yaml:"images,omitempty"`
	Price       Price       `json:"price" yaml:"price"`
	Stock       int         `json:"stock" yaml:"stock"`
	Rating      float64     `json:"rating" yaml:"rating"`
	Category    Category    `json:"category" yaml:"category"`
	IssueDate   string      `json:"issueDate,omitempty" yaml:"issueDate,omitempty"`
	Reviews     []Review    `json:"reviews,omitempty" yaml:"reviews,omitempty"`
	Ratings     []RawRating `json:"ratings,omitempty" yaml:"ratings,omitempty"`
}

// Price holds the current and pre-discount price of a product.
type Price struct {
	Current            float64 `json:"current" yaml:"current"`
	BeforeDiscount     float64 `json:"beforeDiscount" yaml:"beforeDiscount"`
	Currency           string  `json:"currency,omitempty" yaml:"currency,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage,omitempty" yaml:"discountPercentage,omitempty"`
}

// UnmarshalJSON accepts the product id under either "_id" or "id".
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		MongoID string `json:"_id"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.MongoID != "" {
		p.ID = aux.MongoID
	}
	return nil
}

// Review is a rich product review.
type Review struct {
	FirstName string  `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName  string  `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Avatar    string  `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Rating    float64 `json:"rating" yaml:"rating"`
	Comment   string  `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// ReviewEntry is one normalized row of a product's review list.
type ReviewEntry struct {
	ReviewerLabel string  `json:"reviewer" yaml:"reviewer"`
	Score         float64 `json:"score" yaml:"score"`
	Comment       string  `json:"comment,omitempty" yaml:"comment,omitempty"`
	AvatarURL     string  `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
}
