package models

// CartItem is a single line of a shopping cart. OldPrice is the price before
// a discount and is nil for items that are not discounted.
type CartItem struct {
	ID       string   `bson:"id" json:"id"`
	Name     string   `bson:"name" json:"name"`
	Price    float64  `bson:"price" json:"price"`
	OldPrice *float64 `bson:"oldPrice,omitempty" json:"oldPrice,omitempty"`
	Quantity int      `bson:"quantity" json:"quantity"`
}
