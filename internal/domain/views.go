package domain

// Populated shapes. The outer reference fields shadow the embedded ids when encoded.

type CategorizedProduct struct {
	Product
	Category *Category `json:"category"`
}

type ReviewWithProduct struct {
	Review
	Product *CategorizedProduct `json:"product"`
}

// ProductDetail is the product tree: category, and reviews with their product and its category.
type ProductDetail struct {
	Product
	Category *Category          `json:"category"`
	Reviews  []ReviewWithProduct `json:"reviews"`
}

type ReviewWithUser struct {
	Review
	User *User `json:"user"`
}

type ReviewDetail struct {
	Review
	User    *User               `json:"user"`
	Product *CategorizedProduct `json:"product"`
}
