package domain

import "time"

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type Product struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	Images       []string  `json:"images"`
	Brand        string    `json:"brand"`
	Price        float64   `json:"price"`
	CategoryID   string    `json:"category"`
	ForReview    bool      `json:"forReview"`
	ReviewIDs    []string  `json:"reviews"`
	Rating       float64   `json:"rating"`
	IsFeatured   bool      `json:"isFeatured"`
	DateCreated  time.Time `json:"dateCreated"`
	TotalReviews int       `json:"totalReviews"`
}

// Derive fills the computed fields and replaces nil lists with empty ones.
func (p *Product) Derive() {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.ReviewIDs == nil {
		p.ReviewIDs = []string{}
	}
	p.TotalReviews = len(p.ReviewIDs)
}

type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user,omitempty"`
	ProductID   string    `json:"product,omitempty"`
	Date        time.Time `json:"date"`
	Rating      float64   `json:"rating"`
	Description string    `json:"description"`
	IsApproved  bool      `json:"isApproved"`
}
