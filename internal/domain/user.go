package domain

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Hash      string `json:"-"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"isAdmin"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
}
