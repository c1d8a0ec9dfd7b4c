package domain

type Customer struct {
	ID           string
	Name         string
	Email        string
	PhoneNumber  string
	Address      string
	Pin          string
	AadharNumber string
	Status       string
}
