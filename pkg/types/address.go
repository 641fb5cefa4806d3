package types

import "strings"

// Address is a postal delivery address stored as a jsonb column.
type Address struct {
	FirstName  string  `json:"first_name,omitempty"`
	LastName   string  `json:"last_name,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	Suburb     string  `json:"suburb,omitempty"`
	City       string  `json:"city"`
	Province   string  `json:"province"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// IsZero reports whether no meaningful address fields are populated.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Line1) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.PostalCode) == ""
}

// Normalized returns a copy with a default country applied.
func (a Address) Normalized() Address {
	if strings.TrimSpace(a.Country) == "" {
		a.Country = "ZA"
	}
	return a
}
