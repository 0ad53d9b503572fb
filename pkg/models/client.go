package models

import (
	"time"

	"github.com/Gobusters/ectolinq"
)

// Client is a customer record owned by a broker account (tenant)
type Client struct {
	ID            string     `json:"id" db:"id"`
	TenantID      string     `json:"tenant_id" db:"tenant_id"`
	Name          string     `json:"name" db:"name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	TaxID         string     `json:"tax_id" db:"tax_id"`
	BirthDate     *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	Profession    string     `json:"profession" db:"profession"`
	MaritalStatus string     `json:"marital_status" db:"marital_status"`
	PostalCode    string     `json:"postal_code" db:"postal_code"`
	Address       string     `json:"address" db:"address"`
	City          string     `json:"city" db:"city"`
	State         string     `json:"state" db:"state"`
	Notes         string     `json:"notes" db:"notes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ClientRelationships counts the business objects linked to a client
type ClientRelationships struct {
	ClientID     string `json:"client_id" db:"client_id"`
	Policies     int    `json:"policies" db:"policies"`
	Appointments int    `json:"appointments" db:"appointments"`
	Claims       int    `json:"claims" db:"claims"`
}

// Total returns the number of linked objects across all kinds
func (r ClientRelationships) Total() int {
	return r.Policies + r.Appointments + r.Claims
}

// ClientIDs returns the ids of the given clients in order
func ClientIDs(clients []Client) []string {
	return ectolinq.Map(clients, func(c Client) string {
		return c.ID
	})
}
