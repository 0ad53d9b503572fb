package models

import "time"

// FieldKey identifies a client field that can be inherited during a merge
type FieldKey string

const (
	FieldName          FieldKey = "name"
	FieldEmail         FieldKey = "email"
	FieldPhone         FieldKey = "phone"
	FieldTaxID         FieldKey = "tax_id"
	FieldBirthDate     FieldKey = "birth_date"
	FieldProfession    FieldKey = "profession"
	FieldMaritalStatus FieldKey = "marital_status"
	FieldPostalCode    FieldKey = "postal_code"
	FieldAddress       FieldKey = "address"
	FieldCity          FieldKey = "city"
	FieldState         FieldKey = "state"
	FieldNotes         FieldKey = "notes"
)

// BirthDateLayout is the textual form of a birth date inside merge fields
const BirthDateLayout = "2006-01-02"

// SmartMergeField is a field the secondary client can contribute to the primary
type SmartMergeField struct {
	Field          FieldKey `json:"field"`
	Label          string   `json:"label"`
	PrimaryValue   string   `json:"primary_value"`
	SecondaryValue string   `json:"secondary_value"`
	WillInherit    bool     `json:"will_inherit"`
}

// MergeRequest is the input handed to the merge executor
type MergeRequest struct {
	TenantID     string            `json:"tenant_id"`
	PrimaryID    string            `json:"primary_id"`
	SecondaryIDs []string          `json:"secondary_ids"`
	Fields       []SmartMergeField `json:"fields"`
}

// MergeOutcome describes a committed merge
type MergeOutcome struct {
	ID              string         `json:"id"`
	TenantID        string         `json:"tenant_id"`
	PrimaryID       string         `json:"primary_id"`
	SecondaryIDs    []string       `json:"secondary_ids"`
	Transferred     map[string]int `json:"transferred"`
	InheritedFields []FieldKey     `json:"inherited_fields"`
	Operator        string         `json:"operator,omitempty"`
	MergedAt        time.Time      `json:"merged_at"`
}
