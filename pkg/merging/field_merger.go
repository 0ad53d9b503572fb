package merging

import (
	"time"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
)

// mergeableField describes one client field the merge can carry over
type mergeableField struct {
	key   models.FieldKey
	label string
	get   func(c models.Client) string
	set   func(c *models.Client, value string)
}

// mergeableFields is the fixed, ordered set of fields considered by a smart merge
var mergeableFields = []mergeableField{
	{
		key: models.FieldName, label: "Name",
		get: func(c models.Client) string { return c.Name },
		set: func(c *models.Client, v string) { c.Name = v },
	},
	{
		key: models.FieldEmail, label: "Email",
		get: func(c models.Client) string { return c.Email },
		set: func(c *models.Client, v string) { c.Email = v },
	},
	{
		key: models.FieldPhone, label: "Phone",
		get: func(c models.Client) string { return c.Phone },
		set: func(c *models.Client, v string) { c.Phone = v },
	},
	{
		key: models.FieldTaxID, label: "Tax ID",
		get: func(c models.Client) string { return c.TaxID },
		set: func(c *models.Client, v string) { c.TaxID = v },
	},
	{
		key: models.FieldBirthDate, label: "Birth date",
		get: func(c models.Client) string {
			if c.BirthDate == nil || c.BirthDate.IsZero() {
				return ""
			}
			return c.BirthDate.Format(models.BirthDateLayout)
		},
		set: func(c *models.Client, v string) {
			if t, err := time.Parse(models.BirthDateLayout, v); err == nil {
				c.BirthDate = &t
			}
		},
	},
	{
		key: models.FieldProfession, label: "Profession",
		get: func(c models.Client) string { return c.Profession },
		set: func(c *models.Client, v string) { c.Profession = v },
	},
	{
		key: models.FieldMaritalStatus, label: "Marital status",
		get: func(c models.Client) string { return c.MaritalStatus },
		set: func(c *models.Client, v string) { c.MaritalStatus = v },
	},
	{
		key: models.FieldPostalCode, label: "Postal code",
		get: func(c models.Client) string { return c.PostalCode },
		set: func(c *models.Client, v string) { c.PostalCode = v },
	},
	{
		key: models.FieldAddress, label: "Address",
		get: func(c models.Client) string { return c.Address },
		set: func(c *models.Client, v string) { c.Address = v },
	},
	{
		key: models.FieldCity, label: "City",
		get: func(c models.Client) string { return c.City },
		set: func(c *models.Client, v string) { c.City = v },
	},
	{
		key: models.FieldState, label: "State",
		get: func(c models.Client) string { return c.State },
		set: func(c *models.Client, v string) { c.State = v },
	},
	{
		key: models.FieldNotes, label: "Notes",
		get: func(c models.Client) string { return c.Notes },
		set: func(c *models.Client, v string) { c.Notes = v },
	},
}

// FieldKeys returns the mergeable fields in display order
func FieldKeys() []models.FieldKey {
	keys := make([]models.FieldKey, len(mergeableFields))
	for i, f := range mergeableFields {
		keys[i] = f.key
	}
	return keys
}

// IsMergeableField reports whether key names a field a merge can inherit
func IsMergeableField(key models.FieldKey) bool {
	_, ok := lookupField(key)
	return ok
}

func lookupField(key models.FieldKey) (mergeableField, bool) {
	for _, f := range mergeableFields {
		if f.key == key {
			return f, true
		}
	}
	return mergeableField{}, false
}

// FieldMerger handles field-level merge logic between a primary and a secondary client
type FieldMerger struct{}

// NewFieldMerger creates a new FieldMerger
func NewFieldMerger() *FieldMerger {
	return &FieldMerger{}
}

// ComputeFields lists every field the secondary has a value for. A field defaults to
// inherited only when the primary's value is blank.
func (m *FieldMerger) ComputeFields(primary, secondary models.Client) []models.SmartMergeField {
	fields := make([]models.SmartMergeField, 0, len(mergeableFields))
	for _, f := range mergeableFields {
		secondaryValue := f.get(secondary)
		if isBlank(secondaryValue) {
			continue
		}
		primaryValue := f.get(primary)
		fields = append(fields, models.SmartMergeField{
			Field:          f.key,
			Label:          f.label,
			PrimaryValue:   primaryValue,
			SecondaryValue: secondaryValue,
			WillInherit:    isBlank(primaryValue),
		})
	}
	return fields
}

// ToggleField flips WillInherit on the named field. It reports false when the field is
// not part of the list.
func (m *FieldMerger) ToggleField(fields []models.SmartMergeField, key models.FieldKey) ([]models.SmartMergeField, bool) {
	out := append([]models.SmartMergeField(nil), fields...)
	for i := range out {
		if out[i].Field == key {
			out[i].WillInherit = !out[i].WillInherit
			return out, true
		}
	}
	return out, false
}

// InheritedFields keeps only the fields approved for inheritance
func (m *FieldMerger) InheritedFields(fields []models.SmartMergeField) []models.SmartMergeField {
	return ectolinq.Filter(fields, func(f models.SmartMergeField) bool {
		return f.WillInherit
	})
}

// ApplyFields returns a copy of client with the inherited secondary values written in
func (m *FieldMerger) ApplyFields(client models.Client, fields []models.SmartMergeField) models.Client {
	for _, f := range fields {
		if !f.WillInherit {
			continue
		}
		if mf, ok := lookupField(f.Field); ok {
			mf.set(&client, f.SecondaryValue)
		}
	}
	return client
}
