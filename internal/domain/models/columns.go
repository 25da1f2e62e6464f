package models

import "fmt"

// Column describes one entry of the operator-configured column schema.
// Field is nil for the identity column, which represents the document ID
// itself and is always read-only regardless of the Editable flag.
type Column struct {
	Display  string  `json:"display" mapstructure:"display"`
	Field    *string `json:"field" mapstructure:"field"`
	Editable bool    `json:"editable" mapstructure:"editable"`
}

// IsIdentity reports whether the column represents the document ID.
func (c Column) IsIdentity() bool {
	return c.Field == nil
}

// Columns is an ordered column schema. It is passive configuration: the
// engine re-derives its field→editable mapping from it whenever it
// changes, and must tolerate any subset, ordering, or renaming.
type Columns []Column

// Validate rejects schemas the engine cannot work with. An empty schema
// and blank display names are the only hard failures; everything else is
// operator preference.
func (cs Columns) Validate() error {
	if len(cs) == 0 {
		return fmt.Errorf("column schema is empty")
	}
	for i, c := range cs {
		if c.Display == "" {
			return fmt.Errorf("column %d has no display name", i)
		}
		if c.Field != nil && *c.Field == "" {
			return fmt.Errorf("column %q has an empty field name", c.Display)
		}
	}
	return nil
}

// EditableFields returns the field→editable mapping for all non-identity
// columns. The identity column never appears in the result.
func (cs Columns) EditableFields() map[string]bool {
	out := make(map[string]bool, len(cs))
	for _, c := range cs {
		if c.Field == nil {
			continue
		}
		out[*c.Field] = c.Editable
	}
	return out
}

// Fields returns the ordered non-identity field names.
func (cs Columns) Fields() []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		if c.Field != nil {
			out = append(out, *c.Field)
		}
	}
	return out
}

// FieldFor resolves a display name to its field name. ok is false when no
// column has that display name; a nil field with ok true is the identity
// column.
func (cs Columns) FieldFor(display string) (field *string, ok bool) {
	for _, c := range cs {
		if c.Display == display {
			return c.Field, true
		}
	}
	return nil, false
}

func fieldRef(name string) *string { return &name }

// DefaultColumns is the built-in registration schema used when no saved
// schema exists or the saved one fails to parse.
func DefaultColumns() Columns {
	return Columns{
		{Display: "Document ID", Field: nil, Editable: false},
		{Display: "First Name", Field: fieldRef("name"), Editable: true},
		{Display: "Email", Field: fieldRef("email"), Editable: true},
		{Display: "Phone No.", Field: fieldRef("phone"), Editable: true},
		{Display: "School", Field: fieldRef("school"), Editable: true},
		{Display: "Custom School", Field: fieldRef("customSchool"), Editable: true},
		{Display: "Committee Preferences", Field: fieldRef("committeePreferences"), Editable: true},
		{Display: "Portfolio Preferences", Field: fieldRef("portfolioPreferences"), Editable: true},
		{Display: "DOB", Field: fieldRef("dob"), Editable: true},
		{Display: "Final Committee", Field: fieldRef("finalCommittee"), Editable: true},
		{Display: "Final Portfolio", Field: fieldRef("finalPortfolio"), Editable: true},
		{Display: "Payment SS URL", Field: fieldRef("screenshotURL"), Editable: true},
		{Display: "Updated", Field: fieldRef(FieldUpdatedAt), Editable: false},
	}
}
