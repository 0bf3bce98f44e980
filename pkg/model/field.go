package model

import "strings"

// Field names a column of an order record.
// The string value is the storage name used in documents and query strings.
type Field string

const (
	FieldCode              Field = "code"
	FieldOrderDate         Field = "orderDate"
	FieldOrderNumber       Field = "orderNumber"
	FieldMaterialNumber    Field = "materialNumber"
	FieldSalesDocument     Field = "salesDocument"
	FieldBatchNumber       Field = "batchNumber"
	FieldYear              Field = "year"
	FieldClubName          Field = "clubName"
	FieldOrderType         Field = "orderType"
	FieldStatus            Field = "status"
	FieldCDD               Field = "cdd"
	FieldUPSTrackingNumber Field = "upsTrackingNumber"
)

var fieldLabels = map[Field]string{
	FieldCode:              "Code",
	FieldOrderDate:         "Order Date",
	FieldOrderNumber:       "Order Number",
	FieldMaterialNumber:    "Material Number",
	FieldSalesDocument:     "Sales Document",
	FieldBatchNumber:       "Batch Number",
	FieldYear:              "Year",
	FieldClubName:          "Club Name",
	FieldOrderType:         "Order Type",
	FieldStatus:            "Status",
	FieldCDD:               "CDD",
	FieldUPSTrackingNumber: "UPS Tracking Number",
}

// AllFields returns every record field in column order.
func AllFields() []Field {
	return []Field{
		FieldCode, FieldOrderDate, FieldOrderNumber, FieldMaterialNumber, FieldSalesDocument,
		FieldBatchNumber, FieldYear, FieldClubName, FieldOrderType, FieldStatus, FieldCDD,
		FieldUPSTrackingNumber,
	}
}

// SearchableFields returns the fields that support exact-match search.
func SearchableFields() []Field {
	return []Field{FieldOrderNumber, FieldMaterialNumber, FieldSalesDocument}
}

// Label returns the operator-facing column name, e.g. "Material Number".
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// IsValid reports whether f is a known record field.
func (f Field) IsValid() bool {
	_, ok := fieldLabels[f]
	return ok
}

// IsSearchable reports whether f can be used for exact-match search.
func (f Field) IsSearchable() bool {
	for _, s := range SearchableFields() {
		if s == f {
			return true
		}
	}
	return false
}

// IsOrderable reports whether f can drive the pagination order.
func (f Field) IsOrderable() bool {
	return f == FieldOrderDate || f == FieldCode || f.IsSearchable()
}

var fieldAliases = func() map[string]Field {
	m := make(map[string]Field, len(fieldLabels)*2)
	for f, label := range fieldLabels {
		m[foldName(string(f))] = f
		m[foldName(label)] = f
	}
	return m
}()

// ParseField resolves a storage name or a label, ignoring case, spaces,
// underscores and hyphens. "Material Number", "material_number" and
// "materialNumber" all resolve to FieldMaterialNumber.
func ParseField(name string) (Field, bool) {
	f, ok := fieldAliases[foldName(name)]
	return f, ok
}

func foldName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
