package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultOrderType is the category assigned when a row carries no order type.
const DefaultOrderType = "Uncategorized"

// MaxCodeLength bounds the natural key so it stays usable as a storage path segment.
const MaxCodeLength = 256

// OrderRecord is one reconciled order line.
//
//	Code is the natural key and the storage identifier. It never changes once
//	assigned; writing a record with an existing Code replaces the stored value.
//	Extras carries spreadsheet columns that have no typed field.
type OrderRecord struct {
	Code              string            `json:"code" bson:"_id" csv:"code" validate:"required,max=256,storagekey"`
	OrderDate         string            `json:"orderDate" bson:"orderDate" csv:"orderDate"`
	OrderNumber       string            `json:"orderNumber" bson:"orderNumber" csv:"orderNumber"`
	MaterialNumber    string            `json:"materialNumber" bson:"materialNumber" csv:"materialNumber"`
	SalesDocument     string            `json:"salesDocument" bson:"salesDocument" csv:"salesDocument"`
	BatchNumber       string            `json:"batchNumber" bson:"batchNumber" csv:"batchNumber"`
	Year              string            `json:"year" bson:"year" csv:"year"`
	ClubName          string            `json:"clubName" bson:"clubName" csv:"clubName"`
	OrderType         string            `json:"orderType" bson:"orderType" csv:"orderType"`
	Status            string            `json:"status" bson:"status" csv:"status"`
	CDD               string            `json:"cdd" bson:"cdd" csv:"cdd"`
	UPSTrackingNumber string            `json:"upsTrackingNumber" bson:"upsTrackingNumber" csv:"upsTrackingNumber"`
	Extras            map[string]string `json:"extras,omitempty" bson:"extras,omitempty" csv:"-"`
}

// Value returns the string value of field f.
func (r OrderRecord) Value(f Field) string {
	switch f {
	case FieldCode:
		return r.Code
	case FieldOrderDate:
		return r.OrderDate
	case FieldOrderNumber:
		return r.OrderNumber
	case FieldMaterialNumber:
		return r.MaterialNumber
	case FieldSalesDocument:
		return r.SalesDocument
	case FieldBatchNumber:
		return r.BatchNumber
	case FieldYear:
		return r.Year
	case FieldClubName:
		return r.ClubName
	case FieldOrderType:
		return r.OrderType
	case FieldStatus:
		return r.Status
	case FieldCDD:
		return r.CDD
	case FieldUPSTrackingNumber:
		return r.UPSTrackingNumber
	}
	return ""
}

// Set assigns v to field f. Unknown fields are ignored.
func (r *OrderRecord) Set(f Field, v string) {
	switch f {
	case FieldCode:
		r.Code = v
	case FieldOrderDate:
		r.OrderDate = v
	case FieldOrderNumber:
		r.OrderNumber = v
	case FieldMaterialNumber:
		r.MaterialNumber = v
	case FieldSalesDocument:
		r.SalesDocument = v
	case FieldBatchNumber:
		r.BatchNumber = v
	case FieldYear:
		r.Year = v
	case FieldClubName:
		r.ClubName = v
	case FieldOrderType:
		r.OrderType = v
	case FieldStatus:
		r.Status = v
	case FieldCDD:
		r.CDD = v
	case FieldUPSTrackingNumber:
		r.UPSTrackingNumber = v
	}
}

// AsMap flattens the record into label-free storage names, extras included.
func (r OrderRecord) AsMap() map[string]interface{} {
	m := make(map[string]interface{}, len(AllFields())+len(r.Extras))
	for k, v := range r.Extras {
		m[k] = v
	}
	for _, f := range AllFields() {
		m[string(f)] = r.Value(f)
	}
	return m
}

// Normalize trims every value, applies the OrderType default and rewrites
// recognisable dates in OrderDate and CDD to YYYY-MM-DD.
func (r *OrderRecord) Normalize(defaultOrderType string) {
	for _, f := range AllFields() {
		r.Set(f, strings.TrimSpace(r.Value(f)))
	}
	if r.OrderType == "" {
		r.OrderType = defaultOrderType
	}
	r.OrderDate = NormalizeDate(r.OrderDate)
	r.CDD = NormalizeDate(r.CDD)
	r.Year = normalizeYear(r.Year)
}

// Validate checks the record can be stored.
func (r OrderRecord) Validate() error {
	return validate.Struct(r)
}

// CheckStorageKey reports whether key can address a record in the store.
func CheckStorageKey(key string) bool {
	return key != "" && len(key) <= MaxCodeLength && !strings.ContainsAny(key, "/.$#[]")
}

var validate = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("storagekey", func(fl validator.FieldLevel) bool {
		return CheckStorageKey(fl.Field().String())
	})
	return v
}()

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"01-02-06",
	"1/2/06",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// NormalizeDate rewrites s as YYYY-MM-DD when it is a known date layout or an
// Excel serial day number. Anything else is returned unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if t, ok := ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		return excelEpoch.AddDate(0, 0, int(serial)).Format("2006-01-02")
	}
	return s
}

// ParseDate parses s with the layouts accepted for date columns.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeYear(s string) string {
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
