package model

import (
	"github.com/shopspring/decimal"
)

// RawRecord is a schema-agnostic document as returned by a loader
type RawRecord map[string]interface{}

// Document field names, as stored in the registration collection
const (
	FieldID                = "id"
	FieldCreatedAt         = "createdAt"
	FieldCohort            = "cohort"
	FieldCourse            = "course"
	FieldPaidPrice         = "paidPrice"
	FieldPaymentCurrency   = "paymentCurrency"
	FieldSourceOfDiscovery = "sourceOfDiscovery"
	FieldStatus            = "status"
	FieldUserIP            = "userIp"
)

// Derived field names
const (
	FieldDate                    = "date"
	FieldTime                    = "time"
	FieldPaidInReferenceCurrency = "paidInReferenceCurrency"
	FieldPaidInOtherCurrency     = "paidInOtherCurrency"
)

// Registration is one decoded course-registration event
type Registration struct {
	ID                string          `json:"id,omitempty"`
	CreatedAt         string          `json:"createdAt"`
	Cohort            string          `json:"cohort"`
	Course            string          `json:"course"`
	PaidPrice         decimal.Decimal `json:"paidPrice"`
	PaymentCurrency   string          `json:"paymentCurrency"`
	SourceOfDiscovery string          `json:"sourceOfDiscovery"`
	Status            string          `json:"status"`
	UserIP            string          `json:"userIp"`
}

// DerivedRecord is a Registration plus the fields computed by the pipeline.
// Date and Time are empty until the timestamp has been split; the currency
// buckets are invalid until the record has been normalized.
type DerivedRecord struct {
	Registration
	Date                    string              `json:"date,omitempty"`
	Time                    string              `json:"time,omitempty"`
	PaidInReferenceCurrency decimal.NullDecimal `json:"paidInReferenceCurrency"`
	PaidInOtherCurrency     decimal.NullDecimal `json:"paidInOtherCurrency"`
}

// Value returns a categorical field by name. Amount fields are served by Amount.
func (r DerivedRecord) Value(field string) (string, bool) {
	switch field {
	case FieldID:
		return r.ID, r.ID != ""
	case FieldCreatedAt:
		return r.CreatedAt, r.CreatedAt != ""
	case FieldCohort:
		return r.Cohort, true
	case FieldCourse:
		return r.Course, true
	case FieldPaymentCurrency:
		return r.PaymentCurrency, true
	case FieldSourceOfDiscovery:
		return r.SourceOfDiscovery, true
	case FieldStatus:
		return r.Status, true
	case FieldUserIP:
		return r.UserIP, true
	case FieldDate:
		return r.Date, r.Date != ""
	case FieldTime:
		return r.Time, r.Time != ""
	}
	return "", false
}

// Amount returns a numeric field by name
func (r DerivedRecord) Amount(field string) (decimal.Decimal, bool) {
	switch field {
	case FieldPaidPrice:
		return r.PaidPrice, true
	case FieldPaidInReferenceCurrency:
		return r.PaidInReferenceCurrency.Decimal, r.PaidInReferenceCurrency.Valid
	case FieldPaidInOtherCurrency:
		return r.PaidInOtherCurrency.Decimal, r.PaidInOtherCurrency.Valid
	}
	return decimal.Zero, false
}

// IsCategorical reports whether field can be used as a grouping key
func IsCategorical(field string) bool {
	switch field {
	case FieldID, FieldCreatedAt, FieldCohort, FieldCourse, FieldPaymentCurrency,
		FieldSourceOfDiscovery, FieldStatus, FieldUserIP, FieldDate, FieldTime:
		return true
	}
	return false
}

// IsAmount reports whether field can be summed
func IsAmount(field string) bool {
	switch field {
	case FieldPaidPrice, FieldPaidInReferenceCurrency, FieldPaidInOtherCurrency:
		return true
	}
	return false
}
