package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"registration-analytics/internal/model"
)

// DefaultReferenceCurrency is the symbol treated as the reference currency
const DefaultReferenceCurrency = "€"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05.999999"
)

// timestampLayouts are tried in order when parsing createdAt
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123Z,
	time.RFC1123,
	dateLayout,
}

// ParseTimestamp parses a createdAt value in any of the accepted layouts
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// SplitTimestamp returns copies of records with date and time split from
// createdAt. The first unparseable timestamp aborts the batch.
func SplitTimestamp(records []model.DerivedRecord) ([]model.DerivedRecord, error) {
	out := make([]model.DerivedRecord, len(records))
	for i, rec := range records {
		split, err := splitTimestamp(rec)
		if err != nil {
			return nil, recordError(i, rec.ID, model.FieldCreatedAt, err)
		}
		out[i] = split
	}
	return out, nil
}

func splitTimestamp(rec model.DerivedRecord) (model.DerivedRecord, error) {
	t, err := ParseTimestamp(rec.CreatedAt)
	if err != nil {
		return rec, err
	}
	rec.Date = t.Format(dateLayout)
	rec.Time = t.Format(timeLayout)
	return rec, nil
}

// NormalizeCurrency returns copies of records with paidPrice attributed to
// the reference bucket when paymentCurrency equals referenceSymbol and to the
// other bucket otherwise. The two buckets always sum to paidPrice.
func NormalizeCurrency(records []model.DerivedRecord, referenceSymbol string) ([]model.DerivedRecord, error) {
	if referenceSymbol == "" {
		return nil, ErrEmptyReferenceCurrency
	}

	out := make([]model.DerivedRecord, len(records))
	for i, rec := range records {
		normalized, err := normalizeCurrency(rec, referenceSymbol)
		if err != nil {
			return nil, recordError(i, rec.ID, model.FieldPaymentCurrency, err)
		}
		out[i] = normalized
	}
	return out, nil
}

func normalizeCurrency(rec model.DerivedRecord, referenceSymbol string) (model.DerivedRecord, error) {
	if rec.PaymentCurrency == "" {
		return rec, fmt.Errorf("%w: empty value", ErrMissingField)
	}
	ref, other := decimal.Zero, decimal.Zero
	if rec.PaymentCurrency == referenceSymbol {
		ref = rec.PaidPrice
	} else {
		other = rec.PaidPrice
	}
	rec.PaidInReferenceCurrency = decimal.NewNullDecimal(ref)
	rec.PaidInOtherCurrency = decimal.NewNullDecimal(other)
	return rec, nil
}

// FromRegistrations wraps decoded registrations as derived records with no
// derived fields set yet.
func FromRegistrations(regs []model.Registration) []model.DerivedRecord {
	out := make([]model.DerivedRecord, len(regs))
	for i, reg := range regs {
		out[i] = model.DerivedRecord{Registration: reg}
	}
	return out
}
