package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"registration-analytics/internal/model"
)

// requiredFields are the fields every aggregation depends on
var requiredFields = []string{
	model.FieldCreatedAt,
	model.FieldCohort,
	model.FieldCourse,
	model.FieldPaidPrice,
	model.FieldPaymentCurrency,
	model.FieldSourceOfDiscovery,
	model.FieldStatus,
	model.FieldUserIP,
}

// Decode extracts a Registration from a raw document. It fails on the first
// missing or unusable field; values are never defaulted.
func Decode(rec model.RawRecord) (model.Registration, error) {
	var reg model.Registration

	id, err := optionalText(rec, model.FieldID, "_id")
	if err != nil {
		return reg, err
	}
	reg.ID = id

	for _, field := range requiredFields {
		if _, ok := rec[field]; !ok {
			return reg, fieldError(field, ErrMissingField)
		}
		if rec[field] == nil {
			return reg, fieldError(field, fmt.Errorf("%w: null value", ErrMissingField))
		}
	}

	if reg.CreatedAt, err = timestampText(rec[model.FieldCreatedAt]); err != nil {
		return reg, fieldError(model.FieldCreatedAt, err)
	}
	if reg.PaidPrice, err = amount(rec[model.FieldPaidPrice]); err != nil {
		return reg, fieldError(model.FieldPaidPrice, err)
	}
	if reg.PaidPrice.IsNegative() {
		return reg, fieldError(model.FieldPaidPrice, fmt.Errorf("%w: negative amount %s", ErrInvalidField, reg.PaidPrice))
	}

	text := []struct {
		field string
		dst   *string
	}{
		{model.FieldCohort, &reg.Cohort},
		{model.FieldCourse, &reg.Course},
		{model.FieldPaymentCurrency, &reg.PaymentCurrency},
		{model.FieldSourceOfDiscovery, &reg.SourceOfDiscovery},
		{model.FieldStatus, &reg.Status},
		{model.FieldUserIP, &reg.UserIP},
	}
	for _, t := range text {
		v, err := scalarText(rec[t.field])
		if err != nil {
			return reg, fieldError(t.field, err)
		}
		*t.dst = v
	}

	return reg, nil
}

func optionalText(rec model.RawRecord, keys ...string) (string, error) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			s, err := scalarText(v)
			if err != nil {
				return "", fieldError(k, err)
			}
			return s, nil
		}
	}
	return "", nil
}

// scalarText renders identifiers and labels. Cohorts are often stored as numbers.
func scalarText(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case primitive.ObjectID:
		return val.Hex(), nil
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidField, v)
	}
}

// timestampText keeps createdAt textual so SplitTimestamp owns parsing.
func timestampText(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano), nil
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidField, v)
	}
}

// amount converts a stored number to an exact decimal
func amount(v interface{}) (decimal.Decimal, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int32:
		return decimal.NewFromInt32(val), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case float32:
		return decimal.NewFromFloat32(val), nil
	case json.Number:
		return parseAmount(val.String())
	case primitive.Decimal128:
		return parseAmount(val.String())
	case string:
		return parseAmount(val)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidField, v)
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidField, s)
	}
	return d, nil
}
