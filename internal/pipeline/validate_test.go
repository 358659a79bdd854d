package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"registration-analytics/internal/model"
)

func TestDecode(t *testing.T) {
	reg, err := Decode(rawRegistration("a", "C1", "Math", "100.50", "€", "Instagram", "paid", "10.0.0.1"))
	require.NoError(t, err)

	assert.Equal(t, "a", reg.ID)
	assert.Equal(t, "2024-01-15T10:30:00Z", reg.CreatedAt)
	assert.Equal(t, "C1", reg.Cohort)
	assert.Equal(t, "Math", reg.Course)
	assert.True(t, dec("100.5").Equal(reg.PaidPrice))
	assert.Equal(t, "€", reg.PaymentCurrency)
	assert.Equal(t, "Instagram", reg.SourceOfDiscovery)
	assert.Equal(t, "paid", reg.Status)
	assert.Equal(t, "10.0.0.1", reg.UserIP)
}

func TestDecodeValueTypes(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	d128, err := primitive.ParseDecimal128("12.34")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(model.RawRecord)
		check  func(*testing.T, model.Registration)
	}{
		{
			name:   "mongo object id",
			mutate: func(r model.RawRecord) { delete(r, "id"); r["_id"] = oid },
			check:  func(t *testing.T, reg model.Registration) { assert.Equal(t, oid.Hex(), reg.ID) },
		},
		{
			name:   "numeric cohort",
			mutate: func(r model.RawRecord) { r["cohort"] = int32(7) },
			check:  func(t *testing.T, reg model.Registration) { assert.Equal(t, "7", reg.Cohort) },
		},
		{
			name:   "time value",
			mutate: func(r model.RawRecord) { r["createdAt"] = created },
			check:  func(t *testing.T, reg model.Registration) { assert.Equal(t, "2024-01-15T10:30:00Z", reg.CreatedAt) },
		},
		{
			name:   "bson datetime",
			mutate: func(r model.RawRecord) { r["createdAt"] = primitive.NewDateTimeFromTime(created) },
			check:  func(t *testing.T, reg model.Registration) { assert.Equal(t, "2024-01-15T10:30:00Z", reg.CreatedAt) },
		},
		{
			name:   "json number",
			mutate: func(r model.RawRecord) { r["paidPrice"] = json.Number("0.1") },
			check:  func(t *testing.T, reg model.Registration) { assert.True(t, dec("0.1").Equal(reg.PaidPrice)) },
		},
		{
			name:   "decimal128",
			mutate: func(r model.RawRecord) { r["paidPrice"] = d128 },
			check:  func(t *testing.T, reg model.Registration) { assert.True(t, dec("12.34").Equal(reg.PaidPrice)) },
		},
		{
			name:   "int64",
			mutate: func(r model.RawRecord) { r["paidPrice"] = int64(250) },
			check:  func(t *testing.T, reg model.Registration) { assert.True(t, decimal.NewFromInt(250).Equal(reg.PaidPrice)) },
		},
		{
			name:   "zero price",
			mutate: func(r model.RawRecord) { r["paidPrice"] = 0 },
			check:  func(t *testing.T, reg model.Registration) { assert.True(t, reg.PaidPrice.IsZero()) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawRegistration("a", "C1", "Math", "100", "€", "Instagram", "paid", "10.0.0.1")
			tt.mutate(raw)
			reg, err := Decode(raw)
			require.NoError(t, err)
			tt.check(t, reg)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(model.RawRecord)
		field  string
		want   error
	}{
		{"missing course", func(r model.RawRecord) { delete(r, "course") }, "course", ErrMissingField},
		{"null status", func(r model.RawRecord) { r["status"] = nil }, "status", ErrMissingField},
		{"missing currency", func(r model.RawRecord) { delete(r, "paymentCurrency") }, "paymentCurrency", ErrMissingField},
		{"text price", func(r model.RawRecord) { r["paidPrice"] = "free" }, "paidPrice", ErrInvalidField},
		{"negative price", func(r model.RawRecord) { r["paidPrice"] = -5 }, "paidPrice", ErrInvalidField},
		{"numeric timestamp", func(r model.RawRecord) { r["createdAt"] = 1705314600 }, "createdAt", ErrInvalidField},
		{"nested cohort", func(r model.RawRecord) { r["cohort"] = map[string]interface{}{"x": 1} }, "cohort", ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawRegistration("a", "C1", "Math", "100", "€", "Instagram", "paid", "10.0.0.1")
			tt.mutate(raw)

			_, err := Decode(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestDecodeReportsFirstMissingFieldInOrder(t *testing.T) {
	_, err := Decode(model.RawRecord{"cohort": "C1"})

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.FieldCreatedAt, fe.Field)
}
