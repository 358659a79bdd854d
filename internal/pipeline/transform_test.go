package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registration-analytics/internal/model"
)

func decoded(t *testing.T, raw ...model.RawRecord) []model.DerivedRecord {
	t.Helper()
	regs := make([]model.Registration, 0, len(raw))
	for _, r := range raw {
		reg, err := Decode(r)
		require.NoError(t, err)
		regs = append(regs, reg)
	}
	return FromRegistrations(regs)
}

func TestSplitTimestamp(t *testing.T) {
	records := decoded(t, rawRegistration("a", "C1", "Math", "100", "€", "Instagram", "paid", "10.0.0.1"))

	out, err := SplitTimestamp(records)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "2024-01-15", out[0].Date)
	assert.Equal(t, "10:30:00", out[0].Time)

	// input untouched
	assert.Empty(t, records[0].Date)
}

func TestSplitTimestampLayouts(t *testing.T) {
	tests := []struct {
		in, date, time string
	}{
		{"2024-01-15T10:30:00Z", "2024-01-15", "10:30:00"},
		{"2024-01-15T10:30:00.250+01:00", "2024-01-15", "10:30:00.25"},
		{"2024-01-15T23:59:59", "2024-01-15", "23:59:59"},
		{"2024-01-15 08:05:09", "2024-01-15", "08:05:09"},
		{"Mon, 15 Jan 2024 10:30:00 +0000", "2024-01-15", "10:30:00"},
		{"2024-01-15", "2024-01-15", "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			raw := rawRegistration("a", "C1", "Math", "100", "€", "Instagram", "paid", "10.0.0.1")
			raw["createdAt"] = tt.in

			out, err := SplitTimestamp(decoded(t, raw))
			require.NoError(t, err)
			assert.Equal(t, tt.date, out[0].Date)
			assert.Equal(t, tt.time, out[0].Time)
		})
	}
}

func TestSplitTimestampMalformed(t *testing.T) {
	bad := rawRegistration("b", "C1", "Math", "100", "€", "Instagram", "paid", "10.0.0.1")
	bad["createdAt"] = "15/01/2024 morning"
	records := decoded(t, rawRegistration("a", "C1", "Math", "100", "€", "Instagram", "paid", "10.0.0.1"), bad)

	out, err := SplitTimestamp(records)
	assert.Nil(t, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTimestamp)

	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Index)
	assert.Equal(t, "b", re.ID)
	assert.Equal(t, model.FieldCreatedAt, re.Field)
}

func TestNormalizeCurrency(t *testing.T) {
	records := decoded(t, sampleBatch()...)

	out, err := NormalizeCurrency(records, "€")
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.True(t, dec("100").Equal(out[0].PaidInReferenceCurrency.Decimal))
	assert.True(t, out[0].PaidInOtherCurrency.Decimal.IsZero())
	assert.True(t, out[1].PaidInReferenceCurrency.Decimal.IsZero())
	assert.True(t, dec("5000").Equal(out[1].PaidInOtherCurrency.Decimal))

	// input untouched
	assert.False(t, records[0].PaidInReferenceCurrency.Valid)
}

func TestNormalizeCurrencyConservesAmount(t *testing.T) {
	raw := []model.RawRecord{
		rawRegistration("a", "C1", "Math", "0.1", "€", "x", "paid", "ip"),
		rawRegistration("b", "C1", "Math", "0.2", "$", "x", "paid", "ip"),
		rawRegistration("c", "C1", "Math", "0", "€", "x", "paid", "ip"),
		rawRegistration("d", "C1", "Math", "0", "₦", "x", "paid", "ip"),
		rawRegistration("e", "C1", "Math", "1234567.891", "EUR", "x", "paid", "ip"),
	}
	out, err := NormalizeCurrency(decoded(t, raw...), "€")
	require.NoError(t, err)

	for _, rec := range out {
		ref, other := rec.PaidInReferenceCurrency.Decimal, rec.PaidInOtherCurrency.Decimal
		assert.True(t, ref.Add(other).Equal(rec.PaidPrice), rec.ID)
		assert.True(t, ref.IsZero() || other.IsZero(), rec.ID)
		if rec.PaidPrice.IsPositive() {
			assert.NotEqual(t, ref.IsZero(), other.IsZero(), rec.ID)
		}
	}
}

func TestNormalizeCurrencyIsIdempotent(t *testing.T) {
	once, err := NormalizeCurrency(decoded(t, sampleBatch()...), "€")
	require.NoError(t, err)
	twice, err := NormalizeCurrency(once, "€")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestNormalizeCurrencyMatchesSymbolExactly(t *testing.T) {
	raw := rawRegistration("a", "C1", "Math", "10", "€ ", "x", "paid", "ip")
	out, err := NormalizeCurrency(decoded(t, raw), "€")
	require.NoError(t, err)

	assert.True(t, out[0].PaidInReferenceCurrency.Decimal.IsZero())
	assert.True(t, dec("10").Equal(out[0].PaidInOtherCurrency.Decimal))
}

func TestNormalizeCurrencyErrors(t *testing.T) {
	_, err := NormalizeCurrency(decoded(t, sampleBatch()...), "")
	assert.ErrorIs(t, err, ErrEmptyReferenceCurrency)

	raw := rawRegistration("a", "C1", "Math", "10", "", "x", "paid", "ip")
	_, err = NormalizeCurrency(decoded(t, raw), "€")
	assert.ErrorIs(t, err, ErrMissingField)

	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, model.FieldPaymentCurrency, re.Field)
}

func TestEmptyBatch(t *testing.T) {
	out, err := SplitTimestamp(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = NormalizeCurrency([]model.DerivedRecord{}, "€")
	require.NoError(t, err)
	assert.Empty(t, out)
}
