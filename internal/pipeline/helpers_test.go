package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"registration-analytics/internal/model"
)

func rawRegistration(id, cohort, course, price, currency, source, status, ip string) model.RawRecord {
	return model.RawRecord{
		"id":                id,
		"createdAt":         "2024-01-15T10:30:00Z",
		"cohort":            cohort,
		"course":            course,
		"paidPrice":         price,
		"paymentCurrency":   currency,
		"sourceOfDiscovery": source,
		"status":            status,
		"userIp":            ip,
	}
}

// sampleBatch is three C1 registrations, two in the reference currency
func sampleBatch() []model.RawRecord {
	return []model.RawRecord{
		rawRegistration("a", "C1", "Math", "100", "€", "Instagram", "paid", "10.0.0.1"),
		rawRegistration("b", "C1", "Math", "5000", "₦", "Instagram", "pending", "10.0.0.2"),
		rawRegistration("c", "C1", "Physics", "50", "€", "Instagram", "paid", "10.0.0.1"),
	}
}

func derive(t *testing.T, raw []model.RawRecord) []model.DerivedRecord {
	t.Helper()
	res, err := Derive(raw, Options{ReferenceCurrency: "€", RejectPolicy: RejectAbort})
	require.NoError(t, err)
	return res.Records
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got interface{}) {
	t.Helper()
	d, ok := got.(decimal.Decimal)
	require.True(t, ok, "expected decimal, got %T", got)
	require.True(t, dec(want).Equal(d), "expected %s, got %s", want, d)
}
