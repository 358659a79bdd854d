package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"registration-analytics/internal/pipeline"
)

func TestToRawRecordConvertsBSONTypes(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	price, err := primitive.ParseDecimal128("5000.50")
	require.NoError(t, err)

	rec := toRawRecord(bson.M{
		"_id":               oid,
		"createdAt":         primitive.NewDateTimeFromTime(created),
		"cohort":            int32(3),
		"course":            "Math",
		"paidPrice":         price,
		"paymentCurrency":   "₦",
		"sourceOfDiscovery": "Instagram",
		"status":            "enrolled",
		"userIp":            "10.0.0.1",
		"meta":              bson.M{"_id": "nested"},
	})

	assert.Equal(t, oid.Hex(), rec["id"])
	assert.NotContains(t, rec, "_id")
	assert.Equal(t, created, rec["createdAt"])

	reg, err := pipeline.Decode(rec)
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), reg.ID)
	assert.Equal(t, "3", reg.Cohort)
	assert.Equal(t, "5000.5", reg.PaidPrice.String())
	assert.Equal(t, "2024-01-15T10:30:00Z", reg.CreatedAt)
}

func TestToRawRecordKeepsExplicitID(t *testing.T) {
	rec := toRawRecord(bson.M{"_id": primitive.NewObjectID(), "id": "reg-1"})
	assert.Equal(t, "reg-1", rec["id"])
}

func TestToRawRecordLeavesNestedDocumentsAlone(t *testing.T) {
	nestedID := primitive.NewObjectID()
	rec := toRawRecord(bson.M{
		"_id":  "top",
		"meta": bson.M{"_id": nestedID, "tags": bson.A{"a", bson.M{"_id": "x"}}},
	})

	assert.Equal(t, "top", rec["id"])
	meta, ok := rec["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, nestedID.Hex(), meta["_id"])
	assert.NotContains(t, meta, "id")

	tags, ok := meta["tags"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"_id": "x"}, tags[1])
}
