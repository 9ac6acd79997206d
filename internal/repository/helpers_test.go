package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableTimeRoundTrip(t *testing.T) {
	assert.Nil(t, nullableTimeToString(nil, time.RFC3339Nano))
	assert.Nil(t, parseNullableTime(sql.NullString{}, time.RFC3339Nano))
	assert.Nil(t, parseNullableTime(sql.NullString{Valid: true}, time.RFC3339Nano))
	assert.Nil(t, parseNullableTime(sql.NullString{String: "yesterday", Valid: true}, time.RFC3339Nano))

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("IST", 3600))
	raw := nullableTimeToString(&at, time.RFC3339Nano)
	require.Equal(t, "2026-03-01T08:30:00Z", raw)

	got := parseNullableTime(sql.NullString{String: raw.(string), Valid: true}, time.RFC3339Nano)
	require.NotNil(t, got)
	assert.True(t, got.Equal(at))
}

func TestBoolIntColumns(t *testing.T) {
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))
	assert.True(t, intToBool(1))
	assert.True(t, intToBool(2))
	assert.False(t, intToBool(0))
}
