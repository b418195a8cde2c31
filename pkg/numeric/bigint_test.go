package numeric

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIntScanValueRoundTrip(t *testing.T) {
	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457", 10)
	require.True(t, ok)

	n := FromBig(huge)
	v, err := n.Value()
	require.NoError(t, err)

	var back Int
	require.NoError(t, back.Scan(v))
	assert.Equal(t, 0, n.Cmp(back))
}

func TestIntScanSources(t *testing.T) {
	var n Int
	require.NoError(t, n.Scan(int64(-42)))
	assert.Equal(t, "-42", n.String())

	require.NoError(t, n.Scan([]byte("1000000000000000000")))
	got, fits := n.Int64()
	require.True(t, fits)
	assert.Equal(t, int64(1_000_000_000_000_000_000), got)

	require.NoError(t, n.Scan(nil))
	assert.True(t, n.IsZero())

	assert.Error(t, n.Scan("not-a-number"))

	// Floats cannot carry the full magnitude; corruption must surface as an
	// error, never as a silently rounded value.
	assert.Error(t, n.Scan(float64(42)))
}

func TestIntSQLitePersistence(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	type ledgerRow struct {
		ID    int64 `gorm:"primaryKey;autoIncrement:false"`
		Value Int
	}
	require.NoError(t, db.AutoMigrate(&ledgerRow{}))

	// 8 * 2^96 sits far past float64's 53-bit mantissa, so any float leg in
	// the round trip would shift the low bits.
	exact := new(big.Int).Lsh(big.NewInt(8), 96)
	require.NoError(t, db.Create(&ledgerRow{ID: 1, Value: FromBig(exact)}).Error)

	var got ledgerRow
	require.NoError(t, db.First(&got, 1).Error)
	assert.Equal(t, exact.String(), got.Value.String())
}

func TestIntJSON(t *testing.T) {
	n := NewInt(7)
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, `"7"`, string(data))

	var back Int
	require.NoError(t, json.Unmarshal([]byte(`"-123456789012345678901234567890"`), &back))
	assert.Equal(t, "-123456789012345678901234567890", back.String())

	require.NoError(t, json.Unmarshal([]byte(`42`), &back))
	assert.Equal(t, "42", back.String())
}

func TestIntZeroValue(t *testing.T) {
	var n Int
	assert.True(t, n.IsZero())
	assert.Equal(t, "0", n.String())
	assert.Equal(t, int64(0), n.Big().Int64())
}
