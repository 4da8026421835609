package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount_TrimsTrailingZeros(t *testing.T) {
	assert.Equal(t, "1.2345", Amount(1.2345))
	assert.Equal(t, "10", Amount(10.0))
	assert.Equal(t, "0.5", Amount(0.50000))
	assert.Equal(t, "0", Amount(0))
}

func TestAmount_NonFiniteFallsBackToZero(t *testing.T) {
	assert.Equal(t, "0", Amount(math.NaN()))
	assert.Equal(t, "0", Amount(math.Inf(1)))
}

func TestSignedAmount(t *testing.T) {
	assert.Equal(t, "+2", SignedAmount(2))
	assert.Equal(t, "-0.25", SignedAmount(-0.25))
	assert.Equal(t, "+0", SignedAmount(0))
}

func TestUSD_Buckets(t *testing.T) {
	assert.Equal(t, "$0", USD(0))
	assert.Equal(t, "< $0.0001", USD(0.00005))
	assert.Equal(t, "$0.0042", USD(0.0042))
	assert.Equal(t, "$12.34", USD(12.341))
	// Always rendered as a magnitude.
	assert.Equal(t, "$12.34", USD(-12.341))
}

func TestSignedUSD(t *testing.T) {
	assert.Equal(t, "+$12.34", SignedUSD(12.34))
	assert.Equal(t, "-$0.50", SignedUSD(-0.5))
	assert.Equal(t, "+$0", SignedUSD(0))
}

func TestChangePercent_EdgeCases(t *testing.T) {
	assert.Equal(t, "+0.00%", ChangePercent(0, 0))
	assert.Equal(t, "+100.00%", ChangePercent(0, 55))
	assert.Equal(t, "+25.00%", ChangePercent(16, 20))
	assert.Equal(t, "-50.00%", ChangePercent(20, 10))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.34%", Percent(12.34))
	assert.Equal(t, "0.00%", Percent(0))
}
