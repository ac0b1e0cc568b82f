package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusPrecedenceOrder(t *testing.T) {
	ordered := []Status{StatusPending, StatusVerifying, StatusVerified, StatusWarning, StatusFailed}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Precedence(), ordered[i-1].Precedence(),
			"%s must outrank %s", ordered[i], ordered[i-1])
	}
	assert.Equal(t, -1, Status("bogus").Precedence())
}

func TestMergeNeverRegresses(t *testing.T) {
	assert.Equal(t, StatusVerifying, Merge(StatusPending, StatusVerifying))
	assert.Equal(t, StatusFailed, Merge(StatusVerifying, StatusFailed))

	// stale updates are dropped
	assert.Equal(t, StatusFailed, Merge(StatusFailed, StatusVerifying))
	assert.Equal(t, StatusWarning, Merge(StatusWarning, StatusVerified))
	assert.Equal(t, StatusVerified, Merge(StatusVerified, StatusVerified))
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusVerifying.Terminal())
	assert.True(t, StatusVerified.Terminal())
	assert.True(t, StatusWarning.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestRiskLevelRankAndMax(t *testing.T) {
	assert.Equal(t, RiskCritical, MaxRisk(RiskLow, RiskCritical))
	assert.Equal(t, RiskHigh, MaxRisk(RiskHigh, RiskMedium))
	assert.Equal(t, RiskLow, MaxRisk(RiskLow, RiskLevel("junk")), "unknown level never escalates")
}

func TestParseRiskLevelFallsBackToMedium(t *testing.T) {
	assert.Equal(t, RiskHigh, ParseRiskLevel("HIGH"))
	assert.Equal(t, RiskMedium, ParseRiskLevel("severe"))
	assert.Equal(t, RiskMedium, ParseRiskLevel(""))
}
