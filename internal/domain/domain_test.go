package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteness(t *testing.T) {
	long := strings.Repeat("x", 21)
	cases := []struct {
		name  string
		story Story
		want  float64
	}{
		{"empty", Story{}, 0},
		{"one short section", Story{Situation: "a"}, 0.25},
		{"all short sections", Story{Situation: "a", Task: "b", Action: "c", Result: "d"}, 1.0},
		{"all meaningful sections", Story{Situation: long, Task: long, Action: long, Result: long}, 1.2},
		{"whitespace does not count", Story{Situation: "   "}, 0},
		{"mixed", Story{Situation: long, Task: "b"}, 0.55},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.story.Completeness(), 1e-9)
		})
	}
}

func TestCompletenessBoundary(t *testing.T) {
	long := strings.Repeat("x", 21)
	// Exactly 20 trimmed characters is not meaningful; 21 is.
	exactly20 := strings.Repeat("y", 20)
	s := Story{Situation: long, Task: long, Action: long, Result: exactly20}
	assert.InDelta(t, 1.0+3.0/4.0*0.2, s.Completeness(), 1e-9)
	assert.GreaterOrEqual(t, s.Completeness(), CompleteThreshold)
}

func TestValidCategory(t *testing.T) {
	for _, c := range ActivityCategories {
		assert.True(t, ValidCategory(c), c)
	}
	assert.False(t, ValidCategory("weekend"))
	assert.False(t, ValidCategory(""))
}

func TestImpactMetricsRoundTrip(t *testing.T) {
	m := ImpactMetrics{
		Category: MetricsTechnical,
		Technical: &TechnicalMetrics{
			PerformanceImprovement: "40%",
			CostReduction:          "$12k",
		},
		Other: map[string]any{"custom_note": "observed in prod"},
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var got ImpactMetrics
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, MetricsTechnical, got.Category)
	require.NotNil(t, got.Technical)
	assert.Equal(t, "40%", got.Technical.PerformanceImprovement)
	assert.Equal(t, "$12k", got.Technical.CostReduction)
	assert.Equal(t, "observed in prod", got.Other["custom_note"])
}

func TestImpactMetricsUnknownCategory(t *testing.T) {
	raw := []byte(`{"category":"community","talks_given":"3"}`)
	var m ImpactMetrics
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "community", m.Category)
	assert.Nil(t, m.Technical)
	assert.Equal(t, "3", m.Other["talks_given"])

	data, err := json.Marshal(m)
	require.NoError(t, err)
	var round map[string]any
	require.NoError(t, json.Unmarshal(data, &round))
	assert.Equal(t, "community", round["category"])
	assert.Equal(t, "3", round["talks_given"])
}

func TestImpactMetricsMerge(t *testing.T) {
	base := ImpactMetrics{
		Category:        MetricsCustomerSuccess,
		CustomerSuccess: &CustomerSuccessMetrics{CustomerSatisfaction: "9/10"},
	}
	patch := ImpactMetrics{
		Category:        MetricsCustomerSuccess,
		CustomerSuccess: &CustomerSuccessMetrics{RevenueImpact: "$50k"},
	}
	merged := base.Merge(patch)
	require.NotNil(t, merged.CustomerSuccess)
	assert.Equal(t, "9/10", merged.CustomerSuccess.CustomerSatisfaction)
	assert.Equal(t, "$50k", merged.CustomerSuccess.RevenueImpact)
}

func TestImpactMetricsIsZero(t *testing.T) {
	assert.True(t, ImpactMetrics{}.IsZero())
	assert.False(t, ImpactMetrics{Category: MetricsProcess}.IsZero())
	assert.False(t, ImpactMetrics{Other: map[string]any{"k": "v"}}.IsZero())
}

func TestErrorKinds(t *testing.T) {
	err := NotFoundf("story %s not found", "abc")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
	assert.Equal(t, "story abc not found", err.Error())

	fe := FieldError("title", "title must not be empty")
	assert.Equal(t, "title", fe.Field)
	kind, ok = KindOf(fe)
	require.True(t, ok)
	assert.Equal(t, KindValidation, kind)

	wrapped := fmt.Errorf("saving: %w", Externalf("model unreachable"))
	kind, ok = KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindExternal, kind)

	_, ok = KindOf(fmt.Errorf("plain"))
	assert.False(t, ok)
	_, ok = KindOf(nil)
	assert.False(t, ok)
}
