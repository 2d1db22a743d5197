package domain

import "encoding/json"

// Known impact-metric categories. Anything else round-trips through the raw
// Other map so older exports keep importing cleanly.
const (
	MetricsCustomerSuccess = "customer_success"
	MetricsTechnical       = "technical"
	MetricsLeadership      = "leadership"
	MetricsProcess         = "process"
)

type CustomerSuccessMetrics struct {
	CustomerSatisfaction string `json:"customer_satisfaction,omitempty"`
	RevenueImpact        string `json:"revenue_impact,omitempty"`
	TimeSaved            string `json:"time_saved,omitempty"`
	EfficiencyGain       string `json:"efficiency_gain,omitempty"`
}

type TechnicalMetrics struct {
	PerformanceImprovement string `json:"performance_improvement,omitempty"`
	CostReduction          string `json:"cost_reduction,omitempty"`
	ScalabilityGain        string `json:"scalability_gain,omitempty"`
	ReliabilityImprovement string `json:"reliability_improvement,omitempty"`
}

type LeadershipMetrics struct {
	TeamProductivity     string `json:"team_productivity,omitempty"`
	EmployeeSatisfaction string `json:"employee_satisfaction,omitempty"`
	RetentionImprovement string `json:"retention_improvement,omitempty"`
	SkillDevelopment     string `json:"skill_development,omitempty"`
}

type ProcessMetrics struct {
	TimeSavings     string `json:"time_savings,omitempty"`
	CostReduction   string `json:"cost_reduction,omitempty"`
	ErrorReduction  string `json:"error_reduction,omitempty"`
	AutomationLevel string `json:"automation_level,omitempty"`
}

// ImpactMetrics is a closed variant over the known metric categories with a
// raw-map escape hatch. Exactly one of the typed pointers is set when
// Category names a known category; keys the typed struct does not cover, and
// every key of an unknown category, live in Other.
type ImpactMetrics struct {
	Category        string                  `json:"-"`
	CustomerSuccess *CustomerSuccessMetrics `json:"-"`
	Technical       *TechnicalMetrics       `json:"-"`
	Leadership      *LeadershipMetrics      `json:"-"`
	Process         *ProcessMetrics         `json:"-"`
	Other           map[string]any          `json:"-"`
}

var metricKeys = map[string][]string{
	MetricsCustomerSuccess: {"customer_satisfaction", "revenue_impact", "time_saved", "efficiency_gain"},
	MetricsTechnical:       {"performance_improvement", "cost_reduction", "scalability_gain", "reliability_improvement"},
	MetricsLeadership:      {"team_productivity", "employee_satisfaction", "retention_improvement", "skill_development"},
	MetricsProcess:         {"time_savings", "cost_reduction", "error_reduction", "automation_level"},
}

// IsZero reports whether no metric data is present.
func (m ImpactMetrics) IsZero() bool {
	return m.Category == "" && m.CustomerSuccess == nil && m.Technical == nil &&
		m.Leadership == nil && m.Process == nil && len(m.Other) == 0
}

func (m ImpactMetrics) typed() any {
	switch m.Category {
	case MetricsCustomerSuccess:
		if m.CustomerSuccess != nil {
			return m.CustomerSuccess
		}
	case MetricsTechnical:
		if m.Technical != nil {
			return m.Technical
		}
	case MetricsLeadership:
		if m.Leadership != nil {
			return m.Leadership
		}
	case MetricsProcess:
		if m.Process != nil {
			return m.Process
		}
	}
	return nil
}

// MarshalJSON flattens the variant back to the wire shape of the original
// exports: a single object keyed by metric name plus "category".
func (m ImpactMetrics) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, v := range m.Other {
		out[k] = v
	}
	if t := m.typed(); t != nil {
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		flat := map[string]any{}
		if err := json.Unmarshal(raw, &flat); err != nil {
			return nil, err
		}
		for k, v := range flat {
			out[k] = v
		}
	}
	if m.Category != "" {
		out["category"] = m.Category
	}
	return json.Marshal(out)
}

func (m *ImpactMetrics) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ImpactMetrics{}
	if c, ok := raw["category"].(string); ok {
		m.Category = c
	}
	delete(raw, "category")

	known, isKnown := metricKeys[m.Category]
	if isKnown {
		picked := map[string]any{}
		for _, k := range known {
			if v, ok := raw[k]; ok {
				picked[k] = v
				delete(raw, k)
			}
		}
		sub, err := json.Marshal(picked)
		if err != nil {
			return err
		}
		switch m.Category {
		case MetricsCustomerSuccess:
			m.CustomerSuccess = &CustomerSuccessMetrics{}
			err = json.Unmarshal(sub, m.CustomerSuccess)
		case MetricsTechnical:
			m.Technical = &TechnicalMetrics{}
			err = json.Unmarshal(sub, m.Technical)
		case MetricsLeadership:
			m.Leadership = &LeadershipMetrics{}
			err = json.Unmarshal(sub, m.Leadership)
		case MetricsProcess:
			m.Process = &ProcessMetrics{}
			err = json.Unmarshal(sub, m.Process)
		}
		if err != nil {
			return err
		}
	}
	if len(raw) > 0 {
		m.Other = raw
	}
	return nil
}

// Merge overlays patch onto m, matching the upsert behavior of metric
// updates: typed fields replace when non-empty, Other keys are merged.
func (m ImpactMetrics) Merge(patch ImpactMetrics) ImpactMetrics {
	a, _ := json.Marshal(m)
	b, _ := json.Marshal(patch)
	base := map[string]any{}
	over := map[string]any{}
	_ = json.Unmarshal(a, &base)
	_ = json.Unmarshal(b, &over)
	for k, v := range over {
		base[k] = v
	}
	merged, _ := json.Marshal(base)
	var out ImpactMetrics
	_ = json.Unmarshal(merged, &out)
	return out
}
