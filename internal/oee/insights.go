package oee

// InsightKind classifies a derived observation.
type InsightKind string

const (
	InsightWarning     InsightKind = "warning"
	InsightImprovement InsightKind = "improvement"
	InsightAction      InsightKind = "action"
	// InsightNominal is reserved; no rule produces it yet.
	InsightNominal InsightKind = "nominal"
)

// Insight is a human-readable observation about a Metrics snapshot. Insights
// are recomputed on demand and never stored.
type Insight struct {
	Kind    InsightKind `json:"kind"`
	Message string      `json:"message"`
}

// Industry baselines the rules compare against.
const (
	OEEBaseline          = 85.0
	AvailabilityBaseline = 90.0
	QualityBaseline      = 95.0
)

type insightRule struct {
	applies func(Metrics) bool
	insight Insight
}

// Evaluated in order; rules are independent of each other.
var insightRules = []insightRule{
	{
		applies: func(m Metrics) bool { return m.OEE < OEEBaseline },
		insight: Insight{Kind: InsightWarning, Message: "OEE is below industry standard (85%)"},
	},
	{
		applies: func(m Metrics) bool { return m.Availability < AvailabilityBaseline },
		insight: Insight{Kind: InsightImprovement, Message: "Availability can be improved through better maintenance scheduling"},
	},
	{
		applies: func(m Metrics) bool { return m.Quality < QualityBaseline },
		insight: Insight{Kind: InsightAction, Message: "Quality issues detected - Check production parameters"},
	},
}

// DeriveInsights maps a snapshot to the insights whose threshold it misses.
// The result is empty, not nil, when every figure meets its baseline.
func DeriveInsights(m Metrics) []Insight {
	results := make([]Insight, 0, len(insightRules))
	for _, rule := range insightRules {
		if rule.applies(m) {
			results = append(results, rule.insight)
		}
	}
	return results
}
