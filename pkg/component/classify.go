package component

const (
	lowComplexityMax    = 5
	mediumComplexityMax = 15
)

// Score is the additive complexity score: one point per prop, hook call and
// Archbase dependency, plus two when the component binds a DataSource.
func Score(a *ComponentAnalysis) int {
	score := len(a.Props) + len(a.Hooks) + len(a.Dependencies)
	if a.DataSourceUsage.HasDataSource {
		score += 2
	}
	return score
}

// ClassifyComplexity buckets a score: up to 5 is low, up to 15 medium.
func ClassifyComplexity(score int) Complexity {
	switch {
	case score <= lowComplexityMax:
		return ComplexityLow
	case score <= mediumComplexityMax:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

func classify(a *ComponentAnalysis) {
	a.Complexity = ClassifyComplexity(Score(a))
}
