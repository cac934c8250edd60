package coupling

import (
	"fmt"
	"slices"
)

// Action is the kind of improvement suggested for a module.
type Action string

const (
	// Split suggests breaking up an unstable module that others depend on.
	Split Action = "split"
	// Decouple suggests moving a module back towards the main sequence.
	Decouple Action = "decouple"
)

// Suggestion flags one module.
type Suggestion struct {
	Module    string  `json:"module"`
	Action    Action  `json:"action"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

// SuggestImprovements flags a module whose instability or distance exceeds
// threshold. Unstable modules with dependents get a split suggestion; modules
// far from the main sequence get a decouple suggestion naming their zone.
func SuggestImprovements(module string, m Metrics, threshold float64) []Suggestion {
	var out []Suggestion
	if m.Instability > threshold && m.Afferent > 0 {
		out = append(out, Suggestion{
			Module:    module,
			Action:    Split,
			Metric:    "instability",
			Value:     m.Instability,
			Threshold: threshold,
			Message: fmt.Sprintf("%s is unstable (I=%.2f) yet %d modules depend on it; split the stable part out",
				module, m.Instability, m.Afferent),
		})
	}
	if m.Distance > threshold {
		zone := "zone of pain: concrete and heavily depended upon"
		if m.Abstractness+m.Instability > 1 {
			zone = "zone of uselessness: abstract with few dependents"
		}
		out = append(out, Suggestion{
			Module:    module,
			Action:    Decouple,
			Metric:    "distance",
			Value:     m.Distance,
			Threshold: threshold,
			Message:   fmt.Sprintf("%s is far from the main sequence (D=%.2f, %s)", module, m.Distance, zone),
		})
	}
	return out
}

// SuggestAll runs [SuggestImprovements] over every module, ordered by module id.
func SuggestAll(metrics map[string]Metrics, threshold float64) []Suggestion {
	ids := make([]string, 0, len(metrics))
	for id := range metrics {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []Suggestion
	for _, id := range ids {
		out = append(out, SuggestImprovements(id, metrics[id], threshold)...)
	}
	return out
}
