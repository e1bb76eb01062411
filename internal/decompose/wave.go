package decompose

import "strings"

// BuildWaves groups goals into dependency waves (spec §4.6 step 4): each
// wave holds every goal whose dependencies are already in a prior wave. If
// a pass makes no progress while goals remain, it returns a
// CircularDependencyError carrying the unresolved ids; any waves already
// built are still returned so the caller can feed partial results to
// synthesis (spec: "partial results will feed synthesis").
func BuildWaves(goals []SubGoal) ([][]SubGoal, error) {
	byID := make(map[string]SubGoal, len(goals))
	for _, g := range goals {
		byID[g.ID] = g
	}

	completed := make(map[string]struct{}, len(goals))
	remaining := make([]string, 0, len(goals))
	for _, g := range goals {
		remaining = append(remaining, g.ID)
	}

	var waves [][]SubGoal
	for len(remaining) > 0 {
		var wave []SubGoal
		var next []string
		for _, id := range remaining {
			if dependenciesSatisfied(byID[id].Dependencies, completed) {
				wave = append(wave, byID[id])
			} else {
				next = append(next, id)
			}
		}
		if len(wave) == 0 {
			return waves, &CircularDependencyError{Remaining: remaining}
		}
		for _, g := range wave {
			completed[g.ID] = struct{}{}
		}
		waves = append(waves, wave)
		remaining = next
	}
	return waves, nil
}

func dependenciesSatisfied(deps []string, completed map[string]struct{}) bool {
	for _, d := range deps {
		if _, ok := completed[d]; !ok {
			return false
		}
	}
	return true
}

const contextTruncateLen = 500

// BuildContext assembles the "Context from previous steps" prefix for a
// sub-goal (spec §4.6 step 4.2): each satisfied dependency's content,
// truncated to 500 characters, as a "[dep_id]: <content…>" line.
func BuildContext(dependencies []string, contentByID map[string]string, description string) string {
	if len(dependencies) == 0 {
		return description
	}
	var b strings.Builder
	b.WriteString("Context from previous steps:\n")
	for _, dep := range dependencies {
		content, ok := contentByID[dep]
		if !ok {
			continue
		}
		if len(content) > contextTruncateLen {
			content = content[:contextTruncateLen] + "…"
		}
		b.WriteString("[")
		b.WriteString(dep)
		b.WriteString("]: ")
		b.WriteString(content)
		b.WriteString("\n")
	}
	b.WriteString(description)
	return b.String()
}
