package decompose

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// rawSubGoal is the JSON shape the decomposer pathway is instructed to
// return (spec §4.6 step 2): {id, description, complexity, type, dependencies}.
type rawSubGoal struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Complexity   string   `json:"complexity"`
	Type         string   `json:"type"`
	Dependencies []string `json:"dependencies"`
}

// DecompositionPrompt is the fixed instruction sent to the decomposer
// pathway (spec §4.6 step 2).
const DecompositionPrompt = `Break the following request into an ordered JSON array of sub-goals. Each element must be an object with fields: id, description, complexity (one of: trivial, simple, moderate, complex, expert), type (one of: retrieval, transform, reasoning, creative, coding, math), and dependencies (an array of sibling ids that must complete first, or an empty array). Respond with only the JSON array.

Request:
`

// ParseSubGoals extracts the first "[...]" block from raw by lexical scan,
// tolerating leading/trailing prose, and decodes it into SubGoals. IDs left
// empty by the decomposer are assigned a fresh uuid. The result is
// truncated to maxSubGoals.
func ParseSubGoals(raw string, maxSubGoals int) ([]SubGoal, error) {
	block, err := ExtractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var rawGoals []rawSubGoal
	if err := json.Unmarshal([]byte(block), &rawGoals); err != nil {
		return nil, err
	}

	if maxSubGoals > 0 && len(rawGoals) > maxSubGoals {
		rawGoals = rawGoals[:maxSubGoals]
	}

	goals := make([]SubGoal, len(rawGoals))
	for i, rg := range rawGoals {
		id := rg.ID
		if id == "" {
			id = uuid.NewString()
		}
		goals[i] = SubGoal{
			ID:           id,
			Description:  rg.Description,
			Complexity:   ParseComplexity(rg.Complexity),
			Type:         ParseGoalType(rg.Type),
			Dependencies: rg.Dependencies,
		}
	}
	return goals, nil
}

// ExtractJSONArray does a lexical bracket-depth scan for the first balanced
// "[...]" substring, ignoring brackets that appear inside string literals.
// Exported so other templated-prompt parsers (the ensemble master-evaluation
// response) can reuse the same tolerant extraction instead of duplicating it.
func ExtractJSONArray(s string) (string, error) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", errNoJSONArray
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errNoJSONArray
}

var errNoJSONArray = jsonArrayError{}

type jsonArrayError struct{}

func (jsonArrayError) Error() string { return "decompose: no balanced JSON array found" }

var multiStepCues = []string{"then", "next", "after", "finally", "also", "and then"}

// HeuristicComplexity applies spec §4.6's length/cue-word fallback
// classifier, used when the decomposer's JSON cannot be parsed.
func HeuristicComplexity(text string) Complexity {
	n := len(text)
	lower := strings.ToLower(text)
	switch {
	case n < 50:
		return Simple
	case n < 200:
		for _, cue := range multiStepCues {
			if strings.Contains(lower, cue) {
				return Complex
			}
		}
		return Moderate
	case n < 500:
		return Complex
	default:
		return Expert
	}
}

// typeKeywords lists the first-match-wins regex-free substring sets for
// HeuristicType, in spec §4.6's stated priority order.
var typeKeywords = []struct {
	t        GoalType
	keywords []string
}{
	{TypeCoding, []string{"code", "function", "program", "script", "bug", "implement"}},
	{TypeMath, []string{"calculate", "equation", "solve", "math", "number"}},
	{TypeCreative, []string{"write", "story", "poem", "creative", "imagine"}},
	{TypeReasoning, []string{"why", "explain", "reason", "analyze", "think"}},
	{TypeTransform, []string{"convert", "transform", "translate", "format"}},
	{TypeRetrieval, []string{"find", "search", "lookup", "retrieve", "what is"}},
}

// HeuristicType applies spec §4.6's ordered keyword classifier, defaulting
// to Reasoning.
func HeuristicType(text string) GoalType {
	lower := strings.ToLower(text)
	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.t
			}
		}
	}
	return TypeReasoning
}

// FallbackSubGoal builds the single synthetic sub-goal covering the whole
// prompt (spec §4.6 step 2, recovery path).
func FallbackSubGoal(prompt string) SubGoal {
	return SubGoal{
		ID:          uuid.NewString(),
		Description: prompt,
		Complexity:  HeuristicComplexity(prompt),
		Type:        HeuristicType(prompt),
	}
}
