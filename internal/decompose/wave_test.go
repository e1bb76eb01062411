package decompose

import "testing"

func TestBuildWavesS4(t *testing.T) {
	goals := []SubGoal{
		{ID: "A", Type: TypeRetrieval, Complexity: Simple},
		{ID: "B", Type: TypeReasoning, Complexity: Moderate, Dependencies: []string{"A"}},
		{ID: "C", Type: TypeTransform, Complexity: Simple},
	}
	waves, err := BuildWaves(goals)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(waves) != 2 {
		t.Fatalf("expected 2 waves, got %d", len(waves))
	}
	if len(waves[0]) != 2 {
		t.Errorf("expected wave 1 to contain A and C, got %d goals", len(waves[0]))
	}
	if len(waves[1]) != 1 || waves[1][0].ID != "B" {
		t.Errorf("expected wave 2 to contain only B, got %+v", waves[1])
	}
}

func TestBuildWavesCircularDependency(t *testing.T) {
	goals := []SubGoal{
		{ID: "A", Dependencies: []string{"B"}},
		{ID: "B", Dependencies: []string{"A"}},
	}
	_, err := BuildWaves(goals)
	if err == nil {
		t.Fatal("expected circular dependency error")
	}
	var circErr *CircularDependencyError
	if !asCircularError(err, &circErr) {
		t.Fatalf("expected *CircularDependencyError, got %T", err)
	}
}

func asCircularError(err error, target **CircularDependencyError) bool {
	ce, ok := err.(*CircularDependencyError)
	if ok {
		*target = ce
	}
	return ok
}

func TestBuildContextNoDependencies(t *testing.T) {
	got := BuildContext(nil, nil, "do the task")
	if got != "do the task" {
		t.Errorf("expected plain description when no dependencies, got %q", got)
	}
}

func TestBuildContextTruncates(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	got := BuildContext([]string{"A"}, map[string]string{"A": string(long)}, "next step")
	if len(got) > len("Context from previous steps:\n[A]: ") + contextTruncateLen + len("…\nnext step") + 10 {
		t.Errorf("expected truncated context, got length %d", len(got))
	}
}
