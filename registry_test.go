package mind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndLookup(t *testing.T) {
	r := newRegistry(nil)
	p, err := r.add(newSpecWithClient("p1", newMockClient("ok")))
	require.NoError(t, err)
	assert.Equal(t, "p1", p.Name)

	got, ok := r.byNameLookup("p1")
	require.True(t, ok)
	assert.Same(t, p, got)
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := newRegistry(nil)
	_, err := r.add(newSpecWithClient("p1", newMockClient("ok")))
	require.NoError(t, err)

	_, err = r.add(newSpecWithClient("p1", newMockClient("ok")))
	var dup *DuplicatePathwayError
	assert.ErrorAs(t, err, &dup)
}

func TestRegistryRequiresClientOrFactory(t *testing.T) {
	r := newRegistry(nil)
	_, err := r.add(PathwaySpec{Name: "p1"})
	var nf *NoClientFactoryError
	assert.ErrorAs(t, err, &nf)
}

func TestRegistryMasterDoesNotAutoAssign(t *testing.T) {
	r := newRegistry(nil)
	_, err := r.add(newSpecWithClient("p1", newMockClient("ok")))
	require.NoError(t, err)
	assert.Nil(t, r.getMaster(), "master should not auto-assign when a single pathway is added")
}

func TestRegistrySetFirstAsMaster(t *testing.T) {
	r := newRegistry(nil)
	r.add(newSpecWithClient("p1", newMockClient("ok")))
	r.add(newSpecWithClient("p2", newMockClient("ok")))
	r.setFirstAsMaster()
	require.NotNil(t, r.getMaster())
	assert.Equal(t, "p1", r.getMaster().Name)
}

func TestRegistrySetMasterUnknown(t *testing.T) {
	r := newRegistry(nil)
	err := r.setMaster("ghost")
	var unk *UnknownPathwayError
	assert.ErrorAs(t, err, &unk)
}

func TestRegistrySetMasterClear(t *testing.T) {
	r := newRegistry(nil)
	r.add(newSpecWithClient("p1", newMockClient("ok")))
	require.NoError(t, r.setMaster("p1"))
	assert.NotNil(t, r.getMaster())

	require.NoError(t, r.setMaster(""))
	assert.Nil(t, r.getMaster())
}

func TestRegistryConfigureUpdatesInPlace(t *testing.T) {
	r := newRegistry(nil)
	r.add(newSpecWithClient("p1", newMockClient("ok")))
	require.NoError(t, r.configure("p1", TierSpecialized, []Specialization{SpecMath}))

	p, _ := r.byNameLookup("p1")
	assert.Equal(t, TierSpecialized, p.Tier)
	assert.True(t, p.HasSpecialization(SpecMath))
}

func TestRegistryHealthyPathwaysExcludesOpenBreaker(t *testing.T) {
	r := newRegistry(nil)
	r.add(newSpecWithClient("p1", newMockClient("ok")))
	p2, _ := r.add(newSpecWithClient("p2", newMockClient("ok")))
	for i := 0; i < breakerFailureThreshold; i++ {
		p2.breaker.recordFailure()
	}
	healthy := r.healthyPathways()
	require.Len(t, healthy, 1)
	assert.Equal(t, "p1", healthy[0].Name)
}

func TestRegistryNextExcludesTried(t *testing.T) {
	r := newRegistry(nil)
	r.add(newSpecWithClient("p1", newMockClient("ok")))
	r.add(newSpecWithClient("p2", newMockClient("ok")))

	first := r.next(nil)
	require.NotNil(t, first)

	second := r.next(map[string]struct{}{first.Name: {}})
	require.NotNil(t, second)
	assert.NotEqual(t, first.Name, second.Name)

	third := r.next(map[string]struct{}{first.Name: {}, second.Name: {}})
	assert.Nil(t, third)
}

func TestRegistryNextPrefersHigherScore(t *testing.T) {
	r := newRegistry(nil)
	p1, _ := r.add(newSpecWithClient("p1", newMockClient("ok")))
	r.add(newSpecWithClient("p2", newMockClient("ok")))
	p1.recordActivation(0)
	p1.recordActivation(0)
	p1.recordActivation(0)

	chosen := r.next(nil)
	assert.Equal(t, "p1", chosen.Name, "next() should prefer the higher weight*rate pathway")
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := newRegistry(nil)
	r.add(newSpecWithClient("p1", newMockClient("ok")))
	snap := r.snapshot()
	r.add(newSpecWithClient("p2", newMockClient("ok")))
	assert.Len(t, snap, 1, "snapshot should not reflect pathways added after it was taken")
}
