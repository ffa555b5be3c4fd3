package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *Registry {
	logger, _ := zap.NewDevelopment()
	r := New(logger)
	t.Cleanup(r.Close)
	return r
}

func TestRegistry_AddUser(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.AddUser("001010123456789"))
	err := r.AddUser("001010123456789")
	assert.Error(t, err)
}

func TestRegistry_FindByIMSI(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddUser("imsi-1"))

	u, err := r.FindByIMSI("imsi-1")
	require.NoError(t, err)
	assert.Equal(t, "imsi-1", u.IMSI)

	_, err = r.FindByIMSI("missing")
	assert.Error(t, err)
}

func TestRegistry_GetFreeCRNTIAllocatesDistinctValues(t *testing.T) {
	r := newTestRegistry(t)

	seen := make(map[uint16]bool)
	for i := 0; i < 100; i++ {
		c, err := r.GetFreeCRNTI()
		require.NoError(t, err)
		require.False(t, seen[c], "c-rnti %d allocated twice before being assigned", c)
		seen[c] = true
		r.AssignCRNTI(c, NewUser("x"))
	}
	assert.Len(t, seen, 100)
}

func TestRegistry_GetFreeCRNTIExhaustion(t *testing.T) {
	r := newTestRegistry(t)

	rangeSize := int(CRNTIEnd-CRNTIStart) + 1
	for i := 0; i < rangeSize; i++ {
		c, err := r.GetFreeCRNTI()
		require.NoError(t, err)
		r.AssignCRNTI(c, NewUser("x"))
	}

	_, err := r.GetFreeCRNTI()
	require.Error(t, err)
}

func TestRegistry_FreeCRNTIActuallyRemovesEntry(t *testing.T) {
	r := newTestRegistry(t)

	c, err := r.GetFreeCRNTI()
	require.NoError(t, err)
	r.AssignCRNTI(c, NewUser("x"))

	require.NoError(t, r.FreeCRNTI(c))

	_, err = r.FindByCRNTI(c)
	assert.Error(t, err, "c-rnti must no longer resolve to a user once freed")

	// Allocation still succeeds afterwards. The rotating cursor has moved
	// past c, so c2 is the next identifier rather than c itself.
	c2, err := r.GetFreeCRNTI()
	require.NoError(t, err)
	_ = c2
}

func TestRegistry_AddPlaceholderUserUsesFakeIMSIConvention(t *testing.T) {
	r := newTestRegistry(t)

	u, err := r.AddPlaceholderUser(1234)
	require.NoError(t, err)
	assert.Equal(t, "F1234", u.IMSI)
	assert.True(t, u.Placeholder)

	found, err := r.FindByCRNTI(1234)
	require.NoError(t, err)
	assert.Same(t, u, found)
}

func TestRegistry_DeleteByCRNTIRemovesBothIndexesAndFreesTheSlot(t *testing.T) {
	r := newTestRegistry(t)

	u, err := r.AddPlaceholderUser(1234)
	require.NoError(t, err)

	require.NoError(t, r.DeleteByCRNTI(1234))

	_, err = r.FindByCRNTI(1234)
	assert.Error(t, err, "c-rnti must no longer resolve to a user once deleted")

	_, err = r.FindByIMSI(u.IMSI)
	assert.Error(t, err, "fake-imsi entry must no longer resolve once deleted")

	// crntiCount must have been decremented too, not just the map entry
	// removed, or GetFreeCRNTI's exhaustion guard would eventually trip
	// early against phantom occupancy.
	rangeSize := int(CRNTIEnd-CRNTIStart) + 1
	for i := 0; i < rangeSize; i++ {
		c, err := r.GetFreeCRNTI()
		require.NoError(t, err)
		r.AssignCRNTI(c, NewUser("x"))
	}
	_, err = r.GetFreeCRNTI()
	require.Error(t, err)
}

func TestUser_ResetPreservesSRB0(t *testing.T) {
	u := NewUser("imsi")
	u.SRB1 = &RadioBearer{Type: SRB1}
	u.DRBs[0] = &RadioBearer{Type: DRB0}

	u.Reset()

	assert.NotNil(t, u.SRB0)
	assert.Nil(t, u.SRB1)
	assert.Nil(t, u.DRBs[0])
}
