package codes

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAllocator() *Allocator {
	return NewAllocator(rand.New(rand.NewSource(1)))
}

func TestClaimExhaustsPoolWithoutDuplicates(t *testing.T) {
	a := newTestAllocator()
	seen := make(map[int]bool)
	for i := 0; i < MaxCode-MinCode+1; i++ {
		code, err := a.Claim()
		require.NoError(t, err)
		require.GreaterOrEqual(t, code, MinCode)
		require.LessOrEqual(t, code, MaxCode)
		require.False(t, seen[code], "code %d claimed twice", code)
		seen[code] = true
	}
	_, err := a.Claim()
	require.ErrorIs(t, err, ErrPoolExhausted)
}

func TestReleaseReturnsCodeToPool(t *testing.T) {
	a := newTestAllocator()
	var codes []int
	for i := 0; i < MaxCode-MinCode+1; i++ {
		code, err := a.Claim()
		require.NoError(t, err)
		codes = append(codes, code)
	}

	a.Release(codes[0])
	code, err := a.Claim()
	require.NoError(t, err)
	require.Equal(t, codes[0], code)
}

func TestReleaseUnclaimedIsNoOp(t *testing.T) {
	a := newTestAllocator()
	a.Release(MinCode) // never claimed

	code, err := a.Claim()
	require.NoError(t, err)
	a.Release(code)
	a.Release(code) // double release must not corrupt the pool

	seen := make(map[int]bool)
	for {
		c, err := a.Claim()
		if err != nil {
			break
		}
		require.False(t, seen[c], "code %d claimed twice after release", c)
		seen[c] = true
	}
	require.Len(t, seen, MaxCode-MinCode+1)
}

func TestAssignAndLookup(t *testing.T) {
	a := newTestAllocator()
	code, err := a.Claim()
	require.NoError(t, err)

	// claimed but unbound codes resolve to nothing
	_, ok := a.Lookup(code)
	require.False(t, ok)

	require.False(t, a.Assign(code+1, "g1"), "assign of unclaimed code must fail")
	require.True(t, a.Assign(code, "g1"))

	guid, ok := a.Lookup(code)
	require.True(t, ok)
	require.Equal(t, "g1", guid)

	a.Release(code)
	_, ok = a.Lookup(code)
	require.False(t, ok)
}
