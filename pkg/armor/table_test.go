package armor

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/saylorsolutions/wordarmor/pkg/wordlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTable_InsufficientCatalog(t *testing.T) {
	words, err := wordlist.Syllabic(MinCatalogSize - 1)
	require.NoError(t, err)
	cat, err := NewCatalog(words)
	require.NoError(t, err)

	_, err = BuildTable(cat, SecretFromUint64(69), testDate)
	assert.ErrorIs(t, err, ErrInsufficientCatalog)
	_, err = BuildTable(nil, SecretFromUint64(69), testDate)
	assert.ErrorIs(t, err, ErrInsufficientCatalog)
}

func TestBuildTable_Disjoint(t *testing.T) {
	tbl := table(t)
	assert.Len(t, tbl.words, WordCount)

	seen := map[uint32]string{}
	mark := func(role string, indices []uint32) {
		for _, idx := range indices {
			prev, ok := seen[idx]
			require.False(t, ok, "Index %d used as %s and %s", idx, prev, role)
			require.Less(t, int(idx), tbl.Catalog().Len())
			seen[idx] = role
		}
	}
	mark("begin", tbl.Begin())
	mark("end", tbl.End())
	mark("fragment", tbl.Fragment())
	mark("words", tbl.words)
	assert.Len(t, seen, MinCatalogSize)
}

func TestBuildTable_Deterministic(t *testing.T) {
	a := table(t)
	b := table(t)
	assert.Equal(t, a.begin, b.begin)
	assert.Equal(t, a.end, b.end)
	assert.Equal(t, a.fragment, b.fragment)
	assert.Equal(t, a.words, b.words)
	assert.Equal(t, a.reverse, b.reverse)
}

func TestBuildTable_Rotates(t *testing.T) {
	base := table(t)

	nextDay, err := BuildTable(catalog(t), SecretFromUint64(69), Date{Year: 2024, Month: time.May, Day: 2})
	require.NoError(t, err)
	assert.NotEqual(t, base.words, nextDay.words)

	otherSecret, err := BuildTable(catalog(t), SecretFromUint64(70), testDate)
	require.NoError(t, err)
	assert.NotEqual(t, base.words, otherSecret.words)
}

func TestTable_ReverseLookup(t *testing.T) {
	tbl := table(t)
	for v := 0; v < WordCount; v++ {
		got, ok := tbl.ReverseLookup(tbl.WordIndex(uint16(v)))
		require.True(t, ok, "No reverse lookup for %d", v)
		require.Equal(t, uint16(v), got)
	}

	for _, idx := range append(append(tbl.Begin(), tbl.End()...), tbl.Fragment()...) {
		_, ok := tbl.ReverseLookup(idx)
		assert.False(t, ok, "Marker %d should not map to a value", idx)
	}
	_, ok := tbl.ReverseLookup(uint32(tbl.Catalog().Len()))
	assert.False(t, ok)
}

func TestTable_Markers(t *testing.T) {
	tbl := table(t)
	for _, idx := range tbl.Begin() {
		assert.True(t, tbl.IsBegin(idx))
		assert.False(t, tbl.IsEnd(idx))
		assert.False(t, tbl.IsFragment(idx))
	}
	for _, idx := range tbl.Fragment() {
		assert.True(t, tbl.IsFragment(idx))
		assert.False(t, tbl.IsBegin(idx))
	}

	begin := tbl.Begin()
	begin[0] = 0xffffffff
	assert.NotEqual(t, begin, tbl.Begin(), "Marker accessors must return copies")
}

func TestBuildTable_KnownAnswer(t *testing.T) {
	seed := tableSeed(SecretFromUint64(69), testDate)
	assert.Equal(t, "31be1cf6820ba6483ac9b86f567c426a981b4af1de6fa3e285b79ad9fd9effcd", hex.EncodeToString(seed[:]))

	tbl := table(t)
	assert.Equal(t, []uint32{57638, 15536, 40503, 63199, 37954}, tbl.Begin())
	assert.Equal(t, []uint32{6367, 34770, 65129, 6305, 25478}, tbl.End())
	assert.Equal(t, []uint32{13421, 29305, 30493, 34051, 53117}, tbl.Fragment())

	tests := map[string]struct {
		value uint16
		index uint32
	}{
		"Zero":    {value: 0, index: 46579},
		"One":     {value: 1, index: 38245},
		"Te":      {value: 0x5465, index: 45252},
		"st":      {value: 0x7374, index: 29430},
		"Middle":  {value: 32551, index: 21192},
		"Highest": {value: 65535, index: 12154},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.index, tbl.WordIndex(tc.value))
		})
	}
}

func TestShuffle(t *testing.T) {
	a := make([]uint32, 100)
	b := make([]uint32, 100)
	for i := range a {
		a[i] = uint32(i)
		b[i] = uint32(i)
	}
	seed := tableSeed(SecretFromUint64(1), testDate)
	shuffle(a, seed)
	shuffle(b, seed)
	assert.Equal(t, a, b)

	seen := make([]bool, 100)
	for _, v := range a {
		seen[v] = true
	}
	for i, ok := range seen {
		assert.True(t, ok, "Value %d lost in shuffle", i)
	}
}
