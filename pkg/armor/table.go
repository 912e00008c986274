package armor

import (
	"fmt"
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"
)

const (
	beginOffset    = 0
	endOffset      = beginOffset + MarkerCount
	fragmentOffset = endOffset + MarkerCount
	wordsOffset    = fragmentOffset + MarkerCount
)

// Table is the mapping between 16-bit values and catalog words for one Secret and Date.
// A Table is immutable once built, and is safe for concurrent use.
type Table struct {
	catalog  *Catalog
	date     Date
	begin    [MarkerCount]uint32
	end      [MarkerCount]uint32
	fragment [MarkerCount]uint32
	words    []uint32
	// reverse maps a catalog index to its 16-bit value, or -1 if the index isn't in words.
	reverse     []int32
	fragmentLen int
}

// BuildTable derives the mapping Table for the given Secret and Date.
// The same Catalog, Secret, and Date always produce the same Table.
func BuildTable(cat *Catalog, secret Secret, date Date) (*Table, error) {
	if cat == nil || cat.Len() < MinCatalogSize {
		size := 0
		if cat != nil {
			size = cat.Len()
		}
		return nil, fmt.Errorf("%w: have %d words, need at least %d", ErrInsufficientCatalog, size, MinCatalogSize)
	}
	indices := make([]uint32, cat.Len())
	for i := range indices {
		indices[i] = uint32(i)
	}
	shuffle(indices, tableSeed(secret, date))

	t := &Table{
		catalog: cat,
		date:    date,
		words:   indices[wordsOffset : wordsOffset+WordCount : wordsOffset+WordCount],
	}
	copy(t.begin[:], indices[beginOffset:endOffset])
	copy(t.end[:], indices[endOffset:fragmentOffset])
	copy(t.fragment[:], indices[fragmentOffset:wordsOffset])
	t.index()
	return t, nil
}

// tableSeed hashes the decimal Secret followed by the unpadded year, month, and day.
func tableSeed(secret Secret, date Date) [32]byte {
	material := fmt.Sprintf("%s%d%d%d", secret, date.Year, int(date.Month), date.Day)
	return blake2b.Sum256([]byte(material))
}

// shuffle is a Fisher-Yates shuffle from the last index down, driven by math/rand/v2's ChaCha8.
// That source is the C2SP chacha8rand generator (https://c2sp.org/chacha8rand), not a raw ChaCha8 keystream:
// the seed is the 32-byte key, output is read as little-endian uint64s, and the key is replaced every 16 blocks.
// Another implementation must follow that construction and the rejection sampling in uniform to reproduce a table.
func shuffle(indices []uint32, seed [32]byte) {
	src := rand.NewChaCha8(seed)
	for i := len(indices) - 1; i > 0; i-- {
		j := uniform(src, uint64(i)+1)
		indices[i], indices[j] = indices[j], indices[i]
	}
}

// uniform returns an unbiased value in [0, bound).
func uniform(src *rand.ChaCha8, bound uint64) uint64 {
	threshold := -bound % bound
	for {
		v := src.Uint64()
		if v >= threshold {
			return v % bound
		}
	}
}

// index populates the reverse lookup and the cached marker length.
func (t *Table) index() {
	t.reverse = make([]int32, t.catalog.Len())
	for i := range t.reverse {
		t.reverse[i] = -1
	}
	for val, idx := range t.words {
		t.reverse[idx] = int32(val)
	}
	t.fragmentLen = 0
	for _, idx := range t.fragment {
		if l := len(t.catalog.Word(int(idx))); l > t.fragmentLen {
			t.fragmentLen = l
		}
	}
}

// Catalog returns the Catalog this Table indexes into.
func (t *Table) Catalog() *Catalog {
	return t.catalog
}

// Date returns the Date this Table was built for.
func (t *Table) Date() Date {
	return t.date
}

// Begin returns the catalog indices of the begin markers.
func (t *Table) Begin() []uint32 {
	return append([]uint32(nil), t.begin[:]...)
}

// End returns the catalog indices of the end markers.
func (t *Table) End() []uint32 {
	return append([]uint32(nil), t.end[:]...)
}

// Fragment returns the catalog indices of the fragment markers.
func (t *Table) Fragment() []uint32 {
	return append([]uint32(nil), t.fragment[:]...)
}

// WordIndex returns the catalog index that represents val.
func (t *Table) WordIndex(val uint16) uint32 {
	return t.words[val]
}

// ReverseLookup returns the 16-bit value represented by the catalog index, if it's in the words range.
func (t *Table) ReverseLookup(index uint32) (uint16, bool) {
	if uint64(index) >= uint64(len(t.reverse)) {
		return 0, false
	}
	val := t.reverse[index]
	if val < 0 {
		return 0, false
	}
	return uint16(val), true
}

func (t *Table) IsBegin(index uint32) bool {
	return contains(t.begin, index)
}

func (t *Table) IsEnd(index uint32) bool {
	return contains(t.end, index)
}

func (t *Table) IsFragment(index uint32) bool {
	return contains(t.fragment, index)
}

func contains(markers [MarkerCount]uint32, index uint32) bool {
	for _, m := range markers {
		if m == index {
			return true
		}
	}
	return false
}

func (t *Table) word(index uint32) string {
	return t.catalog.Word(int(index))
}
