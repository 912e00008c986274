package armor

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	// MarkerCount is the number of candidate words in each of the begin, end, and fragment roles.
	MarkerCount = 5
	// WordCount is the number of words needed to represent every 16-bit value.
	WordCount = 1 << 16
	// MinCatalogSize is the smallest Catalog that BuildTable will accept.
	MinCatalogSize = 3*MarkerCount + WordCount
)

// Catalog is an immutable, ordered list of unique words.
// The same Catalog must be held by every party that exchanges armored messages.
// A Catalog is safe for concurrent use.
type Catalog struct {
	words    []string
	index    map[string]int
	longest  int
	shortest int
}

// NewCatalog creates a Catalog from the given words, which are copied.
// Words must be unique, non-empty, and must not contain whitespace, since messages are split on spaces.
func NewCatalog(words []string) (*Catalog, error) {
	cat := &Catalog{
		words: make([]string, len(words)),
		index: make(map[string]int, len(words)),
	}
	for i, word := range words {
		if len(word) == 0 || strings.ContainsAny(word, " \t\r\n") {
			return nil, fmt.Errorf("%w: entry %d: '%s'", ErrInvalidWord, i, word)
		}
		if prev, ok := cat.index[word]; ok {
			return nil, fmt.Errorf("%w: '%s' at entries %d and %d", ErrDuplicateWord, word, prev, i)
		}
		cat.words[i] = word
		cat.index[word] = i
		if len(word) > cat.longest {
			cat.longest = len(word)
		}
		if cat.shortest == 0 || len(word) < cat.shortest {
			cat.shortest = len(word)
		}
	}
	return cat, nil
}

// ReadCatalog reads a newline delimited word list.
// Surrounding whitespace is trimmed, and blank lines are ignored.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if len(word) == 0 {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return NewCatalog(words)
}

// Len returns the number of words in the Catalog.
func (c *Catalog) Len() int {
	return len(c.words)
}

// Word returns the word at index i.
func (c *Catalog) Word(i int) string {
	return c.words[i]
}

// Index returns the position of word in the Catalog, if it's present.
func (c *Catalog) Index(word string) (int, bool) {
	i, ok := c.index[word]
	return i, ok
}

// Longest returns the length in bytes of the longest word in the Catalog.
func (c *Catalog) Longest() int {
	return c.longest
}

// Shortest returns the length in bytes of the shortest word in the Catalog.
func (c *Catalog) Shortest() int {
	return c.shortest
}
