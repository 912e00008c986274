// Package wordlist generates catalogs of pronounceable pseudo-words for use when no real word list is at hand.
package wordlist

import "fmt"

const (
	consonants = "bdfghjklmnprstvz"
	vowels     = "aeiou"
	syllables  = len(consonants) * len(vowels)
	// Capacity is the number of distinct words Syllabic can produce.
	Capacity = syllables * syllables * syllables
	// stride is coprime with Capacity, so stepping by it visits every word once.
	stride = 7919
	// DefaultSize matches the smallest catalog a mapping table can be built from.
	DefaultSize = 15 + 1<<16
)

// Syllabic deterministically produces n unique words of three consonant-vowel syllables, like "rabimo".
// Every word is six bytes long.
func Syllabic(n int) ([]string, error) {
	if n < 0 || n > Capacity {
		return nil, fmt.Errorf("cannot generate %d words, capacity is %d", n, Capacity)
	}
	words := make([]string, n)
	for i := range words {
		words[i] = word((i * stride) % Capacity)
	}
	return words, nil
}

// Default produces DefaultSize words.
func Default() []string {
	words, err := Syllabic(DefaultSize)
	if err != nil {
		panic(err)
	}
	return words
}

func word(k int) string {
	var buf [6]byte
	for i := 0; i < 3; i++ {
		s := k % syllables
		k /= syllables
		buf[2*i] = consonants[s/len(vowels)]
		buf[2*i+1] = vowels[s%len(vowels)]
	}
	return string(buf[:])
}
