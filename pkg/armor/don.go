package armor

import (
	"fmt"
	"strings"
)

// MinLimit returns the smallest character limit Don accepts with this Table: the longest fragment marker, a separator, and the shortest catalog word.
// Whether a particular input fits at this limit depends on the words it maps to, Don returns ErrLimitTooSmall if a word it needs can't be placed.
func (t *Table) MinLimit() int {
	return t.fragmentLen + 1 + t.catalog.Shortest()
}

// SafeLimit returns the smallest character limit at which Don can armor any input.
// It fits a continuation message carrying a single word: the longest fragment marker, the longest possible sequence word, and the longest catalog word, separated by spaces.
func (t *Table) SafeLimit() int {
	return t.fragmentLen + 1 + t.catalog.Longest() + 1 + t.catalog.Longest()
}

// budget is the space left for the words of message seq once its prefix is reserved.
// The head reserves the length of the longest fragment marker, continuations reserve their actual prefix.
func (t *Table) budget(seq, limit int) int {
	if seq == 0 {
		return limit - t.fragmentLen
	}
	return limit - t.fragmentLen - 1 - len(t.word(t.words[seq])) - 1
}

// Don armors data into one or more messages, none longer than limit bytes.
// An odd-length input is padded with a trailing zero byte.
// The messages are returned in sequence order, but Doff doesn't depend on that order.
func Don(data []byte, table *Table, limit int, opts ...Option) ([]string, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	if limit < table.MinLimit() {
		return nil, fmt.Errorf("%w: limit %d is less than the minimum of %d for this table", ErrLimitTooSmall, limit, table.MinLimit())
	}

	coded := make([]string, 0, (len(data)+1)/2+2)
	coded = append(coded, table.word(table.begin[s.rng.IntN(MarkerCount)]))
	coded = coded[:1+(len(data)+1)/2]
	parallel((len(data)+1)/2, s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			coded[1+i] = table.word(table.words[pairAt(data, i)])
		}
	})
	coded = append(coded, table.word(table.end[s.rng.IntN(MarkerCount)]))

	splits, err := splitPoints(coded, table, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]string, len(splits))
	for i, start := range splits {
		end := len(coded)
		if i+1 < len(splits) {
			end = splits[i+1]
		}
		var b strings.Builder
		if i > 0 {
			b.WriteString(table.word(table.fragment[s.rng.IntN(MarkerCount)]))
			b.WriteByte(' ')
			b.WriteString(table.word(table.words[i]))
			b.WriteByte(' ')
		}
		b.WriteString(strings.Join(coded[start:end], " "))
		messages[i] = b.String()
	}
	return messages, nil
}

// pairAt returns the i'th big-endian 16-bit value in data, padding a missing low byte with zero.
func pairAt(data []byte, i int) uint16 {
	hi := uint16(data[2*i]) << 8
	if 2*i+1 < len(data) {
		return hi | uint16(data[2*i+1])
	}
	return hi
}

// splitPoints returns the index of the first word of each message.
// Words are packed greedily so that each message's words, with single space separators, fit in its budget.
// Every word is checked before any message is built.
func splitPoints(words []string, table *Table, limit int) ([]int, error) {
	splits := []int{0}
	count := 0
	for i, word := range words {
		seq := len(splits) - 1
		if count > 0 && count+1+len(word) <= table.budget(seq, limit) {
			count += 1 + len(word)
			continue
		}
		if count > 0 {
			seq++
			if seq >= WordCount {
				return nil, fmt.Errorf("%w: at most %d allowed", ErrTooManyMessages, WordCount)
			}
			splits = append(splits, i)
		}
		if len(word) > table.budget(seq, limit) {
			return nil, fmt.Errorf("%w: limit %d cannot fit '%s' in message %d", ErrLimitTooSmall, limit, word, seq)
		}
		count = len(word)
	}
	return splits, nil
}
