package armor

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type fragment struct {
	seq     uint16
	payload []uint32
}

// Doff recovers the data armored by Don from its messages, which may be given in any order.
// Tokens that aren't in the Catalog are dropped, as are words that don't represent a 16-bit value, such as the end marker.
//
// Doff fails with ErrMalformedMessage if a message doesn't start with a begin marker, or a fragment marker followed by a sequence word.
// Two messages claiming the same sequence number fail with ErrDuplicateSequence.
func Doff(messages []string, table *Table, opts ...Option) ([]byte, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	frags, errs := parseAll(messages, table, s.workers)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return assemble(frags, table)
}

// DoffPartial is like Doff, but skips messages that can't be placed rather than failing.
// The data from every well-formed message is returned, along with an error for each skipped message.
// Data may be missing from the result if any message is skipped.
func DoffPartial(messages []string, table *Table, opts ...Option) ([]byte, []error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, []error{err}
	}
	frags, errs := parseAll(messages, table, s.workers)
	var (
		valid   []fragment
		skipped []error
	)
	for i, err := range errs {
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		valid = append(valid, frags[i])
	}
	data, err := assemble(valid, table)
	if err != nil {
		return nil, append(skipped, err)
	}
	return data, skipped
}

// parseAll parses each message in parallel, writing to its own slot of the returned slices.
func parseAll(messages []string, table *Table, workers int) ([]fragment, []error) {
	frags := make([]fragment, len(messages))
	errs := make([]error, len(messages))
	parallel(len(messages), workers, func(start, end int) {
		for i := start; i < end; i++ {
			frag, err := parseMessage(messages[i], table)
			if err != nil {
				errs[i] = fmt.Errorf("message %d: %w", i, err)
				continue
			}
			frags[i] = frag
		}
	})
	return frags, errs
}

func parseMessage(message string, table *Table) (fragment, error) {
	tokens := strings.Split(message, " ")
	indices := make([]uint32, 0, len(tokens))
	for _, token := range tokens {
		if idx, ok := table.catalog.Index(token); ok {
			indices = append(indices, uint32(idx))
		}
	}
	if len(indices) == 0 {
		return fragment{}, fmt.Errorf("%w: no recognized words", ErrMalformedMessage)
	}
	switch {
	case table.IsBegin(indices[0]):
		return fragment{seq: 0, payload: indices[1:]}, nil
	case table.IsFragment(indices[0]):
		if len(indices) < 2 {
			return fragment{}, fmt.Errorf("%w: continuation is missing its sequence number", ErrMalformedMessage)
		}
		seq, ok := table.ReverseLookup(indices[1])
		if !ok {
			return fragment{}, fmt.Errorf("%w: '%s' is not a valid sequence number", ErrMalformedMessage, table.word(indices[1]))
		}
		return fragment{seq: seq, payload: indices[2:]}, nil
	default:
		return fragment{}, fmt.Errorf("%w: '%s' is not a begin or fragment marker", ErrMalformedMessage, table.word(indices[0]))
	}
}

// assemble orders fragments by sequence number and flattens their words to bytes.
func assemble(frags []fragment, table *Table) ([]byte, error) {
	slices.SortFunc(frags, func(a, b fragment) int {
		return int(a.seq) - int(b.seq)
	})
	size := 0
	for i, frag := range frags {
		if i > 0 && frags[i-1].seq == frag.seq {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSequence, frag.seq)
		}
		size += 2 * len(frag.payload)
	}
	data := make([]byte, 0, size)
	for _, frag := range frags {
		for _, idx := range frag.payload {
			val, ok := table.ReverseLookup(idx)
			if !ok {
				continue
			}
			data = append(data, byte(val>>8), byte(val))
		}
	}
	return data, nil
}
