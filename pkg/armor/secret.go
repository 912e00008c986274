package armor

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Secret is the 128-bit value shared out-of-band by both parties, stored big-endian.
type Secret [16]byte

// SecretFromUint64 creates a Secret with the given value in its low 64 bits.
func SecretFromUint64(val uint64) Secret {
	var s Secret
	binary.BigEndian.PutUint64(s[8:], val)
	return s
}

// ParseSecret parses a Secret from a decimal string, or a hex string with a leading "0x".
func ParseSecret(given string) (Secret, error) {
	var (
		s    Secret
		n    = new(big.Int)
		ok   bool
		orig = given
	)
	given = strings.TrimSpace(given)
	if len(given) == 0 {
		return s, errors.New("empty secret given")
	}
	if strings.HasPrefix(given, "0x") || strings.HasPrefix(given, "0X") {
		_, ok = n.SetString(given[2:], 16)
	} else {
		_, ok = n.SetString(given, 10)
	}
	if !ok {
		return s, fmt.Errorf("unable to parse secret '%s'", orig)
	}
	if n.Sign() < 0 || n.BitLen() > 128 {
		return s, fmt.Errorf("secret '%s' does not fit in 128 bits", orig)
	}
	n.FillBytes(s[:])
	return s, nil
}

// GenerateSecret creates a new Secret with the OS entropy pool.
func GenerateSecret() (Secret, error) {
	var s Secret
	if _, err := rand.Read(s[:]); err != nil {
		return s, fmt.Errorf("failed to generate secret: %w", err)
	}
	return s, nil
}

// String renders the Secret in decimal.
func (s Secret) String() string {
	return new(big.Int).SetBytes(s[:]).String()
}

// Date is the calendar date used to rotate the mapping Table.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar date of t in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a date formatted as YYYY-MM-DD.
func ParseDate(given string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(given))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date '%s', expected YYYY-MM-DD: %w", given, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
