package armor

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	bin "github.com/saylorsolutions/binmap"
)

const (
	tableMagic   uint16 = 0xca77
	tableVersion uint8  = 1
)

// tableImage is the persisted form of a Table.
type tableImage struct {
	magic       uint16
	version     uint8
	year        uint16
	month       uint8
	day         uint8
	catalogSize uint32
	indices     [wordsOffset + WordCount]uint32
}

func (img *tableImage) mapper() bin.Mapper {
	mappers := []bin.Mapper{
		bin.Int(&img.magic),
		bin.Byte(&img.version),
		bin.Int(&img.year),
		bin.Byte(&img.month),
		bin.Byte(&img.day),
		bin.Int(&img.catalogSize),
	}
	for i := range img.indices {
		mappers = append(mappers, bin.Int(&img.indices[i]))
	}
	return bin.MapSequence(mappers...)
}

// WriteTable persists the Table so it can be loaded later with ReadTable instead of being rebuilt.
// The Catalog itself is not written, only its size.
func WriteTable(w io.Writer, t *Table) error {
	if t.date.Year < 0 || t.date.Year > math.MaxUint16 {
		return fmt.Errorf("%w: year %d can't be persisted", ErrInvalidTable, t.date.Year)
	}
	if t.date.Month < time.January || t.date.Month > time.December || t.date.Day < 1 || t.date.Day > 31 {
		return fmt.Errorf("%w: date %s can't be persisted", ErrInvalidTable, t.date)
	}
	img := &tableImage{
		magic:       tableMagic,
		version:     tableVersion,
		year:        uint16(t.date.Year),
		month:       uint8(t.date.Month),
		day:         uint8(t.date.Day),
		catalogSize: uint32(t.catalog.Len()),
	}
	copy(img.indices[beginOffset:], t.begin[:])
	copy(img.indices[endOffset:], t.end[:])
	copy(img.indices[fragmentOffset:], t.fragment[:])
	copy(img.indices[wordsOffset:], t.words)
	return img.mapper().Write(w, binary.BigEndian)
}

// ReadTable loads a Table persisted with WriteTable.
// The given Catalog must be the same one the Table was built with, which is checked by size only.
func ReadTable(r io.Reader, cat *Catalog) (*Table, error) {
	img := new(tableImage)
	if err := img.mapper().Read(r, binary.BigEndian); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if img.magic != tableMagic {
		return nil, fmt.Errorf("%w: unrecognized header", ErrInvalidTable)
	}
	if img.version != tableVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidTable, img.version)
	}
	if cat == nil || uint32(cat.Len()) != img.catalogSize {
		return nil, fmt.Errorf("%w: table was built for a catalog of %d words", ErrInvalidTable, img.catalogSize)
	}
	seen := make([]bool, cat.Len())
	for _, idx := range img.indices {
		if idx >= img.catalogSize {
			return nil, fmt.Errorf("%w: index %d is out of range", ErrInvalidTable, idx)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: index %d is used more than once", ErrInvalidTable, idx)
		}
		seen[idx] = true
	}

	t := &Table{
		catalog: cat,
		date:    Date{Year: int(img.year), Month: time.Month(img.month), Day: int(img.day)},
		words:   append([]uint32(nil), img.indices[wordsOffset:]...),
	}
	copy(t.begin[:], img.indices[beginOffset:endOffset])
	copy(t.end[:], img.indices[endOffset:fragmentOffset])
	copy(t.fragment[:], img.indices[fragmentOffset:wordsOffset])
	t.index()
	return t, nil
}
