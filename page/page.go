// Package page implements the slotted page: a fixed 4096-byte buffer with a
// small header, a slot directory growing forward from byte 20, and a record
// heap growing backward from byte 4096.
package page

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/brayanjuls/csprimer-db/record"
)

// Size is the fixed on-disk and in-memory size of a page, header included.
const Size = 4096

// HeaderSize is the width of the five INT32 header fields.
const HeaderSize = 20

// SlotSize is the width of one slot directory entry: (record_end_offset,
// record_size), both INT32.
const SlotSize = 8

var (
	// ErrFull is returned by Insert when a record does not fit in the
	// remaining free space.
	ErrFull = errors.New("page: insufficient free space")
	// ErrCorrupt is returned by Decode when a buffer violates one of the
	// page's header invariants.
	ErrCorrupt = errors.New("page: corrupt page")
)

const (
	minIDOffset              = 0
	maxIDOffset              = 4
	slotCountOffset          = 8
	slotEndOffsetOffset      = 12
	freeSpaceLowOffsetOffset = 16
)

// Page is a slotted page. The zero value is not usable; construct one with
// New or Decode.
type Page struct {
	buf [Size]byte
}

// New returns an empty page: no slots, a full free-space window, and an
// empty id range.
func New() *Page {
	p := &Page{}
	p.setInt32(minIDOffset, 0)
	p.setInt32(maxIDOffset, -1)
	p.setInt32(slotCountOffset, 0)
	p.setInt32(slotEndOffsetOffset, HeaderSize)
	p.setInt32(freeSpaceLowOffsetOffset, Size)
	return p
}

func (p *Page) int32At(off int) int32 {
	return int32(binary.LittleEndian.Uint32(p.buf[off : off+4]))
}

func (p *Page) setInt32(off int, v int32) {
	binary.LittleEndian.PutUint32(p.buf[off:off+4], uint32(v))
}

// MinID returns the smallest internal record id assigned on this page.
func (p *Page) MinID() int32 { return p.int32At(minIDOffset) }

// MaxID returns the largest internal record id assigned on this page.
func (p *Page) MaxID() int32 { return p.int32At(maxIDOffset) }

// SlotCount returns the number of slots currently in the directory.
func (p *Page) SlotCount() int32 { return p.int32At(slotCountOffset) }

// SlotEndOffset returns the byte offset one past the slot directory.
func (p *Page) SlotEndOffset() int32 { return p.int32At(slotEndOffsetOffset) }

// FreeSpaceLowOffset returns the byte offset of the start of the record
// heap, i.e. the low-water mark of free space.
func (p *Page) FreeSpaceLowOffset() int32 { return p.int32At(freeSpaceLowOffsetOffset) }

// Fits reports whether a record of encoded size r can be appended without
// exceeding the page's free space, per the free-space test: the new slot
// consumes 8 bytes and the record consumes r.
func (p *Page) Fits(r int) bool {
	return int(p.FreeSpaceLowOffset())-r >= int(p.SlotEndOffset())+8
}

// Insert appends rec to the record heap and a matching entry to the slot
// directory, in insertion order. It returns ErrFull if rec does not fit.
func (p *Page) Insert(rec []byte) error {
	if !p.Fits(len(rec)) {
		return ErrFull
	}

	oldLow := p.FreeSpaceLowOffset()
	newLow := oldLow - int32(len(rec))
	copy(p.buf[newLow:oldLow], rec)

	slotOffset := p.SlotEndOffset()
	p.setInt32(int(slotOffset), oldLow)
	p.setInt32(int(slotOffset)+4, int32(len(rec)))

	count := p.SlotCount()
	if count == 0 {
		p.setInt32(minIDOffset, 0)
		p.setInt32(maxIDOffset, 0)
	} else {
		p.setInt32(maxIDOffset, p.MaxID()+1)
	}

	p.setInt32(slotCountOffset, count+1)
	p.setInt32(slotEndOffsetOffset, slotOffset+SlotSize)
	p.setInt32(freeSpaceLowOffsetOffset, newLow)
	return nil
}

// slot returns the (record_end_offset, record_size) pair for slot i.
func (p *Page) slot(i int32) (end, size int32) {
	off := HeaderSize + i*SlotSize
	return p.int32At(int(off)), p.int32At(int(off) + 4)
}

// RecordBytes returns the raw encoded bytes of the record at slot i, in
// slot (insertion) order.
func (p *Page) RecordBytes(i int32) []byte {
	end, size := p.slot(i)
	return p.buf[end-size : end]
}

// Records decodes every record on the page against schema, in slot order.
func (p *Page) Records(schema record.Schema) ([]record.Record, error) {
	n := p.SlotCount()
	recs := make([]record.Record, 0, n)
	for i := int32(0); i < n; i++ {
		rec, err := record.Decode(p.RecordBytes(i), schema)
		if err != nil {
			return nil, fmt.Errorf("page: decode slot %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Bytes returns the page's raw 4096-byte buffer, ready to be written to
// disk verbatim.
func (p *Page) Bytes() []byte {
	cp := make([]byte, Size)
	copy(cp, p.buf[:])
	return cp
}

// Decode parses a raw 4096-byte buffer into a Page, validating the header
// invariants from the page format before trusting the slot directory.
func Decode(buf []byte) (*Page, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupt, Size, len(buf))
	}

	p := &Page{}
	copy(p.buf[:], buf)

	slotCount := p.SlotCount()
	slotEnd := p.SlotEndOffset()
	freeLow := p.FreeSpaceLowOffset()

	if slotEnd != HeaderSize+SlotSize*slotCount {
		return nil, fmt.Errorf("%w: slot_end_offset %d inconsistent with slot_count %d", ErrCorrupt, slotEnd, slotCount)
	}
	if freeLow < 0 || freeLow > Size {
		return nil, fmt.Errorf("%w: free_space_low_offset %d out of range", ErrCorrupt, freeLow)
	}
	if slotEnd > freeLow {
		return nil, fmt.Errorf("%w: slot_end_offset %d overlaps free_space_low_offset %d", ErrCorrupt, slotEnd, freeLow)
	}

	return p, nil
}
