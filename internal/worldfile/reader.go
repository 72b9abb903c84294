package worldfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// reader reads .NET BinaryWriter primitives from an in-memory file. The first
// error sticks; later reads return zero values.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) seek(off int32) {
	if off < 0 || int(off) > len(r.buf) {
		r.fail(fmt.Errorf("section offset %d out of range", off))
		return
	}
	r.pos = int(off)
}

func (r *reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.fail(io.ErrUnexpectedEOF)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) skip(n int) { r.next(n) }

func (r *reader) u8() byte {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// boolean rejects bytes other than 0 and 1, which is how a misaligned walk
// usually shows up.
func (r *reader) boolean() bool {
	b := r.u8()
	if b > 1 {
		r.fail(fmt.Errorf("invalid bool byte 0x%02x at offset %d", b, r.pos-1))
		return false
	}
	return b == 1
}

func (r *reader) i16() int16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b))
}

func (r *reader) u32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) i32() int32 { return int32(r.u32()) }

func (r *reader) u64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) f64() float64 { return math.Float64frombits(r.u64()) }

// str reads a 7-bit length-prefixed UTF-8 string.
func (r *reader) str() string {
	var n, shift int
	for {
		b := r.u8()
		if r.err != nil {
			return ""
		}
		n |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 28 {
			r.fail(fmt.Errorf("string length prefix too long at offset %d", r.pos))
			return ""
		}
	}
	b := r.next(n)
	if b == nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.fail(fmt.Errorf("invalid utf-8 string at offset %d", r.pos-n))
		return ""
	}
	return string(b)
}
