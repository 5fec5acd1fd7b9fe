// Package reader implements ByteReader, a positioned cursor over a byte
// slice that exposes typed little-endian reads and reports the exact
// [start, end) byte range each read consumed.
//
// Every read method returns (value, ByteRange, error) — the ByteRange lets
// callers (primarily the decoder package) attach byte-level provenance to
// each AstNode they build without threading position bookkeeping through
// every call site themselves.
//
// A ByteReader is not safe for concurrent use; callers needing parallelism
// should create one reader per goroutine over independent data (§5 of the
// accompanying specification).
package reader

import (
	"math"
	"math/big"

	"github.com/clickhouse-explorer/wirecore/endian"
	"github.com/clickhouse-explorer/wirecore/errs"
)

// ByteRange is a half-open [Start, End) interval of absolute offsets into
// the original input slice a ByteReader was constructed over.
type ByteRange struct {
	Start int
	End   int
}

// Len returns the number of bytes the range covers.
func (r ByteRange) Len() int { return r.End - r.Start }

// ByteReader is a positioned cursor over a byte slice.
type ByteReader struct {
	data   []byte
	pos    int
	engine endian.EndianEngine
}

// New creates a ByteReader over data using the given endian engine.
func New(data []byte, engine endian.EndianEngine) *ByteReader {
	return &ByteReader{data: data, engine: engine}
}

// NewLittleEndian creates a ByteReader over data using little-endian byte
// order, the byte order of every wire format this module decodes.
func NewLittleEndian(data []byte) *ByteReader {
	return New(data, endian.GetLittleEndianEngine())
}

// Pos returns the current absolute cursor offset.
func (r *ByteReader) Pos() int { return r.pos }

// Len returns the total length of the underlying slice.
func (r *ByteReader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *ByteReader) Remaining() int { return len(r.data) - r.pos }

// AtEnd reports whether the cursor has consumed the entire input.
func (r *ByteReader) AtEnd() bool { return r.pos >= len(r.data) }

// Seek repositions the cursor to an absolute offset. The decoders do not
// call it: after a compression envelope they construct a fresh reader
// over the decompressed bytes instead.
func (r *ByteReader) Seek(pos int) { r.pos = pos }

// advance consumes n bytes and returns the ByteRange covering them, or
// ErrUnexpectedEnd if fewer than n bytes remain. On error the cursor
// position is left unspecified, matching §4.1.
func (r *ByteReader) advance(n int) (ByteRange, []byte, error) {
	if r.Remaining() < n {
		return ByteRange{}, nil, errs.ErrUnexpectedEnd
	}
	start := r.pos
	b := r.data[start : start+n]
	r.pos += n

	return ByteRange{Start: start, End: r.pos}, b, nil
}

// ReadU8 reads a single unsigned byte.
func (r *ByteReader) ReadU8() (uint8, ByteRange, error) {
	rng, b, err := r.advance(1)
	if err != nil {
		return 0, rng, err
	}

	return b[0], rng, nil
}

// ReadI8 reads a single signed byte.
func (r *ByteReader) ReadI8() (int8, ByteRange, error) {
	v, rng, err := r.ReadU8()

	return int8(v), rng, err
}

// ReadU16 reads a little-endian uint16.
func (r *ByteReader) ReadU16() (uint16, ByteRange, error) {
	rng, b, err := r.advance(2)
	if err != nil {
		return 0, rng, err
	}

	return r.engine.Uint16(b), rng, nil
}

// ReadI16 reads a little-endian int16.
func (r *ByteReader) ReadI16() (int16, ByteRange, error) {
	v, rng, err := r.ReadU16()

	return int16(v), rng, err
}

// ReadU32 reads a little-endian uint32.
func (r *ByteReader) ReadU32() (uint32, ByteRange, error) {
	rng, b, err := r.advance(4)
	if err != nil {
		return 0, rng, err
	}

	return r.engine.Uint32(b), rng, nil
}

// ReadI32 reads a little-endian int32.
func (r *ByteReader) ReadI32() (int32, ByteRange, error) {
	v, rng, err := r.ReadU32()

	return int32(v), rng, err
}

// ReadU64 reads a little-endian uint64.
func (r *ByteReader) ReadU64() (uint64, ByteRange, error) {
	rng, b, err := r.advance(8)
	if err != nil {
		return 0, rng, err
	}

	return r.engine.Uint64(b), rng, nil
}

// ReadI64 reads a little-endian int64.
func (r *ByteReader) ReadI64() (int64, ByteRange, error) {
	v, rng, err := r.ReadU64()

	return int64(v), rng, err
}

// ReadU128 reads a 16-byte little-endian unsigned integer, returned as an
// arbitrary-precision *big.Int.
func (r *ByteReader) ReadU128() (*big.Int, ByteRange, error) {
	return r.readWideUint(16)
}

// ReadI128 reads a 16-byte little-endian two's-complement signed integer,
// sign-extended into an arbitrary-precision *big.Int.
func (r *ByteReader) ReadI128() (*big.Int, ByteRange, error) {
	return r.readWideInt(16)
}

// ReadU256 reads a 32-byte little-endian unsigned integer.
func (r *ByteReader) ReadU256() (*big.Int, ByteRange, error) {
	return r.readWideUint(32)
}

// ReadI256 reads a 32-byte little-endian two's-complement signed integer.
func (r *ByteReader) ReadI256() (*big.Int, ByteRange, error) {
	return r.readWideInt(32)
}

// readWideUint reads an n-byte little-endian unsigned integer.
func (r *ByteReader) readWideUint(n int) (*big.Int, ByteRange, error) {
	rng, b, err := r.advance(n)
	if err != nil {
		return nil, rng, err
	}

	return leBytesToBigInt(b, false), rng, nil
}

// readWideInt reads an n-byte little-endian two's-complement signed integer.
func (r *ByteReader) readWideInt(n int) (*big.Int, ByteRange, error) {
	rng, b, err := r.advance(n)
	if err != nil {
		return nil, rng, err
	}

	return leBytesToBigInt(b, true), rng, nil
}

// leBytesToBigInt interprets little-endian bytes b as an integer, sign
// extending when signed is true and the high bit of the most significant
// byte is set.
func leBytesToBigInt(b []byte, signed bool) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}

	v := new(big.Int).SetBytes(be)
	if signed && len(be) > 0 && be[0]&0x80 != 0 {
		// Two's complement: v - 2^(8*n)
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(be)*8))
		v.Sub(v, mod)
	}

	return v
}

// ReadFloat32 reads an IEEE-754 little-endian binary32.
func (r *ByteReader) ReadFloat32() (float32, ByteRange, error) {
	bits, rng, err := r.ReadU32()
	if err != nil {
		return 0, rng, err
	}

	return math.Float32frombits(bits), rng, nil
}

// ReadFloat64 reads an IEEE-754 little-endian binary64.
func (r *ByteReader) ReadFloat64() (float64, ByteRange, error) {
	bits, rng, err := r.ReadU64()
	if err != nil {
		return 0, rng, err
	}

	return math.Float64frombits(bits), rng, nil
}

// ReadBFloat16 reads 2 bytes holding the high 16 bits of an IEEE-754
// binary32 and reconstructs the float32 by left-padding with two zero
// bytes, per §4.1. NaN payloads in the low 16 bits are lost by
// construction; callers should only assert math.IsNaN, never a specific
// bit pattern (see SPEC_FULL.md's open-question decision).
func (r *ByteReader) ReadBFloat16() (float32, ByteRange, error) {
	hi, rng, err := r.ReadU16()
	if err != nil {
		return 0, rng, err
	}

	return math.Float32frombits(uint32(hi) << 16), rng, nil
}

// ReadBytes borrows n bytes from the underlying slice without copying.
// The returned slice aliases the reader's input and must not be retained
// past the input's lifetime unless the caller knows the input outlives it
// (§5's zero-copy mode).
func (r *ByteReader) ReadBytes(n int) ([]byte, ByteRange, error) {
	rng, b, err := r.advance(n)

	return b, rng, err
}

// ReadBytesCopy behaves like ReadBytes but returns an owned copy.
func (r *ByteReader) ReadBytesCopy(n int) ([]byte, ByteRange, error) {
	b, rng, err := r.ReadBytes(n)
	if err != nil {
		return nil, rng, err
	}
	cp := make([]byte, len(b))
	copy(cp, b)

	return cp, rng, nil
}

// SkipBytes advances the cursor by n bytes without interpreting them,
// still returning the ByteRange consumed. Used for JSON skip-path/
// skip-regexp entries (§4.3) that exist only to advance the cursor.
func (r *ByteReader) SkipBytes(n int) (ByteRange, error) {
	rng, _, err := r.advance(n)

	return rng, err
}

// ReadLEB128 reads a standard unsigned LEB128 variable-length integer: 7
// data bits per byte, MSB set means "continuation byte follows". Fails
// with ErrLebOverflow if the value would exceed 64 bits, or
// ErrUnexpectedEnd if the input is truncated mid-sequence.
func (r *ByteReader) ReadLEB128() (uint64, ByteRange, error) {
	start := r.pos

	var result uint64
	var shift uint
	for {
		b, _, err := r.ReadU8()
		if err != nil {
			return 0, ByteRange{Start: start, End: r.pos}, errs.ErrUnexpectedEnd
		}

		if shift >= 64 {
			return 0, ByteRange{Start: start, End: r.pos}, errs.ErrLebOverflow
		}

		chunk := uint64(b & 0x7F)
		if shift == 63 && chunk > 1 {
			// Only the lowest bit of the 10th byte fits in a 64-bit value.
			return 0, ByteRange{Start: start, End: r.pos}, errs.ErrLebOverflow
		}

		result |= chunk << shift
		shift += 7

		if b&0x80 == 0 {
			break
		}
	}

	return result, ByteRange{Start: start, End: r.pos}, nil
}
