package parquet

import (
	"bytes"
	"encoding/binary"
)

// encodeLevels implements the RLE/bit-pack hybrid encoder of spec.md
// §4.3. It is the write-side inverse of the teacher's decodeRLEBytes /
// decodeBitPackedBytes (main/rle_decoder.go): that code walked a
// varint-headed run stream turning it into a flat []byte of levels;
// this walks a flat []byte of levels turning it into the same kind of
// run stream, so that a standard RLE/bit-pack decoder (including the
// teacher's own) reproduces the original sequence exactly (spec.md §8,
// property 5).
//
// levels must each be <= maxLevel. bitWidth = ceil(log2(maxLevel+1)).
// The encoding policy (spec.md §4.3, "acceptable policy"): scan for runs
// of identical values; a run of length >= 8 is emitted as RLE, anything
// shorter is buffered and flushed as full 8-value bit-packed groups.
//
// A decoder only truncates padding at the very end of the whole
// stream — it decodes every bit-packed group in full — so a
// short, zero-padded group anywhere but the last position in the
// stream would shift every value after it. When a long run interrupts
// a partially filled pending buffer, this encoder borrows just enough
// values off the front of that run to round the buffer up to a
// multiple of 8 before flushing it, shrinking the run by the same
// amount; RLE runs have no such alignment requirement since they carry
// an explicit count with no implicit padding.
func encodeLevels(levels []byte, maxLevel int) []byte {
	bitWidth := bitWidthFor(maxLevel)
	if bitWidth == 0 {
		// All levels are implicitly 0; nothing to encode but the count
		// is carried by the caller via num_values, not by this stream.
		return nil
	}

	var out bytes.Buffer
	var pending []byte

	flushFullGroups := func() {
		for len(pending) >= 8 {
			writeBitPackedRun(&out, pending[:8], bitWidth)
			pending = pending[8:]
		}
	}

	i := 0
	for i < len(levels) {
		runLen := 1
		for i+runLen < len(levels) && levels[i+runLen] == levels[i] {
			runLen++
		}

		if runLen >= 8 {
			if need := (8 - len(pending)%8) % 8; need > 0 {
				for k := 0; k < need; k++ {
					pending = append(pending, levels[i])
				}
				i += need
				runLen -= need
			}
			flushFullGroups()

			if runLen >= 8 {
				writeRLERun(&out, levels[i], runLen, bitWidth)
				i += runLen
			} else {
				for k := 0; k < runLen; k++ {
					pending = append(pending, levels[i])
				}
				i += runLen
			}
			continue
		}

		for k := 0; k < runLen; k++ {
			pending = append(pending, levels[i])
		}
		i += runLen
		flushFullGroups()
	}

	if len(pending) > 0 {
		writeBitPackedRun(&out, pending, bitWidth)
	}
	return out.Bytes()
}

// bitWidthFor returns ceil(log2(maxLevel+1)), the number of bits needed
// to represent every value in [0, maxLevel].
func bitWidthFor(maxLevel int) uint {
	if maxLevel <= 0 {
		return 0
	}
	width := uint(0)
	for (1 << width) <= maxLevel {
		width++
	}
	return width
}

// writeRLERun writes one RLE run: a header varint with LSB=0 and the
// repeat count in the upper bits, followed by ceil(bitWidth/8)
// little-endian bytes holding the repeated value.
func writeRLERun(out *bytes.Buffer, value byte, count int, bitWidth uint) {
	header := uint64(count) << 1
	writeUvarintTo(out, header)
	valueWidth := int((bitWidth + 7) / 8)
	for i := 0; i < valueWidth; i++ {
		out.WriteByte(byte(uint32(value) >> (8 * uint(i))))
	}
}

// writeBitPackedRun writes one bit-packed run: a header varint with
// LSB=1 and the number of 8-value groups in the upper bits, followed by
// the values packed LSB-first at bitWidth bits each, padded with zero
// values to a multiple of 8.
func writeBitPackedRun(out *bytes.Buffer, values []byte, bitWidth uint) {
	groups := (len(values) + 7) / 8
	header := uint64(groups)<<1 | 1
	writeUvarintTo(out, header)

	padded := groups * 8
	var bitBuf uint64
	var bitCount uint
	for i := 0; i < padded; i++ {
		var v byte
		if i < len(values) {
			v = values[i]
		}
		bitBuf |= uint64(v) << bitCount
		bitCount += bitWidth
		for bitCount >= 8 {
			out.WriteByte(byte(bitBuf))
			bitBuf >>= 8
			bitCount -= 8
		}
	}
	if bitCount > 0 {
		out.WriteByte(byte(bitBuf))
	}
}

func writeUvarintTo(out *bytes.Buffer, u uint64) {
	for u >= 0x80 {
		out.WriteByte(byte(u) | 0x80)
		u >>= 7
	}
	out.WriteByte(byte(u))
}

// encodeLevelStream computes the RLE/bit-pack bytes for levels and
// prepends the 4-byte little-endian length prefix used by data-page v1
// framing (spec.md §4.3, final paragraph). An empty/nil levels slice
// still produces a 4-byte zero-length prefix followed by nothing, which
// is what REQUIRED columns should never call this for in the first
// place (callers omit the stream entirely instead).
func encodeLevelStream(levels []byte, maxLevel int) []byte {
	encoded := encodeLevels(levels, maxLevel)
	var out bytes.Buffer
	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(encoded)))
	out.Write(lenPrefix[:])
	out.Write(encoded)
	return out.Bytes()
}
