package parquet

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// decodeLevelStream is a standalone RLE/bit-pack hybrid decoder used
// only by tests, to verify encodeLevelStream's output round-trips
// (spec.md §8, property 5). It mirrors the same run-header convention
// encodeLevels writes: LSB=0 is an RLE run (upper bits = repeat count),
// LSB=1 is a bit-packed run (upper bits = number of 8-value groups).
func decodeLevelStream(t *testing.T, stream []byte, numValues int, bitWidth uint) []byte {
	t.Helper()
	require.GreaterOrEqual(t, len(stream), 4)
	length := int(binary.LittleEndian.Uint32(stream[0:4]))
	encoded := stream[4 : 4+length]

	out := make([]byte, 0, numValues)
	i := 0
	for i < len(encoded) && len(out) < numValues {
		header, n := decodeUvarint(encoded[i:])
		require.Greater(t, n, 0)
		i += n

		count := header >> 1
		bitpacked := header&1 != 0

		if bitpacked {
			// A bit-packed block always decodes its full padded group
			// count; only the very last block in the stream may need
			// trailing values trimmed, which happens once below after
			// every block has been appended.
			groupValues := int(count) * 8
			byteCount := (groupValues*int(bitWidth) + 7) / 8
			chunk := encoded[i : i+byteCount]
			i += byteCount

			var bitBuf uint64
			var bitCount uint
			bi := 0
			for produced := 0; produced < groupValues; produced++ {
				for bitCount < bitWidth && bi < len(chunk) {
					bitBuf |= uint64(chunk[bi]) << bitCount
					bitCount += 8
					bi++
				}
				mask := uint64(1)<<bitWidth - 1
				out = append(out, byte(bitBuf&mask))
				bitBuf >>= bitWidth
				bitCount -= bitWidth
			}
		} else {
			valueWidth := int(bitWidth+7) / 8
			var value byte
			if valueWidth > 0 {
				value = encoded[i]
				i += valueWidth
			}
			for k := uint64(0); k < count && len(out) < numValues; k++ {
				out = append(out, value)
			}
		}

		if len(out) >= numValues {
			break
		}
	}
	if len(out) > numValues {
		out = out[:numValues]
	}
	return out
}

func decodeUvarint(b []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, c := range b {
		if c < 0x80 {
			return x | uint64(c)<<s, i + 1
		}
		x |= uint64(c&0x7f) << s
		s += 7
	}
	return 0, 0
}

func TestEncodeLevelStreamRoundTripsShortRun(t *testing.T) {
	levels := []byte{0, 1, 0, 1, 1}
	stream := encodeLevelStream(levels, 1)
	got := decodeLevelStream(t, stream, len(levels), 1)
	require.Equal(t, levels, got)
}

func TestEncodeLevelStreamRoundTripsLongRun(t *testing.T) {
	levels := make([]byte, 20)
	for i := range levels {
		levels[i] = 1
	}
	stream := encodeLevelStream(levels, 1)
	got := decodeLevelStream(t, stream, len(levels), 1)
	require.Equal(t, levels, got)
}

func TestEncodeLevelStreamRoundTripsMixedRuns(t *testing.T) {
	levels := []byte{0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 0}
	stream := encodeLevelStream(levels, 1)
	got := decodeLevelStream(t, stream, len(levels), 1)
	require.Equal(t, levels, got)
}

func TestBitWidthForComputesCeilLog2(t *testing.T) {
	require.Equal(t, uint(0), bitWidthFor(0))
	require.Equal(t, uint(1), bitWidthFor(1))
	require.Equal(t, uint(2), bitWidthFor(2))
	require.Equal(t, uint(2), bitWidthFor(3))
	require.Equal(t, uint(3), bitWidthFor(4))
}
