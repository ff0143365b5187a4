package parquet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteUvarintSingleByte(t *testing.T) {
	var buf bytes.Buffer
	w := newThriftWriter(&buf)
	w.writeUvarint(127)
	require.Equal(t, []byte{0x7f}, buf.Bytes())
}

func TestWriteUvarintMultiByte(t *testing.T) {
	var buf bytes.Buffer
	w := newThriftWriter(&buf)
	w.writeUvarint(300)
	// 300 = 0b1_0010_1100 -> low 7 bits 0101100 with continuation, then 10
	require.Equal(t, []byte{0xac, 0x02}, buf.Bytes())
}

func TestZigzagRoundTripsSmallMagnitudes(t *testing.T) {
	require.Equal(t, uint64(0), zigzag64(0))
	require.Equal(t, uint64(1), zigzag64(-1))
	require.Equal(t, uint64(2), zigzag64(1))
	require.Equal(t, uint64(3), zigzag64(-2))
}

func TestFieldHeaderUsesShortFormForSmallDeltas(t *testing.T) {
	var buf bytes.Buffer
	w := newThriftWriter(&buf)
	w.writeFieldHeader(1, ctypeI32)
	require.Equal(t, []byte{0x15}, buf.Bytes())
}

func TestFieldHeaderUsesLongFormForLargeDeltas(t *testing.T) {
	var buf bytes.Buffer
	w := newThriftWriter(&buf)
	w.writeFieldHeader(20, ctypeI32)
	require.Equal(t, byte(ctypeI32), buf.Bytes()[0])
}

func TestStructBeginEndRestoresLastID(t *testing.T) {
	var buf bytes.Buffer
	w := newThriftWriter(&buf)
	w.writeI32Field(1, 1)
	w.writeStructField(2)
	w.writeStructBegin()
	w.writeI32Field(1, 1) // nested struct's field ids reset
	w.writeStructEnd()
	w.writeI32Field(3, 3) // delta computed against outer lastID=2
	require.Equal(t, int16(3), w.lastID)
}

func TestListHeaderShortAndLongForm(t *testing.T) {
	var buf bytes.Buffer
	w := newThriftWriter(&buf)
	w.writeListHeader(ctypeI32, 3)
	require.Equal(t, []byte{0x35}, buf.Bytes())

	buf.Reset()
	w = newThriftWriter(&buf)
	w.writeListHeader(ctypeI32, 20)
	require.Equal(t, byte(0xf0|ctypeI32), buf.Bytes()[0])
}

func TestBoolFieldEncodesEntirelyInHeader(t *testing.T) {
	var buf bytes.Buffer
	w := newThriftWriter(&buf)
	w.writeBoolField(1, true)
	require.Len(t, buf.Bytes(), 1)
	require.Equal(t, byte(1)<<4|ctypeBoolTrue, buf.Bytes()[0])

	buf.Reset()
	w = newThriftWriter(&buf)
	w.writeBoolField(1, false)
	require.Equal(t, byte(1)<<4|ctypeBoolFalse, buf.Bytes()[0])
}

func TestBinaryFieldWritesLengthPrefixThenBytes(t *testing.T) {
	var buf bytes.Buffer
	w := newThriftWriter(&buf)
	w.writeBinaryField(1, []byte("abc"))
	got := buf.Bytes()
	require.Equal(t, byte(1)<<4|ctypeBinary, got[0])
	require.Equal(t, byte(3), got[1])
	require.Equal(t, []byte("abc"), got[2:])
}
