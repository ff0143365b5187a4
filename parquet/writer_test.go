package parquet

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterRoundTripsSingleRequiredInt64Column(t *testing.T) {
	schema := []ColumnDef{{Name: "id", PhysicalType: Int64, Repetition: Required}}

	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)
	require.Equal(t, []byte(magic), out.Bytes())

	values := []int64{10, 20, 30}
	werr := w.WriteRowGroup(3, []ColumnData{{Type: Int64, Int64Values: values, ValueCount: 3}}, nil)
	require.Nil(t, werr)

	pageBytes := append([]byte(nil), out.Bytes()[len(magic):]...)

	cerr := w.Close()
	require.Nil(t, cerr)

	footer := out.Bytes()
	require.Equal(t, []byte(magic), footer[:4])
	require.Equal(t, []byte(magic), footer[len(footer)-4:])

	footerLen := int(binary.LittleEndian.Uint32(footer[len(footer)-8 : len(footer)-4]))
	footerStart := len(footer) - 8 - footerLen
	r := newThriftReader(footer[footerStart : footerStart+footerLen])
	meta := r.readStruct()
	require.Equal(t, int64(3), meta[3])

	hr := newThriftReader(pageBytes)
	header := hr.readStruct()
	compressedSize := int(header[3].(int32))
	body := pageBytes[hr.pos : hr.pos+compressedSize]
	require.Len(t, body, 24)

	for i, want := range values {
		got := int64(binary.LittleEndian.Uint64(body[i*8 : i*8+8]))
		require.Equal(t, want, got)
	}
}

func TestWriterRoundTripsOptionalByteArrayWithNulls(t *testing.T) {
	schema := []ColumnDef{{Name: "label", PhysicalType: ByteArray, Repetition: Optional}}

	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)

	data := ColumnData{
		Type:             ByteArray,
		ByteArrayValues:  []byte("foobar"),
		ByteArrayOffsets: []uint32{0, 3, 6},
		ValueCount:       2,
	}
	levels := ColumnLevels{DefinitionLevels: []byte{1, 0, 1}}

	werr := w.WriteRowGroup(3, []ColumnData{data}, []ColumnLevels{levels})
	require.Nil(t, werr)

	pageBytes := append([]byte(nil), out.Bytes()[len(magic):]...)
	require.Nil(t, w.Close())

	hr := newThriftReader(pageBytes)
	header := hr.readStruct()
	compressedSize := int(header[3].(int32))
	body := pageBytes[hr.pos : hr.pos+compressedSize]

	levelStreamLen := int(binary.LittleEndian.Uint32(body[0:4]))
	decodedLevels := decodeLevelStream(t, body[:4+levelStreamLen], 3, 1)
	require.Equal(t, []byte{1, 0, 1}, decodedLevels)

	values := body[4+levelStreamLen:]
	length0 := int(binary.LittleEndian.Uint32(values[0:4]))
	require.Equal(t, "foo", string(values[4:4+length0]))
	rest := values[4+length0:]
	length1 := int(binary.LittleEndian.Uint32(rest[0:4]))
	require.Equal(t, "bar", string(rest[4:4+length1]))
}

func TestWriterRoundTripsFixedLenByteArrayColumn(t *testing.T) {
	schema := []ColumnDef{{Name: "symbol", PhysicalType: FixedLenByteArray, Repetition: Required, TypeLength: 8}}

	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)

	rows := 8
	var fixedBytes []byte
	for i := 0; i < rows; i++ {
		fixedBytes = append(fixedBytes, []byte("AAPL    ")...)
	}

	werr := w.WriteRowGroup(int64(rows), []ColumnData{{Type: FixedLenByteArray, FixedBytes: fixedBytes, ValueCount: rows}}, nil)
	require.Nil(t, werr)

	pageBytes := append([]byte(nil), out.Bytes()[len(magic):]...)
	require.Nil(t, w.Close())

	hr := newThriftReader(pageBytes)
	header := hr.readStruct()
	compressedSize := int(header[3].(int32))
	body := pageBytes[hr.pos : hr.pos+compressedSize]
	require.Equal(t, fixedBytes, body)
}

func TestWriteRowGroupRejectsColumnCountMismatch(t *testing.T) {
	schema := []ColumnDef{{Name: "a", PhysicalType: Int32, Repetition: Required}}
	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)

	werr := w.WriteRowGroup(1, []ColumnData{}, nil)
	require.NotNil(t, werr)
	require.Equal(t, KindColumnCountMismatch, werr.Kind)
}

func TestWriteRowGroupZeroRowsIsNoOp(t *testing.T) {
	schema := []ColumnDef{{Name: "a", PhysicalType: Int32, Repetition: Required}}
	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)

	before := out.Len()
	werr := w.WriteRowGroup(0, []ColumnData{{Type: Int32}}, nil)
	require.Nil(t, werr)
	require.Equal(t, before, out.Len())
}

func TestWriteRowGroupRejectsNegativeRows(t *testing.T) {
	schema := []ColumnDef{{Name: "a", PhysicalType: Int32, Repetition: Required}}
	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)

	werr := w.WriteRowGroup(-1, []ColumnData{{Type: Int32}}, nil)
	require.NotNil(t, werr)
	require.Equal(t, KindTooManyRows, werr.Kind)
}

func TestCloseIsIdempotent(t *testing.T) {
	schema := []ColumnDef{{Name: "a", PhysicalType: Int32, Repetition: Required}}
	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)

	require.Nil(t, w.Close())
	lenAfterFirst := out.Len()
	require.Nil(t, w.Close())
	require.Equal(t, lenAfterFirst, out.Len())
}

func TestWriteRowGroupRejectsCallAfterClose(t *testing.T) {
	schema := []ColumnDef{{Name: "a", PhysicalType: Int32, Repetition: Required}}
	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)
	require.Nil(t, w.Close())

	werr := w.WriteRowGroup(1, []ColumnData{{Type: Int32, Int32Values: []int32{1}, ValueCount: 1}}, nil)
	require.NotNil(t, werr)
	require.Equal(t, KindNotOpen, werr.Kind)
}

func TestResidualRowGroupSplitAcrossTwoFlushes(t *testing.T) {
	// Mirrors spec.md §8's "17 residual rows with row_group_rows=16"
	// scenario at the writer level: two WriteRowGroup calls, 16 rows
	// then 1 row, both land in the same file as independent row groups.
	schema := []ColumnDef{{Name: "a", PhysicalType: Int32, Repetition: Required}}
	var out bytes.Buffer
	w, err := Open(&out, schema, Uncompressed)
	require.Nil(t, err)

	first := make([]int32, 16)
	for i := range first {
		first[i] = int32(i)
	}
	require.Nil(t, w.WriteRowGroup(16, []ColumnData{{Type: Int32, Int32Values: first, ValueCount: 16}}, nil))
	require.Nil(t, w.WriteRowGroup(1, []ColumnData{{Type: Int32, Int32Values: []int32{16}, ValueCount: 1}}, nil))

	require.Equal(t, int64(17), w.TotalRows())
	require.Nil(t, w.Close())
}
