package sink

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"parquetflow/parquet"
)

func schemaForTest() ([]parquet.ColumnDef, []int) {
	schema := []parquet.ColumnDef{
		{Name: "id", PhysicalType: parquet.Int64, Repetition: parquet.Required},
		{Name: "label", PhysicalType: parquet.ByteArray, Repetition: parquet.Optional},
	}
	widths := []int{8, 20} // 20-byte slot: 4-byte length prefix + up to 16 bytes of payload
	return schema, widths
}

func buildRecord(t *testing.T, layout *Layout, id int64, label string, present bool) []byte {
	t.Helper()
	rec := make([]byte, layout.RecordSize)
	if present {
		rec[0] = 0x01 // bit 0 of the null bitmap: label is present
	}
	binary.LittleEndian.PutUint64(rec[layout.Fields[0].Offset:], uint64(id))
	if present {
		slot := rec[layout.Fields[1].Offset:]
		binary.LittleEndian.PutUint32(slot[0:4], uint32(len(label)))
		copy(slot[4:], label)
	}
	return rec
}

func TestNewLayoutComputesOffsetsAndNullBitmap(t *testing.T) {
	schema, widths := schemaForTest()
	layout, err := NewLayout(schema, widths)
	require.NoError(t, err)

	require.Equal(t, 1, layout.NullBitmapBytes) // one OPTIONAL column -> 1 bit -> 1 byte
	require.Equal(t, -1, layout.NullBitIndex[0])
	require.Equal(t, 0, layout.NullBitIndex[1])
	require.Equal(t, 1, layout.Fields[0].Offset)
	require.Equal(t, 9, layout.Fields[1].Offset)
	require.Equal(t, 1+8+20, layout.RecordSize)
}

func TestNewLayoutRejectsRepeatedColumn(t *testing.T) {
	schema := []parquet.ColumnDef{{Name: "a", PhysicalType: parquet.Int32, Repetition: parquet.Repeated}}
	_, err := NewLayout(schema, []int{4})
	require.Error(t, err)
}

func TestAccumulatorAppendSplitsFixedRecord(t *testing.T) {
	schema, widths := schemaForTest()
	layout, err := NewLayout(schema, widths)
	require.NoError(t, err)

	acc := NewAccumulator(layout)
	require.NoError(t, acc.Append(buildRecord(t, layout, 1, "foo", true)))
	require.NoError(t, acc.Append(buildRecord(t, layout, 2, "", false)))
	require.NoError(t, acc.Append(buildRecord(t, layout, 3, "bar", true)))

	require.Equal(t, 3, acc.RowCount())

	cols := acc.Columns()
	require.Equal(t, []int64{1, 2, 3}, cols[0].Int64Values)
	require.Equal(t, 3, cols[0].ValueCount)

	require.Equal(t, "foobar", string(cols[1].ByteArrayValues))
	require.Equal(t, []uint32{0, 3, 6}, cols[1].ByteArrayOffsets)
	require.Equal(t, 2, cols[1].ValueCount)

	levels := acc.Levels()
	require.Nil(t, levels[0].DefinitionLevels) // REQUIRED column carries no levels
	require.Equal(t, []byte{1, 0, 1}, levels[1].DefinitionLevels)
}

func TestAccumulatorRejectsWrongSizedRecord(t *testing.T) {
	schema, widths := schemaForTest()
	layout, err := NewLayout(schema, widths)
	require.NoError(t, err)

	acc := NewAccumulator(layout)
	require.Error(t, acc.Append(make([]byte, layout.RecordSize-1)))
}

func TestAccumulatorResetRetainsCapacity(t *testing.T) {
	schema, widths := schemaForTest()
	layout, err := NewLayout(schema, widths)
	require.NoError(t, err)

	acc := NewAccumulator(layout)
	require.NoError(t, acc.Append(buildRecord(t, layout, 1, "foo", true)))
	cols := acc.Columns()
	capBefore := cap(cols[0].Int64Values)

	acc.Reset()
	require.Equal(t, 0, acc.RowCount())
	require.Len(t, acc.Columns()[0].Int64Values, 0)
	require.Equal(t, capBefore, cap(acc.Columns()[0].Int64Values))
	require.Equal(t, []uint32{0}, acc.Columns()[1].ByteArrayOffsets)
}
