// Package sink implements the components that sit between the SPSC
// ring buffer and the Parquet writer: the batch accumulator (spec.md
// §4.8) and the log sink worker / drainer (spec.md §4.9).
package sink

import (
	"fmt"
	"math"

	"parquetflow/parquet"
)

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

func float32FromBits(bits uint32) float32 { return math.Float32frombits(bits) }
func float64FromBits(bits uint64) float64 { return math.Float64frombits(bits) }

// FieldLayout describes where one column's fixed-width slot sits inside
// a producer record, after the null bitmap prefix (spec.md §4.8).
//
// For BYTE_ARRAY columns, Width is the full slot size including a
// leading 4-byte little-endian length prefix — the same shape PLAIN
// encoding itself uses, so the accumulator can copy the slot straight
// into the column's value buffer without re-framing it. For every
// other physical type, Width is the type's natural encoded size
// (1 byte packed per-bit for BOOLEAN is not applicable here since a
// record field is byte-aligned; BOOLEAN fields occupy one whole byte
// per record, 0 or 1).
type FieldLayout struct {
	Offset int
	Width  int
}

// Layout is the schema-derived record shape the accumulator splits
// incoming fixed-size byte records against. It only supports REQUIRED
// and OPTIONAL columns (max_def_level <= 1, no repetition): a producer
// record is a flat tuple of scalar fields, which matches the order-feed
// domain spec.md §1 describes. Columns needing REPEATED semantics are
// written directly through parquet.Writer.WriteRowGroup instead of
// through this accumulator.
type Layout struct {
	Schema          []parquet.ColumnDef
	NullBitmapBytes int
	// NullBitIndex[i] is the bit position of column i within the null
	// bitmap prefix, or -1 if column i is REQUIRED (no bit reserved).
	NullBitIndex []int
	Fields       []FieldLayout
	RecordSize   int
}

// NewLayout computes a Layout from schema and the caller-supplied slot
// width for each column (widths[i] corresponds to schema[i]).
func NewLayout(schema []parquet.ColumnDef, widths []int) (*Layout, error) {
	if len(schema) != len(widths) {
		return nil, fmt.Errorf("sink: widths has %d entries, schema has %d columns", len(widths), len(schema))
	}

	nullBitIndex := make([]int, len(schema))
	nullableCount := 0
	for i, col := range schema {
		if col.Repetition == parquet.Repeated {
			return nil, fmt.Errorf("sink: column %q is REPEATED, not supported by the fixed-record accumulator", col.Name)
		}
		if col.Repetition == parquet.Optional {
			nullBitIndex[i] = nullableCount
			nullableCount++
		} else {
			nullBitIndex[i] = -1
		}
	}

	nullBitmapBytes := (nullableCount + 7) / 8
	fields := make([]FieldLayout, len(schema))
	offset := nullBitmapBytes
	for i, w := range widths {
		if w <= 0 {
			return nil, fmt.Errorf("sink: column %q has non-positive width %d", schema[i].Name, w)
		}
		fields[i] = FieldLayout{Offset: offset, Width: w}
		offset += w
	}

	return &Layout{
		Schema:          schema,
		NullBitmapBytes: nullBitmapBytes,
		NullBitIndex:    nullBitIndex,
		Fields:          fields,
		RecordSize:      offset,
	}, nil
}

// Accumulator splits fixed-size records into per-column buffers
// (spec.md §4.8). It is owned exclusively by the drainer goroutine and
// must never be touched by a producer.
type Accumulator struct {
	layout *Layout

	columns  []parquet.ColumnData
	levels   []parquet.ColumnLevels
	rowCount int
}

// NewAccumulator constructs an empty Accumulator for layout.
func NewAccumulator(layout *Layout) *Accumulator {
	a := &Accumulator{layout: layout}
	a.columns = make([]parquet.ColumnData, len(layout.Schema))
	a.levels = make([]parquet.ColumnLevels, len(layout.Schema))
	for i, col := range layout.Schema {
		a.columns[i].Type = col.PhysicalType
		if col.PhysicalType == parquet.ByteArray {
			a.columns[i].ByteArrayOffsets = append(a.columns[i].ByteArrayOffsets, 0)
		}
	}
	return a
}

// RowCount returns the number of records appended since the last Reset.
func (a *Accumulator) RowCount() int { return a.rowCount }

// Columns returns the accumulated per-column data, valid until the next
// Append or Reset call.
func (a *Accumulator) Columns() []parquet.ColumnData { return a.columns }

// Levels returns the accumulated per-column definition levels, valid
// until the next Append or Reset call.
func (a *Accumulator) Levels() []parquet.ColumnLevels { return a.levels }

// Append splits one fixed-size record into the accumulator's per-column
// buffers. record must be exactly layout.RecordSize bytes.
func (a *Accumulator) Append(record []byte) error {
	if len(record) != a.layout.RecordSize {
		return fmt.Errorf("sink: record is %d bytes, layout expects %d", len(record), a.layout.RecordSize)
	}

	for i, col := range a.layout.Schema {
		field := a.layout.Fields[i]
		slot := record[field.Offset : field.Offset+field.Width]

		present := true
		if bit := a.layout.NullBitIndex[i]; bit >= 0 {
			byteIdx := bit / 8
			bitIdx := uint(bit % 8)
			present = record[byteIdx]&(1<<bitIdx) != 0
			a.levels[i].DefinitionLevels = append(a.levels[i].DefinitionLevels, boolToLevel(present))
		}

		if !present {
			continue
		}
		appendField(&a.columns[i], col, slot)
	}

	a.rowCount++
	return nil
}

func boolToLevel(present bool) byte {
	if present {
		return 1
	}
	return 0
}

func appendField(data *parquet.ColumnData, col parquet.ColumnDef, slot []byte) {
	switch col.PhysicalType {
	case parquet.Boolean:
		data.BoolValues = append(data.BoolValues, slot[0] != 0)
	case parquet.Int32:
		data.Int32Values = append(data.Int32Values, int32(leUint32(slot)))
	case parquet.Int64:
		data.Int64Values = append(data.Int64Values, int64(leUint64(slot)))
	case parquet.Float:
		data.FloatValues = append(data.FloatValues, float32FromBits(leUint32(slot)))
	case parquet.Double:
		data.DoubleValues = append(data.DoubleValues, float64FromBits(leUint64(slot)))
	case parquet.Int96:
		data.Int96Values = append(data.Int96Values, slot...)
	case parquet.FixedLenByteArray:
		data.FixedBytes = append(data.FixedBytes, slot...)
	case parquet.ByteArray:
		length := leUint32(slot[:4])
		payload := slot[4 : 4+length]
		data.ByteArrayValues = append(data.ByteArrayValues, payload...)
		data.ByteArrayOffsets = append(data.ByteArrayOffsets, uint32(len(data.ByteArrayValues)))
	}
	data.ValueCount++
}

// Reset clears the accumulator's buffers while retaining their
// allocated capacity, per spec.md §4.8's "reset clears buffers
// retaining capacity".
func (a *Accumulator) Reset() {
	for i, col := range a.layout.Schema {
		a.columns[i] = parquet.ColumnData{
			Type:             col.PhysicalType,
			BoolValues:       a.columns[i].BoolValues[:0],
			Int32Values:      a.columns[i].Int32Values[:0],
			Int64Values:      a.columns[i].Int64Values[:0],
			FloatValues:      a.columns[i].FloatValues[:0],
			DoubleValues:     a.columns[i].DoubleValues[:0],
			Int96Values:      a.columns[i].Int96Values[:0],
			FixedBytes:       a.columns[i].FixedBytes[:0],
			ByteArrayValues:  a.columns[i].ByteArrayValues[:0],
			ByteArrayOffsets: append(a.columns[i].ByteArrayOffsets[:0], 0),
		}
		a.levels[i] = parquet.ColumnLevels{
			DefinitionLevels: a.levels[i].DefinitionLevels[:0],
		}
	}
	a.rowCount = 0
}
