package parquet

import (
	"bytes"
	"encoding/binary"
	"math"
)

// The functions in this file are the write-side inverse of the teacher's
// decodePlainValues (main/plain_decode.go): where that function walked a
// byte offset forward reading one physical type at a time into a
// []interface{}, these walk a typed Go slice forward writing into a
// *bytes.Buffer. PLAIN is the only value encoding this writer emits
// (spec.md §4.2); there is no dictionary or delta path.

func encodePlainBool(buf *bytes.Buffer, values []bool) {
	n := (len(values) + 7) / 8
	packed := make([]byte, n)
	for i, v := range values {
		if v {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	buf.Write(packed)
}

func encodePlainInt32(buf *bytes.Buffer, values []int32) {
	var tmp [4]byte
	for _, v := range values {
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		buf.Write(tmp[:])
	}
}

func encodePlainInt64(buf *bytes.Buffer, values []int64) {
	var tmp [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(tmp[:], uint64(v))
		buf.Write(tmp[:])
	}
}

func encodePlainFloat(buf *bytes.Buffer, values []float32) {
	var tmp [4]byte
	for _, v := range values {
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
		buf.Write(tmp[:])
	}
}

func encodePlainDouble(buf *bytes.Buffer, values []float64) {
	var tmp [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
		buf.Write(tmp[:])
	}
}

// encodePlainByteArray writes each value as a 4-byte little-endian
// length prefix followed by the raw bytes, per spec.md §4.2.
func encodePlainByteArray(buf *bytes.Buffer, data []byte, offsets []uint32) *Error {
	if len(offsets) > 0 && offsets[0] != 0 {
		return newErr(KindInvalidOffsets, "byte array offsets must start at 0, got %d", offsets[0])
	}
	if len(offsets) > 0 && offsets[len(offsets)-1] != uint32(len(data)) {
		return newErr(KindInvalidOffsets, "byte array final offset %d must equal data length %d", offsets[len(offsets)-1], len(data))
	}

	var tmp [4]byte
	for i := 0; i+1 < len(offsets); i++ {
		start, end := offsets[i], offsets[i+1]
		if end < start || int(end) > len(data) {
			return newErr(KindInvalidOffsets, "byte array offsets[%d:%d] out of range for %d data bytes", start, end, len(data))
		}
		length := end - start
		binary.LittleEndian.PutUint32(tmp[:], length)
		buf.Write(tmp[:])
		buf.Write(data[start:end])
	}
	return nil
}

// encodePlainFixedLenByteArray writes the concatenated bytes only; the
// reader derives each value's length from the schema's type_length.
func encodePlainFixedLenByteArray(buf *bytes.Buffer, data []byte) {
	buf.Write(data)
}

// encodePlainInt96 writes 12 raw bytes per value in source order.
func encodePlainInt96(buf *bytes.Buffer, data []byte) *Error {
	if len(data)%12 != 0 {
		return newErr(KindLengthOverflow, "INT96 buffer length %d is not a multiple of 12", len(data))
	}
	buf.Write(data)
	return nil
}

// encodeValues dispatches a ColumnData variant to its PLAIN encoder,
// asserting it matches the schema's physical type (spec.md §4.2, §6
// precondition "each ColumnData variant matches the corresponding
// schema physical_type").
func encodeValues(buf *bytes.Buffer, col ColumnDef, data ColumnData) *Error {
	if data.Type != col.PhysicalType {
		return newErr(KindColumnTypeMismatch, "column %q: expected %s, got %s", col.Name, col.PhysicalType, data.Type)
	}
	switch col.PhysicalType {
	case Boolean:
		encodePlainBool(buf, data.BoolValues)
	case Int32:
		encodePlainInt32(buf, data.Int32Values)
	case Int64:
		encodePlainInt64(buf, data.Int64Values)
	case Float:
		encodePlainFloat(buf, data.FloatValues)
	case Double:
		encodePlainDouble(buf, data.DoubleValues)
	case ByteArray:
		if err := encodePlainByteArray(buf, data.ByteArrayValues, data.ByteArrayOffsets); err != nil {
			return err
		}
	case FixedLenByteArray:
		if len(data.FixedBytes) != data.ValueCount*int(col.TypeLength) {
			return newErr(KindLengthOverflow, "column %q: FIXED_LEN_BYTE_ARRAY buffer is %d bytes, expected %d*%d", col.Name, len(data.FixedBytes), data.ValueCount, col.TypeLength)
		}
		encodePlainFixedLenByteArray(buf, data.FixedBytes)
	case Int96:
		if err := encodePlainInt96(buf, data.Int96Values); err != nil {
			return err
		}
	default:
		return newErr(KindColumnTypeMismatch, "column %q: unsupported physical type %d", col.Name, col.PhysicalType)
	}
	return nil
}
