package parquet

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// A minimal, generic Thrift Compact Protocol reader used only by tests,
// to verify the hand-written encoder in thrift.go/writer.go/page.go
// produces wire bytes a standard compact-protocol decoder can parse
// back into the expected field values (spec.md §8: "a reference reader
// parses the footer and reconstructs exact row/column counts").
//
// It decodes a struct into a map keyed by field id, where list/struct
// values are decoded recursively. Bool fields are recovered from their
// header type code, matching the encoder's "bool as struct field"
// shortcut.
type thriftReader struct {
	data []byte
	pos  int
}

func newThriftReader(data []byte) *thriftReader { return &thriftReader{data: data} }

func (r *thriftReader) readByte() byte {
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *thriftReader) readUvarint() uint64 {
	var x uint64
	var s uint
	for {
		b := r.readByte()
		if b < 0x80 {
			return x | uint64(b)<<s
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
}

func unzigzag64(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

func unzigzag32(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// readStruct decodes fields until a STOP byte, returning a map from
// field id to decoded value.
func (r *thriftReader) readStruct() map[int16]interface{} {
	fields := make(map[int16]interface{})
	lastID := int16(0)
	for {
		header := r.readByte()
		if header == ctypeStop {
			return fields
		}
		typeCode := header & 0x0f
		delta := header >> 4
		var fieldID int16
		if delta == 0 {
			typeCode = header
			fieldID = int16(unzigzag64(r.readUvarint()))
		} else {
			fieldID = lastID + int16(delta)
		}
		lastID = fieldID
		fields[fieldID] = r.readValue(typeCode)
	}
}

func (r *thriftReader) readValue(typeCode byte) interface{} {
	switch typeCode {
	case ctypeBoolTrue:
		return true
	case ctypeBoolFalse:
		return false
	case ctypeI32:
		return unzigzag32(uint32(r.readUvarint()))
	case ctypeI64:
		return unzigzag64(r.readUvarint())
	case ctypeDouble:
		var b [8]byte
		for i := 0; i < 8; i++ {
			b[i] = r.readByte()
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
	case ctypeBinary:
		n := int(r.readUvarint())
		v := append([]byte(nil), r.data[r.pos:r.pos+n]...)
		r.pos += n
		return v
	case ctypeStruct:
		return r.readStruct()
	case ctypeList:
		header := r.readByte()
		size := int(header >> 4)
		elemType := header & 0x0f
		if size == 15 {
			size = int(r.readUvarint())
		}
		out := make([]interface{}, size)
		for i := 0; i < size; i++ {
			out[i] = r.readBareValue(elemType)
		}
		return out
	default:
		panic("thriftReader: unsupported type code")
	}
}

// readBareValue reads one unheadered list element (no field-header
// byte precedes it, unlike struct fields).
func (r *thriftReader) readBareValue(typeCode byte) interface{} {
	switch typeCode {
	case ctypeI32:
		return unzigzag32(uint32(r.readUvarint()))
	case ctypeBinary:
		n := int(r.readUvarint())
		v := append([]byte(nil), r.data[r.pos:r.pos+n]...)
		r.pos += n
		return v
	case ctypeStruct:
		return r.readStruct()
	default:
		panic("thriftReader: unsupported bare list element type")
	}
}

func TestThriftReaderDecodesWriterOutput(t *testing.T) {
	schema := []ColumnDef{{Name: "id", PhysicalType: Int64, Repetition: Required}}
	var footer bytes.Buffer
	writeFileMetaData(&footer, schema, 3, nil, "parquetflow-test", Uncompressed)

	r := newThriftReader(footer.Bytes())
	fields := r.readStruct()
	require.Equal(t, int32(2), fields[1])
	require.Equal(t, int64(3), fields[3])
	require.Equal(t, []byte("parquetflow-test"), fields[6])

	schemaList, ok := fields[2].([]interface{})
	require.True(t, ok)
	require.Len(t, schemaList, 2) // root + 1 column
}
