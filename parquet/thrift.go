package parquet

import "bytes"

// Thrift Compact Protocol type codes (spec.md §4.1). These mirror the
// field-type codes the teacher's decoder reads in thriftFields (see
// main/thrift_compact_decode.go, FieldType()/HasExtendedDelta()).
const (
	ctypeStop      = 0x00
	ctypeBoolTrue  = 0x01
	ctypeBoolFalse = 0x02
	ctypeByte      = 0x03
	ctypeI16       = 0x04
	ctypeI32       = 0x05
	ctypeI64       = 0x06
	ctypeDouble    = 0x07
	ctypeBinary    = 0x08
	ctypeList      = 0x09
	ctypeSet       = 0x0a
	ctypeMap       = 0x0b
	ctypeStruct    = 0x0c
)

// thriftWriter serializes Thrift Compact Protocol structs into a
// growable buffer. It is write-only: there is no corresponding decode
// path in this package, because nothing downstream of this writer ever
// reads its own output back (spec.md §4.1).
//
// The field-id stack mirrors writeStructBegin/writeStructEnd from the
// teacher's decoder in reverse: decoding pops an assumed last_id of 0
// per nested struct and restores the parent's last_id on exit; encoding
// does the same push/pop, just emitting bytes instead of consuming them.
type thriftWriter struct {
	buf      *bytes.Buffer
	lastID   int16
	idStack  []int16
}

func newThriftWriter(buf *bytes.Buffer) *thriftWriter {
	return &thriftWriter{buf: buf}
}

func (w *thriftWriter) writeByte(b byte) { w.buf.WriteByte(b) }

// writeUvarint writes an unsigned LEB128 varint (spec.md §4.1).
func (w *thriftWriter) writeUvarint(u uint64) {
	for u >= 0x80 {
		w.buf.WriteByte(byte(u) | 0x80)
		u >>= 7
	}
	w.buf.WriteByte(byte(u))
}

// zigzag64 maps a signed 64-bit value onto an unsigned one so that small
// magnitude values (positive or negative) encode as small varints.
func zigzag64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzag32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

func (w *thriftWriter) writeVarintSigned(v int64) {
	w.writeUvarint(zigzag64(v))
}

// writeStructBegin pushes the current last-written field id and resets
// it to zero for the nested struct, mirroring the teacher's decoder
// pushing/popping an implicit last_id of 0 per struct level.
func (w *thriftWriter) writeStructBegin() {
	w.idStack = append(w.idStack, w.lastID)
	w.lastID = 0
}

// writeStructEnd emits the STOP byte and restores the enclosing
// struct's last field id.
func (w *thriftWriter) writeStructEnd() {
	w.writeByte(ctypeStop)
	n := len(w.idStack)
	w.lastID = w.idStack[n-1]
	w.idStack = w.idStack[:n-1]
}

// writeFieldHeader emits a field header for fieldID with the given
// Compact Protocol type code, using short-form delta encoding when
// possible (spec.md §4.1). It fails with KindInvalidSchema-style input
// errors via panic(*Error), recovered at the call boundary in writer.go,
// keeping every encode* function a plain value-returning helper.
func (w *thriftWriter) writeFieldHeader(fieldID int16, typeCode byte) {
	delta := fieldID - w.lastID
	if delta > 0 && delta <= 15 {
		w.writeByte(byte(delta)<<4 | typeCode)
	} else {
		w.writeByte(typeCode)
		w.writeVarintSigned(int64(fieldID))
	}
	w.lastID = fieldID
}

// writeBoolField encodes a bool field entirely in its header, per
// spec.md §4.1 ("Bool as struct field").
func (w *thriftWriter) writeBoolField(fieldID int16, value bool) {
	delta := fieldID - w.lastID
	typeCode := byte(ctypeBoolFalse)
	if value {
		typeCode = ctypeBoolTrue
	}
	if delta > 0 && delta <= 15 {
		w.writeByte(byte(delta)<<4 | typeCode)
	} else {
		w.writeByte(typeCode)
		w.writeVarintSigned(int64(fieldID))
	}
	w.lastID = fieldID
}

func (w *thriftWriter) writeI32Field(fieldID int16, value int32) {
	w.writeFieldHeader(fieldID, ctypeI32)
	w.writeUvarint(uint64(zigzag32(value)))
}

func (w *thriftWriter) writeI64Field(fieldID int16, value int64) {
	w.writeFieldHeader(fieldID, ctypeI64)
	w.writeVarintSigned(value)
}

func (w *thriftWriter) writeBinaryField(fieldID int16, value []byte) {
	w.writeFieldHeader(fieldID, ctypeBinary)
	w.writeUvarint(uint64(len(value)))
	w.buf.Write(value)
}

func (w *thriftWriter) writeStructField(fieldID int16) {
	w.writeFieldHeader(fieldID, ctypeStruct)
}

// writeListFieldHeader writes the field header for a list field and the
// list header itself (element type + size), per spec.md §4.1 ("List").
func (w *thriftWriter) writeListFieldHeader(fieldID int16, elemType byte, size int) {
	w.writeFieldHeader(fieldID, ctypeList)
	w.writeListHeader(elemType, size)
}

func (w *thriftWriter) writeListHeader(elemType byte, size int) {
	if size < 15 {
		w.writeByte(byte(size)<<4 | elemType)
		return
	}
	w.writeByte(0xf0 | elemType)
	w.writeUvarint(uint64(size))
}

// writeListElementI32 writes one bare (unheadered) i32 list element.
func (w *thriftWriter) writeListElementI32(value int32) {
	w.writeUvarint(uint64(zigzag32(value)))
}

// writeListElementBinary writes one bare (unheadered) binary list
// element.
func (w *thriftWriter) writeListElementBinary(value []byte) {
	w.writeUvarint(uint64(len(value)))
	w.buf.Write(value)
}
