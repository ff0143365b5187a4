// Command parquetflowc builds the cgo shared/static library half of the
// foreign-callable façade (spec.md §6). Every exported function here is
// a thin marshaling shim: it converts C types to Go values, delegates
// to the pure-Go logic in package abi, and converts the result back.
// Building this package with `go build -buildmode=c-shared` (or
// `c-archive`) produces the library a non-Go caller links against;
// cgo's `//export` directive only takes effect inside package main,
// which is why this logic can't live in the importable abi package
// itself.
package main

/*
#include <stdint.h>

typedef struct pf_column_input {
    const void *values;
    uint64_t values_len;
    const uint32_t *offsets;
    uint64_t offsets_len;
} pf_column_input_t;

typedef struct pf_column_input_with_levels {
    const void *values;
    uint64_t values_len;
    const uint32_t *offsets;
    uint64_t offsets_len;
    const uint8_t *definition_levels;
    uint64_t definition_levels_len;
    const uint8_t *repetition_levels;
    uint64_t repetition_levels_len;
} pf_column_input_with_levels_t;

typedef struct pf_stream_column {
    const char *name;
    int32_t physical_type_code;
    int32_t repetition_code;
    uint32_t type_length;
    uint32_t width;
} pf_stream_column_t;
*/
import "C"

import (
	"time"
	"unsafe"

	"parquetflow/abi"
	"parquetflow/parquet"
	"parquetflow/sink"
)

var writers = abi.NewWriters()
var streams = abi.NewStreams()

//export pf_writer_create
func pf_writer_create(outputPath *C.char, compressionCode C.int32_t) C.uint64_t {
	if outputPath == nil {
		return 0
	}
	return C.uint64_t(writers.Create(C.GoString(outputPath), parquet.Compression(compressionCode)))
}

//export pf_writer_add_column
func pf_writer_add_column(handle C.uint64_t, name *C.char, physicalTypeCode, repetitionCode C.int32_t, typeLength C.uint32_t) C.int32_t {
	if name == nil {
		return C.int32_t(abi.StatusInvalidArgument)
	}
	col := parquet.ColumnDef{
		Name:         C.GoString(name),
		PhysicalType: parquet.PhysicalType(physicalTypeCode),
		Repetition:   parquet.Repetition(repetitionCode),
		TypeLength:   int32(typeLength),
	}
	return C.int32_t(writers.AddColumn(uint64(handle), col))
}

//export pf_writer_open
func pf_writer_open(handle C.uint64_t) C.int32_t {
	return C.int32_t(writers.Open(uint64(handle)))
}

//export pf_writer_write_row_group
func pf_writer_write_row_group(handle C.uint64_t, rowCount C.uint64_t, columnInputs *C.pf_column_input_t, columnCount C.uint32_t) C.int32_t {
	columns, status := decodeColumnInputs(uint64(handle), columnInputs, uint32(columnCount))
	if status != abi.StatusOK {
		return C.int32_t(status)
	}
	return C.int32_t(writers.WriteRowGroup(uint64(handle), int64(rowCount), columns, nil))
}

//export pf_writer_write_row_group_with_levels
func pf_writer_write_row_group_with_levels(handle C.uint64_t, rowCount C.uint64_t, columnInputs *C.pf_column_input_with_levels_t, columnCount C.uint32_t) C.int32_t {
	columns, levels, status := decodeColumnInputsWithLevels(uint64(handle), columnInputs, uint32(columnCount))
	if status != abi.StatusOK {
		return C.int32_t(status)
	}
	return C.int32_t(writers.WriteRowGroup(uint64(handle), int64(rowCount), columns, levels))
}

//export pf_writer_close
func pf_writer_close(handle C.uint64_t) C.int32_t {
	return C.int32_t(writers.Close(uint64(handle)))
}

//export pf_writer_destroy
func pf_writer_destroy(handle C.uint64_t) {
	writers.Destroy(uint64(handle))
}

//export pf_writer_last_error
func pf_writer_last_error(handle C.uint64_t) *C.char {
	return C.CString(writers.LastError(uint64(handle)))
}

//export pf_stream_create
func pf_stream_create(
	outputPath *C.char,
	compressionCode C.int32_t,
	columns *C.pf_stream_column_t,
	columnCount C.uint32_t,
	ringCapacity, maxPayloadBytes, rowGroupRows, drainBatch C.int32_t,
	idleTimeoutMs C.int32_t,
) C.uint64_t {
	if outputPath == nil || columns == nil || columnCount == 0 {
		return 0
	}

	raw := unsafe.Slice(columns, columnCount)
	schema := make([]parquet.ColumnDef, columnCount)
	widths := make([]int, columnCount)
	for i, c := range raw {
		if c.name == nil {
			return 0
		}
		schema[i] = parquet.ColumnDef{
			Name:         C.GoString(c.name),
			PhysicalType: parquet.PhysicalType(c.physical_type_code),
			Repetition:   parquet.Repetition(c.repetition_code),
			TypeLength:   int32(c.type_length),
		}
		widths[i] = int(c.width)
	}

	cfg := sink.Config{
		RingCapacity:    int(ringCapacity),
		MaxPayloadBytes: int(maxPayloadBytes),
		RowGroupRows:    int(rowGroupRows),
		DrainBatch:      int(drainBatch),
		IdleTimeout:     time.Duration(idleTimeoutMs) * time.Millisecond,
	}

	handle, status := streams.Create(C.GoString(outputPath), schema, widths, parquet.Compression(compressionCode), cfg)
	if status != abi.StatusOK {
		return 0
	}
	return C.uint64_t(handle)
}

//export pf_stream_push
func pf_stream_push(handle C.uint64_t, data unsafe.Pointer, length C.uint64_t) C.int32_t {
	if data == nil || length == 0 {
		return C.int32_t(abi.StatusInvalidArgument)
	}
	payload := C.GoBytes(data, C.int(length))
	if streams.Push(uint64(handle), payload) {
		return C.int32_t(abi.StatusOK)
	}
	return C.int32_t(abi.StatusInternal)
}

//export pf_stream_stop
func pf_stream_stop(handle C.uint64_t) C.int32_t {
	return C.int32_t(streams.Stop(uint64(handle)))
}

//export pf_stream_destroy
func pf_stream_destroy(handle C.uint64_t) {
	streams.Destroy(uint64(handle))
}

//export pf_stream_files_written
func pf_stream_files_written(handle C.uint64_t) C.uint64_t {
	return C.uint64_t(streams.FilesWritten(uint64(handle)))
}

//export pf_stream_entries_written
func pf_stream_entries_written(handle C.uint64_t) C.uint64_t {
	return C.uint64_t(streams.EntriesWritten(uint64(handle)))
}

// decodeColumnInputs reinterprets each pf_column_input_t's raw `values`
// pointer as the Go slice type its schema column demands. This is the
// one place in the module that reaches past Go's type system, since
// the ABI boundary hands over untyped memory by design (spec.md §6).
func decodeColumnInputs(handle uint64, inputs *C.pf_column_input_t, count uint32) ([]parquet.ColumnData, abi.Status) {
	schema := writers.Schema(handle)
	if int(count) != len(schema) {
		return nil, abi.StatusInvalidArgument
	}
	raw := unsafe.Slice(inputs, count)
	columns := make([]parquet.ColumnData, count)
	for i, col := range schema {
		data, status := columnDataFromRaw(col, raw[i].values, uint64(raw[i].values_len), raw[i].offsets, uint64(raw[i].offsets_len))
		if status != abi.StatusOK {
			return nil, status
		}
		columns[i] = data
	}
	return columns, abi.StatusOK
}

func decodeColumnInputsWithLevels(handle uint64, inputs *C.pf_column_input_with_levels_t, count uint32) ([]parquet.ColumnData, []parquet.ColumnLevels, abi.Status) {
	schema := writers.Schema(handle)
	if int(count) != len(schema) {
		return nil, nil, abi.StatusInvalidArgument
	}
	raw := unsafe.Slice(inputs, count)
	columns := make([]parquet.ColumnData, count)
	levels := make([]parquet.ColumnLevels, count)
	for i, col := range schema {
		data, status := columnDataFromRaw(col, raw[i].values, uint64(raw[i].values_len), raw[i].offsets, uint64(raw[i].offsets_len))
		if status != abi.StatusOK {
			return nil, nil, status
		}
		columns[i] = data
		if raw[i].definition_levels != nil {
			levels[i].DefinitionLevels = C.GoBytes(unsafe.Pointer(raw[i].definition_levels), C.int(raw[i].definition_levels_len))
		}
		if raw[i].repetition_levels != nil {
			levels[i].RepetitionLevels = C.GoBytes(unsafe.Pointer(raw[i].repetition_levels), C.int(raw[i].repetition_levels_len))
		}
	}
	return columns, levels, abi.StatusOK
}

func columnDataFromRaw(col parquet.ColumnDef, values unsafe.Pointer, valuesLen uint64, offsets *C.uint32_t, offsetsLen uint64) (parquet.ColumnData, abi.Status) {
	data := parquet.ColumnData{Type: col.PhysicalType}
	switch col.PhysicalType {
	case parquet.Boolean:
		bytesVal := C.GoBytes(values, C.int(valuesLen))
		bools := make([]bool, len(bytesVal))
		for i, b := range bytesVal {
			bools[i] = b != 0
		}
		data.BoolValues = bools
		data.ValueCount = len(bools)
	case parquet.Int32:
		n := valuesLen / 4
		data.Int32Values = append([]int32(nil), unsafe.Slice((*int32)(values), n)...)
		data.ValueCount = int(n)
	case parquet.Int64:
		n := valuesLen / 8
		data.Int64Values = append([]int64(nil), unsafe.Slice((*int64)(values), n)...)
		data.ValueCount = int(n)
	case parquet.Float:
		n := valuesLen / 4
		data.FloatValues = append([]float32(nil), unsafe.Slice((*float32)(values), n)...)
		data.ValueCount = int(n)
	case parquet.Double:
		n := valuesLen / 8
		data.DoubleValues = append([]float64(nil), unsafe.Slice((*float64)(values), n)...)
		data.ValueCount = int(n)
	case parquet.Int96:
		data.Int96Values = C.GoBytes(values, C.int(valuesLen))
		data.ValueCount = int(valuesLen / 12)
	case parquet.FixedLenByteArray:
		data.FixedBytes = C.GoBytes(values, C.int(valuesLen))
		if col.TypeLength > 0 {
			data.ValueCount = int(valuesLen) / int(col.TypeLength)
		}
	case parquet.ByteArray:
		if offsets == nil {
			return data, abi.StatusInvalidArgument
		}
		data.ByteArrayValues = C.GoBytes(values, C.int(valuesLen))
		offsetSlice := unsafe.Slice(offsets, offsetsLen)
		goOffsets := make([]uint32, offsetsLen)
		for i, o := range offsetSlice {
			goOffsets[i] = uint32(o)
		}
		data.ByteArrayOffsets = goOffsets
		if offsetsLen > 0 {
			data.ValueCount = int(offsetsLen) - 1
		}
	default:
		return data, abi.StatusInvalidArgument
	}
	return data, abi.StatusOK
}

func main() {}
