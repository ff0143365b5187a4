// Package abi implements the Go-side logic of parquetflow's
// foreign-callable façade (spec.md §6): an opaque-handle writer API
// whose shape matches the original `parquet_flow_c.h` header this
// module's external interface was distilled from. It is deliberately
// free of cgo and unsafe pointer handling — that marshaling lives in
// cmd/parquetflowc, a thin `package main` that can be built with
// `-buildmode=c-shared`/`c-archive` (cgo's `//export` directive only
// takes effect in package main). This package holds everything that
// can be unit-tested with a plain `go test`.
package abi

import (
	"fmt"
	"os"
	"sync"

	"parquetflow/parquet"
)

// Status is the closed set of ABI result codes from spec.md §6.
type Status int32

const (
	StatusOK              Status = 0
	StatusInvalidArgument Status = 1
	StatusNotOpen         Status = 2
	StatusInternal        Status = 3
	StatusOutOfMemory     Status = 4
)

// StatusForKind maps a parquet.Kind to the ABI's four-valued status
// set. Kinds with no exact counterpart fall back to StatusInternal,
// which is always a safe answer for a caller that only branches on
// OK vs not-OK plus last_error for detail.
func StatusForKind(kind parquet.Kind) Status {
	switch kind {
	case parquet.KindInvalidSchema, parquet.KindInvalidColumnName, parquet.KindInvalidFixedTypeLength,
		parquet.KindColumnCountMismatch, parquet.KindColumnTypeMismatch, parquet.KindRowCountMismatch,
		parquet.KindInvalidOffsets, parquet.KindInvalidLevels, parquet.KindTooManyRows,
		parquet.KindLengthOverflow, parquet.KindUnsupportedCompression:
		return StatusInvalidArgument
	case parquet.KindNotOpen, parquet.KindWriterClosed:
		return StatusNotOpen
	case parquet.KindOutOfMemory:
		return StatusOutOfMemory
	default:
		return StatusInternal
	}
}

// WriterHandle is the Go-side object behind an opaque pf_writer_handle_t.
// Columns accumulate in pendingSchema until Open is called, since
// parquet.Writer's schema is fixed for its whole lifetime but the ABI
// adds one column per call.
type WriterHandle struct {
	mu sync.Mutex

	outputPath  string
	compression parquet.Compression

	pendingSchema []parquet.ColumnDef
	writer        *parquet.Writer
	file          *os.File

	lastError string
}

// Writers owns every live WriterHandle, keyed by an opaque id handed
// back to the caller instead of a real Go pointer — cgo callers must
// never hold a reference the Go garbage collector can't see move.
type Writers struct {
	mu      sync.Mutex
	handles map[uint64]*WriterHandle
	nextID  uint64
}

// NewWriters constructs an empty handle registry.
func NewWriters() *Writers {
	return &Writers{handles: make(map[uint64]*WriterHandle)}
}

// Create allocates a new writer handle in the CREATED (pre-open) state.
func (r *Writers) Create(outputPath string, compression parquet.Compression) uint64 {
	h := &WriterHandle{outputPath: outputPath, compression: compression}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.handles[id] = h
	return id
}

func (r *Writers) lookup(handle uint64) *WriterHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[handle]
}

func (r *Writers) drop(handle uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, handle)
}

// AddColumn appends one column to a not-yet-opened handle's schema.
func (r *Writers) AddColumn(handle uint64, col parquet.ColumnDef) Status {
	h := r.lookup(handle)
	if h == nil {
		return StatusInvalidArgument
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writer != nil {
		h.lastError = "add_column called after open"
		return StatusNotOpen
	}
	h.pendingSchema = append(h.pendingSchema, col)
	return StatusOK
}

// Open creates the output file and opens the underlying parquet.Writer
// against the schema accumulated via AddColumn. A second call on an
// already-open handle is a no-op success, matching Close's idempotence.
func (r *Writers) Open(handle uint64) Status {
	h := r.lookup(handle)
	if h == nil {
		return StatusInvalidArgument
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writer != nil {
		return StatusOK
	}

	f, ferr := os.Create(h.outputPath)
	if ferr != nil {
		h.lastError = ferr.Error()
		return StatusInternal
	}

	w, err := parquet.Open(f, h.pendingSchema, h.compression)
	if err != nil {
		f.Close()
		h.lastError = err.Error()
		return StatusForKind(err.Kind)
	}
	h.file = f
	h.writer = w
	return StatusOK
}

// WriteRowGroup forwards to the underlying writer, translating errors
// into an ABI status and a last_error string.
func (r *Writers) WriteRowGroup(handle uint64, rows int64, columns []parquet.ColumnData, levels []parquet.ColumnLevels) Status {
	h := r.lookup(handle)
	if h == nil {
		return StatusInvalidArgument
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writer == nil {
		h.lastError = "write_row_group called before open"
		return StatusNotOpen
	}
	if err := h.writer.WriteRowGroup(rows, columns, levels); err != nil {
		h.lastError = err.Error()
		return StatusForKind(err.Kind)
	}
	h.lastError = ""
	return StatusOK
}

// Close serializes the footer and closes the output file. A second
// call on an already-closed handle is a no-op, mirroring parquet.Writer.
func (r *Writers) Close(handle uint64) Status {
	h := r.lookup(handle)
	if h == nil {
		return StatusInvalidArgument
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writer == nil {
		return StatusNotOpen
	}
	if err := h.writer.Close(); err != nil {
		h.lastError = err.Error()
		return StatusForKind(err.Kind)
	}
	return StatusOK
}

// Destroy releases a handle, closing its writer first if still open.
// Safe to call on an unknown or already-destroyed handle.
func (r *Writers) Destroy(handle uint64) {
	h := r.lookup(handle)
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.writer != nil {
		h.writer.Close()
	}
	h.mu.Unlock()
	r.drop(handle)
}

// LastError returns the most recent error string recorded for handle,
// or "" if the handle is unknown or its last call succeeded.
func (r *Writers) LastError(handle uint64) string {
	h := r.lookup(handle)
	if h == nil {
		return fmt.Sprintf("unknown handle %d", handle)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastError
}

// Schema returns the column schema accumulated via AddColumn (or fixed
// at Open time), so the cgo marshaling layer can type-check raw column
// inputs against it without needing its own copy of the schema.
func (r *Writers) Schema(handle uint64) []parquet.ColumnDef {
	h := r.lookup(handle)
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pendingSchema
}
