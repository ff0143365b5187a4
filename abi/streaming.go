package abi

import (
	"os"
	"sync"
	"sync/atomic"

	"parquetflow/parquet"
	"parquetflow/sink"
)

// StreamHandle is the Go-side object behind the streaming-sink façade's
// opaque handle (spec.md §6: "a parallel streaming-sink façade exposes
// create/start/push/stop/destroy plus counters files_written and
// entries_written"). It wraps exactly one sink.Worker driving exactly
// one output file — file rotation is out of scope (spec.md §1).
type StreamHandle struct {
	mu sync.Mutex

	outputPath string
	layout     *sink.Layout
	cfg        sink.Config
	compress   parquet.Compression
	schema     []parquet.ColumnDef

	file    *os.File
	worker  *sink.Worker
	started bool

	entriesWritten uint64 // successful Push calls
	filesWritten   uint64 // 0 until Stop has closed the file successfully

	lastError string
}

// Streams owns every live StreamHandle, mirroring Writers' registry
// pattern so neither façade hands a real Go pointer across the ABI
// boundary.
type Streams struct {
	mu      sync.Mutex
	handles map[uint64]*StreamHandle
	nextID  uint64
}

// NewStreams constructs an empty streaming-sink handle registry.
func NewStreams() *Streams {
	return &Streams{handles: make(map[uint64]*StreamHandle)}
}

// Create builds (but does not start) a streaming sink over the given
// schema, column byte-widths, output path, compression codec, and
// worker configuration.
func (r *Streams) Create(outputPath string, schema []parquet.ColumnDef, widths []int, compression parquet.Compression, cfg sink.Config) (uint64, Status) {
	if cfg.RingCapacity <= 0 || cfg.RingCapacity&(cfg.RingCapacity-1) != 0 {
		return 0, StatusInvalidArgument
	}

	layout, err := sink.NewLayout(schema, widths)
	if err != nil {
		return 0, StatusInvalidArgument
	}

	h := &StreamHandle{
		outputPath: outputPath,
		layout:     layout,
		cfg:        cfg,
		compress:   compression,
		schema:     append([]parquet.ColumnDef(nil), schema...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.handles[id] = h
	return id, StatusOK
}

func (r *Streams) lookup(handle uint64) *StreamHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[handle]
}

func (r *Streams) drop(handle uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, handle)
}

// Start opens the output file and launches the sink.Worker's drainer
// goroutine. Calling Start twice on the same handle is a no-op.
func (r *Streams) Start(handle uint64) Status {
	h := r.lookup(handle)
	if h == nil {
		return StatusInvalidArgument
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return StatusOK
	}

	f, ferr := os.Create(h.outputPath)
	if ferr != nil {
		h.lastError = ferr.Error()
		return StatusInternal
	}

	w, err := parquet.Open(f, h.schema, h.compress)
	if err != nil {
		f.Close()
		h.lastError = err.Error()
		return StatusForKind(err.Kind)
	}

	h.file = f
	h.worker = sink.NewWorker(h.cfg, h.layout, w, nil, nil)
	h.worker.Start()
	h.started = true
	return StatusOK
}

// Push hands one fixed-size record to the worker's lock-free ring,
// per spec.md §6's "push MUST be non-blocking and return a
// boolean-style status". It never takes StreamHandle's own mutex on
// the success path, matching the no-lock guarantee the underlying
// Worker.TryRecord already provides.
func (r *Streams) Push(handle uint64, payload []byte) bool {
	h := r.lookup(handle)
	if h == nil || h.worker == nil {
		return false
	}
	ok := h.worker.TryRecord(payload)
	if ok {
		atomic.AddUint64(&h.entriesWritten, 1)
	}
	return ok
}

// Stop drains remaining records, closes the writer, and records the
// completed file. Idempotent: a second call on an already-stopped
// handle returns the cached result.
func (r *Streams) Stop(handle uint64) Status {
	h := r.lookup(handle)
	if h == nil {
		return StatusInvalidArgument
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return StatusNotOpen
	}
	if h.worker == nil {
		return StatusOK
	}

	err := h.worker.Shutdown()
	if err != nil {
		h.lastError = err.Error()
		if perr, ok := err.(*parquet.Error); ok {
			return StatusForKind(perr.Kind)
		}
		return StatusInternal
	}

	atomic.AddUint64(&h.filesWritten, 1)
	h.worker = nil
	return StatusOK
}

// Destroy releases a handle, stopping its worker first if still
// running. Safe to call on an unknown or already-destroyed handle.
func (r *Streams) Destroy(handle uint64) {
	h := r.lookup(handle)
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.worker != nil {
		h.worker.Shutdown()
		h.worker = nil
	}
	h.mu.Unlock()
	r.drop(handle)
}

// EntriesWritten returns the count of records successfully pushed.
func (r *Streams) EntriesWritten(handle uint64) uint64 {
	h := r.lookup(handle)
	if h == nil {
		return 0
	}
	return atomic.LoadUint64(&h.entriesWritten)
}

// FilesWritten returns 1 once Stop has closed the output file
// successfully, 0 before that.
func (r *Streams) FilesWritten(handle uint64) uint64 {
	h := r.lookup(handle)
	if h == nil {
		return 0
	}
	return atomic.LoadUint64(&h.filesWritten)
}

// LastError returns the most recent error string recorded for handle.
func (r *Streams) LastError(handle uint64) string {
	h := r.lookup(handle)
	if h == nil {
		return ""
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastError
}
