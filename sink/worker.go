package sink

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"parquetflow/internal/telemetry"
	"parquetflow/parquet"
	"parquetflow/ring"
)

// State is the lifecycle of a Worker, per spec.md §4.9.
type State int

const (
	Created State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config bounds the worker's behavior (spec.md §4.9).
type Config struct {
	RingCapacity    int           // must be a power of two
	MaxPayloadBytes int           // try_record rejects anything larger
	RowGroupRows    int           // accumulator.row_count threshold that triggers a flush
	DrainBatch      int           // max items drained per drainer iteration
	IdleTimeout     time.Duration // partial-batch flush deadline when the ring stays empty
}

// record is one fixed-size payload copied off the ring by the drainer.
// The ring is typed over *record rather than []byte directly so TryPush
// never needs to allocate a new backing slice on the hot path: the
// worker pre-allocates a pool of records sized to RingCapacity and
// recycles them as the drainer consumes each slot.
type record struct {
	buf []byte
	n   int
}

// Worker is the log sink worker / drainer described in spec.md §4.9: it
// owns the ring, the accumulator, and the parquet.Writer, and drains in
// its own goroutine until told to stop.
type Worker struct {
	// dropped is read and written with sync/atomic only (TryRecord's
	// drop path must never take w.mu, per spec.md §4.9) and must stay
	// the struct's first field so it keeps the 64-bit alignment
	// sync/atomic requires on 32-bit platforms.
	dropped uint64

	cfg     Config
	layout  *Layout
	logger  *zap.Logger
	metrics *telemetry.Collector

	ring *ring.Ring[*record]
	pool sync.Pool

	acc    *Accumulator
	writer *parquet.Writer

	mu       sync.Mutex
	cond     *sync.Cond
	state    State
	stopping bool
	firstErr error

	done chan struct{}
}

// NewWorker constructs a Worker in the Created state. The writer must
// already be open (parquet.Open) against the layout's schema. metrics
// may be nil, in which case flush and drop counters are not recorded.
func NewWorker(cfg Config, layout *Layout, writer *parquet.Writer, logger *zap.Logger, metrics *telemetry.Collector) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		cfg:     cfg,
		layout:  layout,
		logger:  logger,
		metrics: metrics,
		ring:    ring.New[*record](cfg.RingCapacity),
		writer:  writer,
		state:   Created,
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	w.pool.New = func() any {
		return &record{buf: make([]byte, layout.RecordSize)}
	}
	return w
}

// Start allocates the accumulator and spawns the drainer goroutine,
// entering the Running state (spec.md §4.9).
func (w *Worker) Start() {
	w.mu.Lock()
	w.acc = NewAccumulator(w.layout)
	w.state = Running
	w.mu.Unlock()

	go w.drainLoop()
}

// TryRecord copies payload into a ring slot and returns true, or counts
// a drop and returns false (spec.md §4.9). It never blocks, never
// allocates on the success path (the record pool absorbs allocation),
// and never takes the worker's mutex — only the ring's lock-free path
// and the sync.Pool's internal locking are touched.
//
// A payload that isn't exactly one record wide is dropped here rather
// than handed to the accumulator: Accumulator.Append treats any size
// mismatch as fatal and latches it into firstErr, which would otherwise
// let one malformed call permanently halt all further writing (spec.md
// §7: input-shape errors must not corrupt writer state).
func (w *Worker) TryRecord(payload []byte) bool {
	if len(payload) == 0 || len(payload) > w.cfg.MaxPayloadBytes || len(payload) != w.layout.RecordSize {
		w.countDrop()
		return false
	}

	rec := w.pool.Get().(*record)
	if cap(rec.buf) < len(payload) {
		rec.buf = make([]byte, len(payload))
	}
	rec.buf = rec.buf[:len(payload)]
	copy(rec.buf, payload)
	rec.n = len(payload)

	if !w.ring.TryPush(rec) {
		w.pool.Put(rec)
		w.countDrop()
		return false
	}

	w.cond.Signal()
	return true
}

func (w *Worker) countDrop() {
	atomic.AddUint64(&w.dropped, 1)
	if w.metrics != nil {
		w.metrics.IncDropped()
	}
}

// DroppedCount returns the monotonic count of records dropped so far.
func (w *Worker) DroppedCount() uint64 {
	return atomic.LoadUint64(&w.dropped)
}

// drainLoop is the drainer: pop batches, accumulate, flush row groups,
// and react to an idle timeout or shutdown request with a final partial
// flush (spec.md §4.9).
func (w *Worker) drainLoop() {
	defer close(w.done)

	batch := make([]*record, w.cfg.DrainBatch)

	for {
		n := w.ring.Drain(batch)
		if n == 0 {
			if w.waitForWork() {
				continue
			}
			// Idle timeout or stop request with nothing pending: flush
			// any residual rows and, if stopping, exit.
			w.flushResidual()
			if w.isStopping() {
				return
			}
			continue
		}

		for i := 0; i < n; i++ {
			rec := batch[i]
			if w.firstErrSet() == nil {
				if err := w.acc.Append(rec.buf[:rec.n]); err != nil {
					w.setFirstErr(err)
				}
			}
			w.pool.Put(rec)
			batch[i] = nil

			if w.acc.RowCount() >= w.cfg.RowGroupRows {
				w.flushAccumulator()
			}
		}

		if w.isStopping() && w.ring.Len() == 0 {
			w.flushResidual()
			return
		}
	}
}

// waitForWork blocks on the condition variable until try_record or
// shutdown signals it, or the idle timeout elapses. It returns true if
// the caller should re-check the ring (more work may have arrived),
// false if the wait ended via idle timeout or a pending stop.
func (w *Worker) waitForWork() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopping {
		return false
	}
	// Re-check the predicate under w.mu, right before Wait: TryRecord
	// pushes to the ring and signals without taking this lock, so a
	// push landing between drainLoop's Drain()==0 and this point would
	// otherwise be missed until IdleTimeout fires.
	if w.ring.Len() > 0 {
		return true
	}

	woke := make(chan struct{})
	timer := time.AfterFunc(w.cfg.IdleTimeout, func() {
		w.mu.Lock()
		w.cond.Broadcast()
		w.mu.Unlock()
		close(woke)
	})
	defer timer.Stop()

	w.cond.Wait()

	select {
	case <-woke:
		return false
	default:
		return w.ring.Len() > 0 || !w.stopping
	}
}

func (w *Worker) isStopping() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopping
}

func (w *Worker) firstErrSet() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.firstErr
}

func (w *Worker) setFirstErr(err error) {
	w.mu.Lock()
	if w.firstErr == nil {
		w.firstErr = err
		w.logger.Error("sink write failed, draining to discard", zap.Error(err))
	}
	w.mu.Unlock()
}

// flushAccumulator invokes writer.WriteRowGroup with the accumulated
// columns and resets the accumulator, per spec.md §4.9's drainer loop.
// It is a no-op once a first error has been captured: the worker keeps
// draining to discard but stops calling the writer.
func (w *Worker) flushAccumulator() {
	if w.firstErrSet() != nil || w.acc.RowCount() == 0 {
		w.acc.Reset()
		return
	}
	rows := int64(w.acc.RowCount())
	before := w.writer.BytesWritten()
	start := time.Now()
	if err := w.writer.WriteRowGroup(rows, w.acc.Columns(), w.acc.Levels()); err != nil {
		w.setFirstErr(err)
	} else if w.metrics != nil {
		w.metrics.ObserveFlush(rows, w.writer.BytesWritten()-before, time.Since(start).Seconds())
	}
	w.acc.Reset()
}

// flushResidual emits a final row group for any rows accumulated since
// the last threshold flush, per spec.md §4.9's "MUST emit a final row
// group containing any residual rows" on idle timeout or shutdown.
func (w *Worker) flushResidual() {
	if w.acc.RowCount() == 0 {
		return
	}
	w.flushAccumulator()
}

// Shutdown sets the stop flag, wakes the drainer, joins it, closes the
// writer, and surfaces the first worker-side error (spec.md §4.9).
// Idempotent: a second call returns the same result without blocking.
func (w *Worker) Shutdown() error {
	w.mu.Lock()
	if w.state == Stopped {
		err := w.firstErr
		w.mu.Unlock()
		return err
	}
	w.stopping = true
	w.state = Stopping
	w.cond.Broadcast()
	w.mu.Unlock()

	<-w.done

	if err := w.writer.Close(); err != nil {
		w.setFirstErr(err)
	}

	w.mu.Lock()
	w.state = Stopped
	err := w.firstErr
	w.mu.Unlock()
	return err
}
