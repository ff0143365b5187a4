// Command parquetflow-demo drives the sink pipeline end to end: it
// opens a Parquet file, starts the log sink worker, and feeds it
// synthetic fixed-size records from a simulated hot producer thread
// until an interrupt or termination signal arrives.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"parquetflow/internal/config"
	"parquetflow/internal/telemetry"
	"parquetflow/parquet"
	"parquetflow/sink"
)

var (
	configFile  = flag.String("config", getEnv("CONFIG_FILE", "config/local.yaml"), "Path to configuration file")
	logLevel    = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	metricsPort = flag.String("metrics-port", getEnv("METRICS_PORT", "9090"), "Prometheus metrics port")
)

func main() {
	flag.Parse()

	logger, err := telemetry.NewLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("configFile", *configFile),
		zap.String("output", cfg.Output.Path),
		zap.Int("columns", len(cfg.Schema)),
	)

	metrics := telemetry.NewCollector()
	go startMetricsServer(*metricsPort, logger)

	schema, widths, err := config.BuildSchema(cfg.Schema)
	if err != nil {
		logger.Fatal("failed to build schema", zap.Error(err))
	}
	compression, err := config.ParseCompression(cfg.Output.Compression)
	if err != nil {
		logger.Fatal("failed to parse compression", zap.Error(err))
	}

	layout, err := sink.NewLayout(schema, widths)
	if err != nil {
		logger.Fatal("failed to build record layout", zap.Error(err))
	}

	out, err := os.Create(cfg.Output.Path)
	if err != nil {
		logger.Fatal("failed to create output file", zap.Error(err))
	}

	writer, werr := parquet.Open(out, schema, compression, parquet.WithCreatedBy(cfg.Output.CreatedBy))
	if werr != nil {
		logger.Fatal("failed to open parquet writer", zap.Error(werr))
	}

	workerCfg := sink.Config{
		RingCapacity:    cfg.Sink.RingCapacity,
		MaxPayloadBytes: cfg.Sink.MaxPayloadBytes,
		RowGroupRows:    cfg.Sink.RowGroupRows,
		DrainBatch:      cfg.Sink.DrainBatch,
		IdleTimeout:     time.Duration(cfg.Sink.IdleTimeoutMs) * time.Millisecond,
	}
	worker := sink.NewWorker(workerCfg, layout, writer, logger, metrics)
	worker.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	stop := make(chan struct{})
	go produceRecords(stop, worker, layout, logger)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	close(stop)

	if err := worker.Shutdown(); err != nil {
		logger.Error("sink shutdown reported an error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete",
		zap.Int64("totalRows", writer.TotalRows()),
		zap.Uint64("dropped", worker.DroppedCount()),
	)
}

// produceRecords simulates the hot producer thread the spec describes:
// it never blocks on try_record, and simply moves on (counted as a
// drop by the worker) when the ring is full.
func produceRecords(stop <-chan struct{}, worker *sink.Worker, layout *sink.Layout, logger *zap.Logger) {
	rng := rand.New(rand.NewSource(1))
	record := make([]byte, layout.RecordSize)

	ticker := time.NewTicker(time.Microsecond * 200)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			fillSyntheticRecord(record, layout, rng)
			if !worker.TryRecord(record) {
				logger.Debug("record dropped")
			}
		}
	}
}

// fillSyntheticRecord writes pseudo-random bytes into the fixed-size
// record buffer. Column values are not semantically meaningful — it
// exists only to exercise the pipeline end to end — but BYTE_ARRAY
// slots still need a valid length prefix (at most the slot's payload
// capacity), since the accumulator trusts that framing on its hot path
// the same way the rest of the record shape is trusted.
func fillSyntheticRecord(record []byte, layout *sink.Layout, rng *rand.Rand) {
	for i := 0; i < layout.NullBitmapBytes; i++ {
		record[i] = 0xFF // every optional column present, keeping output simple to inspect
	}

	for i, col := range layout.Schema {
		field := layout.Fields[i]
		slot := record[field.Offset : field.Offset+field.Width]
		if col.PhysicalType == parquet.ByteArray {
			capacity := field.Width - 4
			length := rng.Intn(capacity + 1)
			binary.LittleEndian.PutUint32(slot[:4], uint32(length))
			for j := 4; j < 4+length; j++ {
				slot[j] = byte(rng.Intn(256))
			}
			for j := 4 + length; j < len(slot); j++ {
				slot[j] = 0
			}
			continue
		}
		for j := range slot {
			slot[j] = byte(rng.Intn(256))
		}
	}
}

func startMetricsServer(port string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := ":" + port
	logger.Info("starting metrics server", zap.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("metrics server failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
