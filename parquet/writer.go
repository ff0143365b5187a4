package parquet

import (
	"bytes"
	"io"
)

const magic = "PAR1"

type writerState int

const (
	stateOpen writerState = iota
	stateClosed
)

// Writer drives the column-chunk/row-group/file lifecycle of spec.md
// §4.6. It owns its output sink exclusively (spec.md §5) and is not
// safe for concurrent use — in this module it is driven solely by the
// sink package's drainer goroutine.
type Writer struct {
	out         io.Writer
	schema      []ColumnDef
	compression Compression
	createdBy   string

	state     writerState
	written   int64
	chunks    []ColumnChunkMeta
	rowGroups []RowGroupMeta
	totalRows int64

	codec   *codec
	scratch *pageScratch
}

// Option configures optional Writer behavior at Open time.
type Option func(*Writer)

// WithCreatedBy overrides the created_by string written into the
// footer's FileMetaData.created_by field.
func WithCreatedBy(createdBy string) Option {
	return func(w *Writer) { w.createdBy = createdBy }
}

// Open validates schema, writes the "PAR1" magic prefix, and returns a
// Writer in the OPEN state (spec.md §4.6, operation 1).
func Open(out io.Writer, schema []ColumnDef, compression Compression, opts ...Option) (*Writer, *Error) {
	if err := validateSchema(schema); err != nil {
		return nil, err
	}

	w := &Writer{
		out:         out,
		schema:      append([]ColumnDef(nil), schema...),
		compression: compression,
		createdBy:   "parquetflow",
		scratch:     newPageScratch(),
	}
	for _, opt := range opts {
		opt(w)
	}

	c, cerr := newCodec(compression)
	if cerr != nil {
		return nil, cerr
	}
	w.codec = c

	n, err := w.out.Write([]byte(magic))
	if err != nil {
		return nil, newErr(KindIOError, "writing magic prefix: %w", err)
	}
	w.written += int64(n)
	w.state = stateOpen

	return w, nil
}

// WriteRowGroup encodes one row group from columnar data and levels and
// appends it to the output (spec.md §4.6, operation 2). rows == 0 is a
// no-op: the call never emits an empty row group.
//
// Every column's page is built into in-memory scratch before anything
// is written to the sink, so a mid-row-group encoding failure never
// leaves partial page bytes in the output file — the cleaner of the two
// designs spec.md §9 calls acceptable.
func (w *Writer) WriteRowGroup(rows int64, columns []ColumnData, levels []ColumnLevels) *Error {
	if w.state != stateOpen {
		return newErr(KindNotOpen, "writer is not open")
	}
	if rows == 0 {
		return nil
	}
	if rows < 0 || rows > maxInt32 {
		return newErr(KindTooManyRows, "row count %d exceeds i32 max", rows)
	}
	if len(columns) != len(w.schema) {
		return newErr(KindColumnCountMismatch, "expected %d columns, got %d", len(w.schema), len(columns))
	}
	if levels == nil {
		levels = make([]ColumnLevels, len(w.schema))
	}
	if len(levels) != len(w.schema) {
		return newErr(KindColumnCountMismatch, "expected %d level sets, got %d", len(w.schema), len(levels))
	}

	pages := make([]*builtPage, len(w.schema))
	for i, col := range w.schema {
		page, err := buildPage(col, columns[i], levels[i], int(rows), w.codec, w.scratch)
		if err != nil {
			return err
		}
		pages[i] = page
	}

	startChunks := len(w.chunks)
	var groupBytes int64
	for i, col := range w.schema {
		page := pages[i]
		offset := w.written

		if _, err := w.out.Write(page.header); err != nil {
			return newErr(KindIOError, "writing page header for column %q: %w", col.Name, err)
		}
		if _, err := w.out.Write(page.body); err != nil {
			return newErr(KindIOError, "writing page body for column %q: %w", col.Name, err)
		}
		chunkBytes := int64(len(page.header) + len(page.body))
		w.written += chunkBytes
		groupBytes += chunkBytes

		w.chunks = append(w.chunks, ColumnChunkMeta{
			ColumnIndex:           i,
			DataPageOffset:        offset,
			TotalCompressedSize:   chunkBytes,
			TotalUncompressedSize: int64(len(page.header) + page.uncompressedSize),
			NumValues:             int64(page.numValues),
		})
	}

	w.rowGroups = append(w.rowGroups, RowGroupMeta{
		Chunks:        append([]ColumnChunkMeta(nil), w.chunks[startChunks:]...),
		TotalByteSize: groupBytes,
		NumRows:       rows,
	})
	w.totalRows += rows

	return nil
}

// Close serializes the FileMetaData footer, appends its length prefix
// and trailing magic, and enters the CLOSED state (spec.md §4.6,
// operation 3). A second call is a no-op.
func (w *Writer) Close() *Error {
	if w.state == stateClosed {
		return nil
	}

	var footer bytes.Buffer
	writeFileMetaData(&footer, w.schema, w.totalRows, w.rowGroups, w.createdBy, w.compression)

	footerLen := footer.Len()
	if footerLen < 0 || uint64(footerLen) > 0xFFFFFFFF {
		return newErr(KindMetadataTooLarge, "footer length %d exceeds u32 max", footerLen)
	}

	if _, err := w.out.Write(footer.Bytes()); err != nil {
		return newErr(KindIOError, "writing footer: %w", err)
	}

	var lenPrefix [4]byte
	putUint32LE(lenPrefix[:], uint32(footerLen))
	if _, err := w.out.Write(lenPrefix[:]); err != nil {
		return newErr(KindIOError, "writing footer length: %w", err)
	}

	if _, err := w.out.Write([]byte(magic)); err != nil {
		return newErr(KindIOError, "writing trailing magic: %w", err)
	}

	if closer, ok := w.out.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return newErr(KindIOError, "closing sink: %w", err)
		}
	}

	w.codec.close()

	w.state = stateClosed
	return nil
}

// TotalRows returns the number of rows written so far.
func (w *Writer) TotalRows() int64 { return w.totalRows }

// BytesWritten returns the number of bytes written to the sink so far,
// including the magic prefix and any row groups flushed but excluding
// the not-yet-written footer.
func (w *Writer) BytesWritten() int64 { return w.written }

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// writeFileMetaData serializes the FileMetaData struct described in
// spec.md §6: 1=version, 2=schema list, 3=num_rows, 4=row_groups list,
// 6=created_by.
func writeFileMetaData(buf *bytes.Buffer, schema []ColumnDef, numRows int64, rowGroups []RowGroupMeta, createdBy string, compression Compression) {
	w := newThriftWriter(buf)
	w.writeStructBegin()
	w.writeI32Field(1, 2)

	w.writeListFieldHeader(2, ctypeStruct, len(schema)+1)
	writeSchema(buf, schema)

	w.writeI64Field(3, numRows)

	w.writeListFieldHeader(4, ctypeStruct, len(rowGroups))
	for _, rg := range rowGroups {
		writeRowGroup(buf, rg, schema, compression)
	}

	w.writeBinaryField(6, []byte(createdBy))
	w.writeStructEnd()
}

func writeRowGroup(buf *bytes.Buffer, rg RowGroupMeta, schema []ColumnDef, compression Compression) {
	w := newThriftWriter(buf)
	w.writeStructBegin()

	w.writeListFieldHeader(1, ctypeStruct, len(rg.Chunks))
	for _, chunk := range rg.Chunks {
		writeColumnChunk(buf, chunk, schema[chunk.ColumnIndex], compression)
	}

	w.writeI64Field(2, rg.TotalByteSize)
	w.writeI64Field(3, rg.NumRows)
	w.writeStructEnd()
}

func writeColumnChunk(buf *bytes.Buffer, chunk ColumnChunkMeta, col ColumnDef, compression Compression) {
	w := newThriftWriter(buf)
	w.writeStructBegin()
	// file_offset and data_page_offset are set to the same value for
	// single-page chunks, per spec.md §9's Open Question resolution.
	w.writeI64Field(2, chunk.DataPageOffset)
	w.writeStructField(3)
	writeColumnMetaData(buf, chunk, col, compression)
	w.writeStructEnd()
}

func writeColumnMetaData(buf *bytes.Buffer, chunk ColumnChunkMeta, col ColumnDef, compression Compression) {
	w := newThriftWriter(buf)
	w.writeStructBegin()
	w.writeI32Field(1, int32(col.PhysicalType))
	w.writeListFieldHeader(2, ctypeI32, 1)
	w.writeListElementI32(encodingPlain)
	w.writeListFieldHeader(3, ctypeBinary, 1)
	w.writeListElementBinary([]byte(col.Name))
	w.writeI32Field(4, int32(compression))
	w.writeI64Field(5, chunk.NumValues)
	w.writeI64Field(6, chunk.TotalUncompressedSize)
	w.writeI64Field(7, chunk.TotalCompressedSize)
	w.writeI64Field(9, chunk.DataPageOffset)
	w.writeStructEnd()
}
