package parquet

import "bytes"

const (
	pageTypeDataPage = 0

	encodingPlain = 0
	encodingRLE   = 3
)

// builtPage is the fully assembled byte representation of one data page:
// the Thrift-compact page header followed by the (possibly compressed)
// body. One data page per column per row group is emitted (spec.md
// §4.4: "no cross-page pagination").
type builtPage struct {
	header               []byte
	body                 []byte
	uncompressedSize     int
	compressedSize       int
	numValues            int
}

// buildPage assembles [rep-levels][def-levels][encoded-values], runs
// the result through the row group's codec, and serializes the
// PageHeader/DataPageHeader struct described in spec.md §4.4 and §6.
//
// levelsBuf and bodyBuf are scratch buffers owned and reset by the
// caller (the column writer), per spec.md §9's "bump-pointer reset per
// row group, never per value".
func buildPage(col ColumnDef, data ColumnData, levels ColumnLevels, rows int, c *codec, scratch *pageScratch) (*builtPage, *Error) {
	scratch.reset()

	maxDef := col.Repetition.MaxDefinitionLevel()
	maxRep := col.Repetition.MaxRepetitionLevel()

	if err := validateLevels(col, levels, rows, data.ValueCount); err != nil {
		return nil, err
	}

	numValues := rows
	if col.Repetition != Required {
		numValues = len(levels.DefinitionLevels)
	}

	if maxRep > 0 {
		scratch.body.Write(encodeLevelStream(levels.RepetitionLevels, maxRep))
	}
	if maxDef > 0 {
		scratch.body.Write(encodeLevelStream(levels.DefinitionLevels, maxDef))
	}

	if err := encodeValues(scratch.body, col, data); err != nil {
		return nil, err
	}

	uncompressed := scratch.body.Bytes()
	uncompressedSize := len(uncompressed)
	if uncompressedSize > maxInt32 {
		return nil, newErr(KindPageTooLarge, "column %q: uncompressed page size %d exceeds i32 max", col.Name, uncompressedSize)
	}

	compressed, cerr := c.compress(uncompressed)
	if cerr != nil {
		return nil, cerr
	}
	compressedSize := len(compressed)
	if compressedSize > maxInt32 {
		return nil, newErr(KindPageTooLarge, "column %q: compressed page size %d exceeds i32 max", col.Name, compressedSize)
	}

	scratch.header.Reset()
	writePageHeader(scratch.header, numValues, uncompressedSize, compressedSize)

	header := make([]byte, scratch.header.Len())
	copy(header, scratch.header.Bytes())

	body := make([]byte, len(compressed))
	copy(body, compressed)

	return &builtPage{
		header:           header,
		body:             body,
		uncompressedSize: uncompressedSize,
		compressedSize:   compressedSize,
		numValues:        numValues,
	}, nil
}

const maxInt32 = 1<<31 - 1

// writePageHeader serializes the PageHeader thrift struct described in
// spec.md §4.4 / §6.
func writePageHeader(buf *bytes.Buffer, numValues, uncompressedSize, compressedSize int) {
	w := newThriftWriter(buf)
	w.writeStructBegin()
	w.writeI32Field(1, pageTypeDataPage)
	w.writeI32Field(2, int32(uncompressedSize))
	w.writeI32Field(3, int32(compressedSize))
	w.writeStructField(5)
	writeDataPageHeaderBody(buf, numValues)
	w.writeStructEnd()
}

func writeDataPageHeaderBody(buf *bytes.Buffer, numValues int) {
	w := newThriftWriter(buf)
	w.writeStructBegin()
	w.writeI32Field(1, int32(numValues))
	w.writeI32Field(2, encodingPlain)
	w.writeI32Field(3, encodingRLE)
	w.writeI32Field(4, encodingRLE)
	w.writeStructEnd()
}

// pageScratch holds the reusable buffers a column writer threads
// through every row group (spec.md §9).
type pageScratch struct {
	body   *bytes.Buffer
	header *bytes.Buffer
}

func newPageScratch() *pageScratch {
	return &pageScratch{body: new(bytes.Buffer), header: new(bytes.Buffer)}
}

func (s *pageScratch) reset() {
	s.body.Reset()
	s.header.Reset()
}

// validateLevels checks the invariants of spec.md §3 for ColumnLevels
// against the column's repetition type.
func validateLevels(col ColumnDef, levels ColumnLevels, rows int, valueCount int) *Error {
	maxDef := col.Repetition.MaxDefinitionLevel()
	maxRep := col.Repetition.MaxRepetitionLevel()

	switch col.Repetition {
	case Required:
		if len(levels.DefinitionLevels) != 0 || len(levels.RepetitionLevels) != 0 {
			return newErr(KindInvalidLevels, "column %q: REQUIRED column must not carry levels", col.Name)
		}
		if valueCount != rows {
			return newErr(KindRowCountMismatch, "column %q: REQUIRED column value_count %d must equal row count %d", col.Name, valueCount, rows)
		}
	case Optional:
		if len(levels.RepetitionLevels) != 0 {
			return newErr(KindInvalidLevels, "column %q: OPTIONAL column (max_def_level=1) must not carry a repetition-level stream", col.Name)
		}
		if len(levels.DefinitionLevels) != rows {
			return newErr(KindInvalidLevels, "column %q: definition_levels length %d must equal row count %d", col.Name, len(levels.DefinitionLevels), rows)
		}
		present := 0
		for _, lvl := range levels.DefinitionLevels {
			if lvl > byte(maxDef) {
				return newErr(KindInvalidLevels, "column %q: definition level %d exceeds max %d", col.Name, lvl, maxDef)
			}
			if lvl == byte(maxDef) {
				present++
			}
		}
		if present != valueCount {
			return newErr(KindInvalidLevels, "column %q: value_count %d does not match %d present definition levels", col.Name, valueCount, present)
		}
	case Repeated:
		if len(levels.DefinitionLevels) != len(levels.RepetitionLevels) {
			return newErr(KindInvalidLevels, "column %q: REPEATED column requires equal-length definition/repetition streams", col.Name)
		}
		if len(levels.RepetitionLevels) == 0 {
			return newErr(KindInvalidLevels, "column %q: REPEATED column requires non-empty level streams", col.Name)
		}
		if levels.RepetitionLevels[0] != 0 {
			return newErr(KindInvalidLevels, "column %q: first repetition level must be 0", col.Name)
		}
		computedRows := 0
		for i, lvl := range levels.RepetitionLevels {
			if lvl > byte(maxRep) {
				return newErr(KindInvalidLevels, "column %q: repetition level %d exceeds max %d (nested groups are out of scope)", col.Name, lvl, maxRep)
			}
			if levels.DefinitionLevels[i] > byte(maxDef) {
				return newErr(KindInvalidLevels, "column %q: definition level %d exceeds max %d", col.Name, levels.DefinitionLevels[i], maxDef)
			}
			if lvl == 0 {
				computedRows++
			}
		}
		if computedRows != rows {
			return newErr(KindInvalidLevels, "column %q: %d zero-repetition rows found, expected %d", col.Name, computedRows, rows)
		}
	}
	return nil
}
