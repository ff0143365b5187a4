package parquet

// PhysicalType is the closed set of Parquet physical value encodings
// this writer supports. The integer values match the Parquet Thrift
// spec exactly; they are written verbatim into SchemaElement.type.
type PhysicalType int32

const (
	Boolean           PhysicalType = 0
	Int32             PhysicalType = 1
	Int64             PhysicalType = 2
	Int96             PhysicalType = 3
	Float             PhysicalType = 4
	Double            PhysicalType = 5
	ByteArray         PhysicalType = 6
	FixedLenByteArray PhysicalType = 7
)

func (t PhysicalType) String() string {
	switch t {
	case Boolean:
		return "BOOLEAN"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Int96:
		return "INT96"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case ByteArray:
		return "BYTE_ARRAY"
	case FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

// Repetition is the column repetition type.
type Repetition int32

const (
	Required Repetition = 0
	Optional Repetition = 1
	Repeated Repetition = 2
)

func (r Repetition) String() string {
	switch r {
	case Required:
		return "REQUIRED"
	case Optional:
		return "OPTIONAL"
	case Repeated:
		return "REPEATED"
	default:
		return "UNKNOWN"
	}
}

// MaxDefinitionLevel returns the maximum definition level this module
// supports for the repetition type: 0 for REQUIRED, 1 otherwise. Nested
// groups (max level > 1) are out of scope (spec.md §9, Open Question).
func (r Repetition) MaxDefinitionLevel() int {
	if r == Required {
		return 0
	}
	return 1
}

// MaxRepetitionLevel is 1 for REPEATED columns, 0 otherwise.
func (r Repetition) MaxRepetitionLevel() int {
	if r == Repeated {
		return 1
	}
	return 0
}

// Compression identifies the page compression codec. Codes match the
// Parquet spec's CompressionCodec enum.
type Compression int32

const (
	Uncompressed Compression = 0
	Snappy       Compression = 1
	Gzip         Compression = 2
	Zstd         Compression = 6
)

func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "UNCOMPRESSED"
	case Snappy:
		return "SNAPPY"
	case Gzip:
		return "GZIP"
	case Zstd:
		return "ZSTD"
	default:
		return "UNKNOWN"
	}
}

// LogicalAnnotation optionally carries a Parquet converted_type code for
// a column (e.g. UTF8, DECIMAL). It is opaque to the encoder beyond being
// copied into the SchemaElement.
type LogicalAnnotation struct {
	ConvertedType int32
	HasConverted  bool
}

// ColumnDef describes one leaf column of the file's fixed schema.
type ColumnDef struct {
	Name         string
	PhysicalType PhysicalType
	Repetition   Repetition
	// TypeLength is required (>0) when PhysicalType == FixedLenByteArray,
	// ignored otherwise.
	TypeLength int32
	Logical    *LogicalAnnotation
}

func (c ColumnDef) validate() *Error {
	if c.Name == "" {
		return newErr(KindInvalidColumnName, "column name must be non-empty")
	}
	if c.PhysicalType == FixedLenByteArray && c.TypeLength <= 0 {
		return newErr(KindInvalidFixedTypeLength, "column %q: FIXED_LEN_BYTE_ARRAY requires type_length > 0, got %d", c.Name, c.TypeLength)
	}
	return nil
}

// ColumnLevels carries the optional definition/repetition level streams
// for a single column's worth of data in one row group (spec.md §3).
type ColumnLevels struct {
	DefinitionLevels []byte
	RepetitionLevels []byte
}

// ColumnData is the tagged union of value buffers, one variant per
// PhysicalType (spec.md §3). Exactly one field is populated per
// PhysicalType below; ValueCount reports how many values that field
// holds (equal to the number of present/defined entries, not the row
// count).
type ColumnData struct {
	Type PhysicalType

	BoolValues   []bool
	Int32Values  []int32
	Int64Values  []int64
	FloatValues  []float32
	DoubleValues []float64

	// Int96Values holds 12 raw bytes per value, concatenated.
	Int96Values []byte

	// ByteArrayValues/ByteArrayOffsets form the (bytes, offsets) pair
	// for BYTE_ARRAY: offsets has len == value_count+1, starts at 0, is
	// non-decreasing, and ends at len(bytes).
	ByteArrayValues  []byte
	ByteArrayOffsets []uint32

	// FixedBytes holds value_count*type_length bytes for
	// FIXED_LEN_BYTE_ARRAY.
	FixedBytes []byte

	ValueCount int
}

// ColumnChunkMeta records where one column chunk landed in the output
// stream once it has been written.
type ColumnChunkMeta struct {
	ColumnIndex           int
	DataPageOffset        int64
	TotalCompressedSize   int64
	TotalUncompressedSize int64
	NumValues             int64
}

// RowGroupMeta records the column chunks and size/row accounting for one
// completed row group.
type RowGroupMeta struct {
	Chunks        []ColumnChunkMeta
	TotalByteSize int64
	NumRows       int64
}
