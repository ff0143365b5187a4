package config

import (
	"fmt"

	"parquetflow/parquet"
)

// BuildSchema translates the configured columns into parquet.ColumnDef
// values and the per-column record slot widths the sink's accumulator
// layout needs.
func BuildSchema(columns []ColumnConfig) ([]parquet.ColumnDef, []int, error) {
	schema := make([]parquet.ColumnDef, len(columns))
	widths := make([]int, len(columns))

	for i, col := range columns {
		physical, err := parsePhysicalType(col.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		repetition, err := parseRepetition(col.Repetition)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", col.Name, err)
		}

		schema[i] = parquet.ColumnDef{
			Name:         col.Name,
			PhysicalType: physical,
			Repetition:   repetition,
			TypeLength:   col.TypeLength,
		}
		widths[i] = col.Width
	}

	return schema, widths, nil
}

func parsePhysicalType(s string) (parquet.PhysicalType, error) {
	switch s {
	case "boolean":
		return parquet.Boolean, nil
	case "int32":
		return parquet.Int32, nil
	case "int64":
		return parquet.Int64, nil
	case "int96":
		return parquet.Int96, nil
	case "float":
		return parquet.Float, nil
	case "double":
		return parquet.Double, nil
	case "byte_array":
		return parquet.ByteArray, nil
	case "fixed_len_byte_array":
		return parquet.FixedLenByteArray, nil
	default:
		return 0, fmt.Errorf("unrecognized physical type %q", s)
	}
}

func parseRepetition(s string) (parquet.Repetition, error) {
	switch s {
	case "required":
		return parquet.Required, nil
	case "optional":
		return parquet.Optional, nil
	case "repeated":
		return parquet.Repeated, nil
	default:
		return 0, fmt.Errorf("unrecognized repetition %q", s)
	}
}

// ParseCompression translates the configured compression name into a
// parquet.Compression code.
func ParseCompression(s string) (parquet.Compression, error) {
	switch s {
	case "", "uncompressed":
		return parquet.Uncompressed, nil
	case "snappy":
		return parquet.Snappy, nil
	case "gzip":
		return parquet.Gzip, nil
	case "zstd":
		return parquet.Zstd, nil
	default:
		return 0, fmt.Errorf("unrecognized compression %q", s)
	}
}
