package parquet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateSchemaRejectsEmpty(t *testing.T) {
	err := validateSchema(nil)
	require.NotNil(t, err)
	require.Equal(t, KindInvalidSchema, err.Kind)
}

func TestValidateSchemaRejectsDuplicateNames(t *testing.T) {
	schema := []ColumnDef{
		{Name: "a", PhysicalType: Int32, Repetition: Required},
		{Name: "a", PhysicalType: Int64, Repetition: Required},
	}
	err := validateSchema(schema)
	require.NotNil(t, err)
	require.Equal(t, KindInvalidSchema, err.Kind)
}

func TestValidateSchemaRejectsBadFixedLenColumn(t *testing.T) {
	schema := []ColumnDef{
		{Name: "a", PhysicalType: FixedLenByteArray, Repetition: Required, TypeLength: 0},
	}
	err := validateSchema(schema)
	require.NotNil(t, err)
	require.Equal(t, KindInvalidFixedTypeLength, err.Kind)
}

func TestValidateSchemaAcceptsValidSchema(t *testing.T) {
	schema := []ColumnDef{
		{Name: "id", PhysicalType: Int64, Repetition: Required},
		{Name: "label", PhysicalType: ByteArray, Repetition: Optional},
	}
	require.Nil(t, validateSchema(schema))
}
