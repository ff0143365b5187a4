package parquet

import "bytes"

// writeSchema serializes the schema tree per spec.md §4.6: one root
// SchemaElement named "schema" with num_children set, followed by one
// leaf SchemaElement per column in schema order. Field ids match the
// table in spec.md §6.
func writeSchema(buf *bytes.Buffer, schema []ColumnDef) {
	w := newThriftWriter(buf)

	w.writeStructBegin()
	w.writeBinaryField(4, []byte("schema"))
	w.writeI32Field(5, int32(len(schema)))
	w.writeStructEnd()

	for _, col := range schema {
		writeSchemaElement(buf, col)
	}
}

func writeSchemaElement(buf *bytes.Buffer, col ColumnDef) {
	w := newThriftWriter(buf)
	w.writeStructBegin()
	w.writeI32Field(1, int32(col.PhysicalType))
	if col.PhysicalType == FixedLenByteArray {
		w.writeI32Field(2, col.TypeLength)
	}
	w.writeI32Field(3, int32(col.Repetition))
	w.writeBinaryField(4, []byte(col.Name))
	if col.Logical != nil && col.Logical.HasConverted {
		w.writeI32Field(6, col.Logical.ConvertedType)
	}
	w.writeStructEnd()
}

func validateSchema(schema []ColumnDef) *Error {
	if len(schema) == 0 {
		return newErr(KindInvalidSchema, "schema must have at least one column")
	}
	seen := make(map[string]struct{}, len(schema))
	for _, col := range schema {
		if err := col.validate(); err != nil {
			return err
		}
		if _, dup := seen[col.Name]; dup {
			return newErr(KindInvalidSchema, "duplicate column name %q", col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}
