package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
)

// ParquetFileName is the download name of a Parquet export.
func ParquetFileName(uploadID string) string {
	if uploadID == "" {
		uploadID = "local"
	}
	return fmt.Sprintf("filtered-data-%s.parquet", uploadID)
}

// ParquetSchema maps headers to nullable UTF-8 fields. Empty labels become
// "column_N" and repeated labels get a numeric suffix.
func ParquetSchema(headers []string) *arrow.Schema {
	used := make(map[string]bool, len(headers))
	fields := make([]arrow.Field, len(headers))
	for i, h := range headers {
		name := h
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if used[name] {
			for n := 2; ; n++ {
				candidate := name + "_" + strconv.Itoa(n)
				if !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteParquet writes headers and rows as a snappy-compressed Parquet file.
// Empty cells are stored as nulls.
func WriteParquet(w io.Writer, headers []string, rows []analysis.Row) error {
	schema := ParquetSchema(headers)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for _, row := range rows {
		for i := range headers {
			sb := b.Field(i).(*array.StringBuilder)
			c := row.At(i)
			if c.IsEmpty() {
				sb.AppendNull()
				continue
			}
			sb.Append(c.String())
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	writer, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
