package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
)

// Read reads Parquet data and returns a DataFrame.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	// Parquet needs random access, so the input is buffered
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return r.arrowTableToDataFrame(table)
}

// arrowTableToDataFrame converts an Arrow table to a DataFrame, joining
// chunked columns into single arrays.
func (r *ParquetReader) arrowTableToDataFrame(table arrow.Table) (*dataframe.DataFrame, error) {
	schema := table.Schema()
	names := make([]string, 0, table.NumCols())
	arrays := make([]arrow.Array, 0, table.NumCols())
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()

	for i := 0; i < int(table.NumCols()); i++ {
		field := schema.Field(i)
		arr, err := r.columnArray(field, table.Column(i).Data())
		if err != nil {
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}
		names = append(names, field.Name)
		arrays = append(arrays, arr)
	}

	return dataframe.NewFromArrays(names, arrays), nil
}

// columnArray returns one array holding every chunk of a column, converted
// to a type the engine supports.
func (r *ParquetReader) columnArray(field arrow.Field, chunked *arrow.Chunked) (arrow.Array, error) {
	var arr arrow.Array
	switch len(chunked.Chunks()) {
	case 0:
		b, err := series.NewColumnBuilder(field.Name, field.Type, r.mem)
		if err != nil {
			return nil, err
		}
		defer b.Release()
		return b.NewArray(), nil
	case 1:
		arr = chunked.Chunk(0)
		arr.Retain()
	default:
		joined, err := array.Concatenate(chunked.Chunks(), r.mem)
		if err != nil {
			return nil, err
		}
		arr = joined
	}

	if supported(arr.DataType()) {
		return arr, nil
	}
	defer arr.Release()
	return r.rebuild(field.Name, arr)
}

func supported(dtype arrow.DataType) bool {
	b, err := series.NewColumnBuilder("", dtype, nil)
	if err != nil {
		return false
	}
	b.Release()
	return true
}

// rebuild re-encodes dictionaries with non-Int32 indices as categoricals.
func (r *ParquetReader) rebuild(name string, arr arrow.Array) (arrow.Array, error) {
	dict, ok := arr.DataType().(*arrow.DictionaryType)
	if !ok {
		return nil, dferrors.NewUnsupportedTypeError("ReadParquet", arr.DataType().String())
	}
	b, err := series.NewCategoricalBuilder(name, dict.ValueType, series.Categories(arr), r.mem)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	for i := 0; i < arr.Len(); i++ {
		if err := b.AppendFrom(arr, i); err != nil {
			return nil, err
		}
	}
	return b.NewArray(), nil
}

// Write writes the DataFrame to Parquet format. The Arrow schema is stored
// in the file so categorical and timestamp columns read back unchanged.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	if df.Width() == 0 {
		return dferrors.NewConfigurationError("WriteParquet", "", "cannot write a frame without columns")
	}

	arrays, err := df.Arrays(df.Columns()...)
	if err != nil {
		return err
	}
	fields := make([]arrow.Field, len(arrays))
	for i, name := range df.Columns() {
		fields[i] = arrow.Field{Name: name, Type: arrays[i].DataType(), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	record := array.NewRecord(schema, arrays, int64(df.Len()))
	defer record.Release()

	batchSize := w.options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.options.Compression)),
		parquet.WithBatchSize(int64(batchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}
