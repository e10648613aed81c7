package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
)

// Format is a file format known by extension.
type Format string

// Supported formats.
const (
	FormatCSV       Format = "csv"
	FormatParquet   Format = "parquet"
	FormatJSON      Format = "json"
	FormatJSONLines Format = "jsonl"
)

// FormatFromPath returns the format named by the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONLines, nil
	default:
		return "", dferrors.NewConfigurationError("FormatFromPath", "",
			fmt.Sprintf("unsupported file extension %q (want .csv, .parquet, .json or .jsonl)", filepath.Ext(path)))
	}
}

// ReadFile reads the file at path with default options for its format.
func ReadFile(path string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var reader DataReader
	switch format {
	case FormatCSV:
		reader = NewCSVReader(f, DefaultCSVOptions(), mem)
	case FormatParquet:
		reader = NewParquetReader(f, DefaultParquetOptions(), mem)
	case FormatJSON:
		reader = NewJSONReader(f, DefaultJSONOptions(), mem)
	case FormatJSONLines:
		reader = NewJSONReader(f, JSONOptions{Format: JSONLines}, mem)
	}

	df, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return df, nil
}

// WriteFile writes df to path in the format named by its extension.
func WriteFile(path string, df *dataframe.DataFrame) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	var writer DataWriter
	switch format {
	case FormatCSV:
		writer = NewCSVWriter(f, DefaultCSVOptions())
	case FormatParquet:
		writer = NewParquetWriter(f, DefaultParquetOptions())
	case FormatJSON:
		writer = NewJSONWriter(f, DefaultJSONOptions())
	case FormatJSONLines:
		writer = NewJSONWriter(f, JSONOptions{Format: JSONLines})
	}

	if err := writer.Write(df); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
