package io

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
)

const (
	// Boolean string constants
	trueStr  = "true"
	falseStr = "false"
)

// Read reads CSV data and returns a DataFrame
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	dataRows := records
	if r.options.Header {
		headers, dataRows = records[0], records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
	}

	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		if seen[h] {
			return nil, dferrors.NewConfigurationError("ReadCSV", h, "duplicate column header")
		}
		seen[h] = true
	}

	// Transpose data to work with columns; short rows are padded with nulls
	columns := make([][]string, len(headers))
	valid := make([][]bool, len(headers))
	for i := range headers {
		columns[i] = make([]string, len(dataRows))
		valid[i] = make([]bool, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) && !r.options.isNull(row[i]) {
				columns[i][j] = row[i]
				valid[i][j] = true
			}
		}
	}

	seriesList := make([]dataframe.ISeries, 0, len(headers))
	for i, header := range headers {
		s, err := r.createSeriesFromStrings(header, columns[i], valid[i])
		if err != nil {
			for _, done := range seriesList {
				done.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// createSeriesFromStrings builds a column of the inferred type. Cells with
// valid[i] == false become nulls.
func (r *CSVReader) createSeriesFromStrings(name string, data []string, valid []bool) (dataframe.ISeries, error) {
	dtype, parse := inferDataType(data, valid)

	b, err := series.NewColumnBuilder(name, dtype, r.mem)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	for i, field := range data {
		if !valid[i] {
			b.AppendNull()
			continue
		}
		v, err := parse(field)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := b.Append(v); err != nil {
			return nil, err
		}
	}

	arr := b.NewArray()
	defer arr.Release()
	return series.Wrap(name, arr), nil
}

type parseFunc func(string) (any, error)

// inferDataType picks the most specific type every present field parses as:
// bool, then int64, then float64, then RFC 3339 timestamp, then string.
// A column of nulls only is a string column.
func inferDataType(data []string, valid []bool) (arrow.DataType, parseFunc) {
	canBeBool, canBeInt, canBeFloat, canBeTime := true, true, true, true
	hasValue := false

	for i, value := range data {
		if !valid[i] {
			continue
		}
		hasValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			canBeBool = lower == trueStr || lower == falseStr
		}
		if canBeInt {
			_, err := strconv.ParseInt(value, 10, 64)
			canBeInt = err == nil
		}
		if canBeFloat {
			_, err := strconv.ParseFloat(value, 64)
			canBeFloat = err == nil
		}
		if canBeTime {
			_, err := time.Parse(time.RFC3339Nano, value)
			canBeTime = err == nil
		}
	}

	switch {
	case !hasValue:
		return arrow.BinaryTypes.String, parseString
	case canBeBool:
		return arrow.FixedWidthTypes.Boolean, parseBool
	case canBeInt:
		return arrow.PrimitiveTypes.Int64, parseInt
	case canBeFloat:
		return arrow.PrimitiveTypes.Float64, parseFloat
	case canBeTime:
		return series.TimestampType, parseTime
	default:
		return arrow.BinaryTypes.String, parseString
	}
}

func parseString(s string) (any, error) { return s, nil }

func parseBool(s string) (any, error) { return strings.EqualFold(s, trueStr), nil }

func parseInt(s string) (any, error) { return strconv.ParseInt(s, 10, 64) }

func parseFloat(s string) (any, error) { return strconv.ParseFloat(s, 64) }

func parseTime(s string) (any, error) { return time.Parse(time.RFC3339Nano, s) }

// Write writes the DataFrame to CSV format
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	if w.options.Header {
		if err := csvWriter.Write(df.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	arrays, err := df.Arrays(df.Columns()...)
	if err != nil {
		return err
	}

	row := make([]string, len(arrays))
	for i := 0; i < df.Len(); i++ {
		for j, arr := range arrays {
			row[j] = w.formatValue(series.ValueAt(arr, i))
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// formatValue renders a cell; nil is the null string.
func (w *CSVWriter) formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return w.options.nullString()
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
