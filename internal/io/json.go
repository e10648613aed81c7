package io

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
)

// jsonRecords collects row objects column-wise. Columns keep the order in
// which their keys first appear.
type jsonRecords struct {
	order []string
	cells map[string][]any
	rows  int
}

func newJSONRecords() *jsonRecords {
	return &jsonRecords{cells: make(map[string][]any)}
}

// add appends one row object, read token by token so key order survives.
func (rec *jsonRecords) add(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected an object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		switch v.(type) {
		case map[string]any, []any:
			return dferrors.NewConfigurationError("ReadJSON", key, "nested values are not supported")
		}

		col, ok := rec.cells[key]
		if !ok {
			rec.order = append(rec.order, key)
			col = make([]any, rec.rows)
		}
		rec.cells[key] = append(col, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	rec.rows++
	for _, key := range rec.order {
		if len(rec.cells[key]) < rec.rows {
			rec.cells[key] = append(rec.cells[key], nil)
		}
	}
	return nil
}

// Read reads JSON data and returns a DataFrame.
func (r *JSONReader) Read() (*dataframe.DataFrame, error) {
	rec := newJSONRecords()
	var err error
	switch r.options.Format {
	case JSONArray:
		err = r.readJSONArray(rec)
	case JSONLines:
		err = r.readJSONLines(rec)
	default:
		return nil, fmt.Errorf("unsupported JSON format: %d", r.options.Format)
	}
	if err != nil {
		return nil, err
	}
	return r.recordsToDataFrame(rec)
}

func (r *JSONReader) full(rec *jsonRecords) bool {
	return r.options.MaxRecords > 0 && rec.rows >= r.options.MaxRecords
}

// readJSONArray reads JSON array format.
func (r *JSONReader) readJSONArray(rec *jsonRecords) error {
	dec := json.NewDecoder(r.reader)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading JSON array: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("reading JSON array: expected '[', got %v", tok)
	}

	for dec.More() && !r.full(rec) {
		if err := rec.add(dec); err != nil {
			return fmt.Errorf("reading JSON record %d: %w", rec.rows+1, err)
		}
	}
	return nil
}

// readJSONLines reads JSON Lines format.
func (r *JSONReader) readJSONLines(rec *jsonRecords) error {
	scanner := bufio.NewScanner(r.reader)
	lineNum := 0
	for scanner.Scan() && !r.full(rec) {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		if err := rec.add(dec); err != nil {
			return fmt.Errorf("reading JSON line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning JSON lines: %w", err)
	}
	return nil
}

// recordsToDataFrame converts JSON records to a DataFrame.
func (r *JSONReader) recordsToDataFrame(rec *jsonRecords) (*dataframe.DataFrame, error) {
	seriesList := make([]dataframe.ISeries, 0, len(rec.order))
	for _, name := range rec.order {
		s, err := r.createSeriesFromData(name, rec.cells[name])
		if err != nil {
			for _, done := range seriesList {
				done.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", name, err)
		}
		seriesList = append(seriesList, s)
	}
	return dataframe.New(seriesList...), nil
}

// createSeriesFromData builds a column from decoded JSON values. Numbers
// become Int64 when all are integral and Float64 otherwise; strings that
// all parse as RFC 3339 become timestamps. Mixed kinds are an error.
func (r *JSONReader) createSeriesFromData(name string, data []any) (dataframe.ISeries, error) {
	dtype, err := inferJSONType(name, data)
	if err != nil {
		return nil, err
	}

	b, err := series.NewColumnBuilder(name, dtype, r.mem)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	for _, v := range data {
		if err := b.Append(jsonValue(v, dtype)); err != nil {
			return nil, err
		}
	}

	arr := b.NewArray()
	defer arr.Release()
	return series.Wrap(name, arr), nil
}

func inferJSONType(name string, data []any) (arrow.DataType, error) {
	var hasBool, hasInt, hasFloat, hasString bool
	allTimes := true

	for _, v := range data {
		switch x := v.(type) {
		case nil:
		case bool:
			hasBool = true
		case json.Number:
			if _, err := x.Int64(); err == nil {
				hasInt = true
			} else {
				hasFloat = true
			}
		case string:
			hasString = true
			if _, err := time.Parse(time.RFC3339Nano, x); err != nil {
				allTimes = false
			}
		}
	}

	kinds := 0
	for _, has := range []bool{hasBool, hasInt || hasFloat, hasString} {
		if has {
			kinds++
		}
	}
	if kinds > 1 {
		return nil, dferrors.NewTypeMismatchError("ReadJSON", name, "column mixes value kinds")
	}

	switch {
	case hasBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case hasFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case hasInt:
		return arrow.PrimitiveTypes.Int64, nil
	case hasString && allTimes:
		return series.TimestampType, nil
	default:
		return arrow.BinaryTypes.String, nil
	}
}

// jsonValue converts a decoded value to what the column builder accepts.
func jsonValue(v any, dtype arrow.DataType) any {
	switch x := v.(type) {
	case json.Number:
		if dtype.ID() == arrow.INT64 {
			n, _ := x.Int64()
			return n
		}
		f, _ := x.Float64()
		return f
	case string:
		if dtype.ID() == arrow.TIMESTAMP {
			t, _ := time.Parse(time.RFC3339Nano, x)
			return t
		}
	}
	return v
}

// Write writes the DataFrame to JSON format. Keys follow column order and
// nulls are written as null.
func (w *JSONWriter) Write(df *dataframe.DataFrame) error {
	names := df.Columns()
	arrays, err := df.Arrays(names...)
	if err != nil {
		return err
	}

	keys := make([][]byte, len(names))
	for i, name := range names {
		if keys[i], err = json.Marshal(name); err != nil {
			return fmt.Errorf("marshaling column name %s: %w", name, err)
		}
	}

	bw := bufio.NewWriter(w.writer)
	if w.options.Format == JSONArray {
		bw.WriteByte('[')
	}
	for row := 0; row < df.Len(); row++ {
		if w.options.Format == JSONArray && row > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('{')
		for j, arr := range arrays {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.Write(keys[j])
			bw.WriteByte(':')
			if err := writeJSONValue(bw, series.ValueAt(arr, row)); err != nil {
				return fmt.Errorf("writing row %d column %s: %w", row, names[j], err)
			}
		}
		bw.WriteByte('}')
		if w.options.Format == JSONLines {
			bw.WriteByte('\n')
		}
	}
	if w.options.Format == JSONArray {
		bw.WriteByte(']')
	}
	return bw.Flush()
}

func writeJSONValue(bw *bufio.Writer, v any) error {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v = nil
		}
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			v = nil
		} else {
			_, err := bw.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
			return err
		}
	case time.Time:
		v = x.UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = bw.Write(data)
	return err
}
