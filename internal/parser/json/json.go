// Package json loads JSON exports into a raw table. Accepted shapes are a
// top-level array of objects, newline-delimited objects, and an envelope
// object holding the records under one key. Every column comes back as Text;
// keys absent from a record and null values are missing.
package json

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Options configures the loader.
type Options struct {
	// Records names the envelope key holding the record array, e.g. "data".
	// When empty, an envelope is recognised only if it has exactly one
	// array-of-objects field.
	Records string

	TrimSpace bool

	// HeaderMap renames source keys verbatim before any normalization.
	HeaderMap map[string]string

	Logger *zap.Logger
}

const logLimit = 100

type field struct {
	key   string
	value string
	null  bool
}

// Load reads r into a table of Text columns and returns it with the number of
// skipped values (top-level scalars, non-object array elements).
func Load(ctx context.Context, r io.Reader, opt Options) (*table.Table, int, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var (
		records []json.RawMessage
		skipped int
	)
	skip := func(what string, n int) {
		if skipped < logLimit {
			log.Warn("json: skipping value", zap.String("kind", what), zap.Int("record", n))
		}
		skipped++
	}
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("decode json: %w", err)
		}
		switch firstByte(raw) {
		case '[':
			var arr []json.RawMessage
			if err := json.Unmarshal(raw, &arr); err != nil {
				return nil, skipped, fmt.Errorf("decode json array: %w", err)
			}
			records = append(records, arr...)
		case '{':
			inner, ok, err := envelope(raw, opt.Records)
			if err != nil {
				return nil, skipped, err
			}
			if ok {
				records = append(records, inner...)
			} else {
				records = append(records, raw)
			}
		default:
			skip("scalar", len(records))
		}
	}

	var (
		order []string
		index = map[string]int{}
		rows  [][]field
	)
	for i, raw := range records {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, skipped, err
			}
		}
		if firstByte(raw) != '{' {
			skip("non-object", i)
			continue
		}
		fields, err := objectFields(raw)
		if err != nil {
			return nil, skipped, fmt.Errorf("record %d: %w", i, err)
		}
		for j := range fields {
			if m, ok := opt.HeaderMap[fields[j].key]; ok {
				fields[j].key = m
			}
			if _, seen := index[fields[j].key]; !seen {
				index[fields[j].key] = len(order)
				order = append(order, fields[j].key)
			}
		}
		rows = append(rows, fields)
	}
	if len(order) == 0 {
		return nil, skipped, &errs.ShapeError{Msg: "input has no JSON records"}
	}

	cols := make([]*table.Builder, len(order))
	for i, name := range order {
		cols[i] = table.NewBuilder(name, table.Text, len(rows))
	}
	present := make([]bool, len(order))
	for _, fields := range rows {
		for i := range present {
			present[i] = false
		}
		for _, f := range fields {
			i := index[f.key]
			if present[i] {
				continue
			}
			present[i] = true
			v := f.value
			if opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if f.null || v == "" {
				cols[i].AppendNull()
				continue
			}
			cols[i].AppendString(v)
		}
		for i, ok := range present {
			if !ok {
				cols[i].AppendNull()
			}
		}
	}

	built := make([]*table.Column, len(cols))
	for i, b := range cols {
		built[i] = b.Build()
	}
	t, err := table.New(built...)
	if err != nil {
		return nil, skipped, err
	}
	return t, skipped, nil
}

func firstByte(raw json.RawMessage) byte {
	b := bytes.TrimLeft(raw, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// envelope unwraps {"key": [ {...}, ... ]}. ok is false when raw is itself a
// record.
func envelope(raw json.RawMessage, key string) ([]json.RawMessage, bool, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false, fmt.Errorf("decode json object: %w", err)
	}
	if key != "" {
		v, found := obj[key]
		if !found {
			return nil, false, &errs.MissingColumnError{Names: []string{key}}
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err != nil {
			return nil, false, &errs.ShapeError{Column: key, Msg: "records key does not hold an array"}
		}
		return arr, true, nil
	}
	var (
		found []json.RawMessage
		n     int
	)
	for _, v := range obj {
		if firstByte(v) != '[' {
			continue
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err != nil || len(arr) == 0 || firstByte(arr[0]) != '{' {
			continue
		}
		found = arr
		n++
	}
	if n == 1 {
		return found, true, nil
	}
	return nil, false, nil
}

// objectFields decodes one object keeping its key order. Scalars keep their
// literal text; nested values are kept as compact JSON.
func objectFields(raw json.RawMessage) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, cell(key, v))
	}
	return out, nil
}

func cell(key string, v json.RawMessage) field {
	switch firstByte(v) {
	case 'n':
		return field{key: key, null: true}
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return field{key: key, value: s}
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err == nil {
			return field{key: key, value: buf.String()}
		}
	}
	return field{key: key, value: string(bytes.TrimSpace(v))}
}
