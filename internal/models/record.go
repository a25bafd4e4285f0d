package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

// Reserved field names of a region result record. Every other field is a tally.
const (
	FieldPSU            = "psu"
	FieldProgress       = "progres"
	FieldStatusProgress = "status_progress"
)

// Value is a raw JSON value of a record field.
type Value struct {
	raw     string
	num     float64
	numeric bool
}

// Number builds a numeric field value.
func Number(v float64) Value {
	return Value{raw: strconv.FormatFloat(v, 'f', -1, 64), num: v, numeric: true}
}

// Text builds a string field value.
func Text(s string) Value {
	b, _ := json.Marshal(s)
	return Value{raw: string(b)}
}

// RawValue wraps an arbitrary JSON literal. Invalid JSON is stored as null.
func RawValue(raw string) Value {
	if !gjson.Valid(raw) {
		return Value{raw: "null"}
	}
	return valueOf(gjson.Parse(raw))
}

func valueOf(r gjson.Result) Value {
	v := Value{raw: r.Raw}
	if r.Type == gjson.Number {
		v.num = r.Num
		v.numeric = true
	}
	if v.raw == "" {
		v.raw = "null"
	}
	return v
}

// Float returns the numeric value and whether the raw value is a JSON number.
func (v Value) Float() (float64, bool) {
	return v.num, v.numeric
}

// Raw returns the JSON literal.
func (v Value) Raw() string {
	if v.raw == "" {
		return "null"
	}
	return v.raw
}

// Field is one key of a region result record.
type Field struct {
	Key   string
	Value Value
}

// RegionResult is the tally record of one region. Fields keep the enumeration
// order used by the upstream dashboard: integer keys ascending, then the rest in
// document order.
type RegionResult struct {
	PSU            string
	Progress       Progress
	StatusProgress bool

	fields []Field
}

// NewRegionResult builds a record from fields, applying enumeration order.
func NewRegionResult(fields ...Field) RegionResult {
	keys := make([]string, 0, len(fields))
	values := make(map[string]Value, len(fields))
	for _, f := range fields {
		if _, dup := values[f.Key]; !dup {
			keys = append(keys, f.Key)
		}
		values[f.Key] = f.Value
	}

	var r RegionResult
	for _, k := range enumerationOrder(keys) {
		r.fields = append(r.fields, Field{Key: k, Value: values[k]})
	}
	r.deriveReserved()
	return r
}

// Fields returns every field, reserved ones included, in enumeration order.
func (r RegionResult) Fields() []Field {
	return r.fields
}

// Get returns a single field value.
func (r RegionResult) Get(key string) (Value, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

func (r *RegionResult) deriveReserved() {
	r.PSU, r.Progress, r.StatusProgress = "", Progress{}, false
	for _, f := range r.fields {
		switch f.Key {
		case FieldPSU:
			r.PSU = gjson.Parse(f.Value.Raw()).String()
		case FieldProgress:
			var p Progress
			if err := json.Unmarshal([]byte(f.Value.Raw()), &p); err == nil {
				r.Progress = p
			}
		case FieldStatusProgress:
			r.StatusProgress = gjson.Parse(f.Value.Raw()).Bool()
		}
	}
}

// UnmarshalJSON decodes the record while keeping field order.
func (r *RegionResult) UnmarshalJSON(data []byte) error {
	keys, values, err := objectMembers(data)
	if err != nil {
		return fmt.Errorf("decode region result: %w", err)
	}

	r.fields = make([]Field, 0, len(keys))
	for _, k := range keys {
		r.fields = append(r.fields, Field{Key: k, Value: valueOf(values[k])})
	}
	r.deriveReserved()
	return nil
}

// MarshalJSON writes the fields back in enumeration order.
func (r RegionResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(f.Value.Raw())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Table maps region codes to their records in enumeration order.
type Table struct {
	codes []string
	rows  map[string]RegionResult
}

// NewTable builds a table from rows. Non-integer codes are ordered lexically
// since map order carries no document order.
func NewTable(rows map[string]RegionResult) Table {
	codes := make([]string, 0, len(rows))
	for code := range rows {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	t := Table{codes: enumerationOrder(codes), rows: make(map[string]RegionResult, len(rows))}
	for code, row := range rows {
		t.rows[code] = row
	}
	return t
}

// Codes returns region codes in enumeration order.
func (t Table) Codes() []string {
	return t.codes
}

// Get returns the record of one region.
func (t Table) Get(code string) (RegionResult, bool) {
	row, ok := t.rows[code]
	return row, ok
}

// Len reports the number of regions.
func (t Table) Len() int {
	return len(t.codes)
}

// UnmarshalJSON decodes the table while keeping region order.
func (t *Table) UnmarshalJSON(data []byte) error {
	keys, values, err := objectMembers(data)
	if err != nil {
		return fmt.Errorf("decode table: %w", err)
	}

	t.codes = keys
	t.rows = make(map[string]RegionResult, len(keys))
	for _, code := range keys {
		raw := values[code]
		if !raw.IsObject() {
			return fmt.Errorf("decode table: row %s is not an object", code)
		}
		var row RegionResult
		if err := row.UnmarshalJSON([]byte(raw.Raw)); err != nil {
			return fmt.Errorf("decode table row %s: %w", code, err)
		}
		t.rows[code] = row
	}
	return nil
}

// MarshalJSON writes rows in enumeration order.
func (t Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, code := range t.codes {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(code)
		if err != nil {
			return nil, err
		}
		row, err := t.rows[code].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(row)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var errNotObject = errors.New("expected JSON object")

// objectMembers returns the keys of a JSON object in enumeration order together
// with their values. Duplicate keys keep their first position and last value.
func objectMembers(data []byte) ([]string, map[string]gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, errors.New("invalid JSON")
	}

	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		return nil, map[string]gjson.Result{}, nil
	}
	if !res.IsObject() {
		return nil, nil, errNotObject
	}

	var keys []string
	values := make(map[string]gjson.Result)
	res.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = v
		return true
	})

	return enumerationOrder(keys), values, nil
}

// enumerationOrder moves array-index keys to the front in ascending numeric
// order and leaves the remaining keys in their given order.
func enumerationOrder(keys []string) []string {
	out := make([]string, 0, len(keys))
	type indexed struct {
		key string
		n   uint64
	}
	var ints []indexed
	var rest []string
	for _, k := range keys {
		if n, ok := arrayIndex(k); ok {
			ints = append(ints, indexed{key: k, n: n})
			continue
		}
		rest = append(rest, k)
	}

	sort.SliceStable(ints, func(i, j int) bool { return ints[i].n < ints[j].n })
	for _, ik := range ints {
		out = append(out, ik.key)
	}
	return append(out, rest...)
}

// arrayIndex reports whether k is a canonical integer below 2^32-1.
func arrayIndex(k string) (uint64, bool) {
	if k == "" || (len(k) > 1 && k[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(k); i++ {
		if k[i] < '0' || k[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(k, 10, 64)
	if err != nil || n >= 1<<32-1 {
		return 0, false
	}
	return n, true
}
