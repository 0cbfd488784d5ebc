package dbclient

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Column describes one result column as reported by the driver.
type Column struct {
	Name string
	// Type is the upper-case database type name, e.g. TIMESTAMPTZ. Empty
	// when the driver does not know it (SQLite expressions, Mongo fields).
	Type string
}

// Step renders v for display. ok is false when the step does not apply
// and the next step should be tried.
type Step func(col Column, v any) (s string, ok bool)

// WireType decodes one database type from its binary form. Bytes is used
// when the driver hands over exactly Width raw bytes that Text does not
// accept as the type's textual form; Time is used when the driver already
// parsed the value into a time.Time.
type WireType struct {
	Width int
	Bytes func(b []byte) string
	Time  func(t time.Time) string
	// Text reports whether b is the type's text representation, e.g.
	// "$1234.56" for MONEY. Nil means printable UTF-8 counts as text.
	Text func(b []byte) bool
}

// isBinary reports whether b should go to the Bytes decoder.
func (w WireType) isBinary(b []byte) bool {
	if w.Bytes == nil || len(b) != w.Width {
		return false
	}
	if w.Text != nil {
		return !w.Text(b)
	}
	return !printable(b)
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Decoder turns driver values into display strings by running an ordered
// list of steps. The first step that accepts a value wins.
type Decoder struct {
	steps    []Step
	wire     map[string]WireType
	jsonType map[string]bool
	fallback func(col Column, v any) string
}

// NewDecoder returns the generic chain used for Postgres and MySQL rows:
// text, integers, floats, bools, NULL, registered wire types, JSON, and
// finally a [Complex: TYPE] placeholder.
func NewDecoder() *Decoder {
	d := &Decoder{
		wire:     map[string]WireType{},
		jsonType: map[string]bool{"JSON": true, "JSONB": true},
		fallback: complexPlaceholder,
	}
	d.steps = []Step{d.text, integer, float, boolean, null, d.binary, d.jsonValue}
	registerDefaultWireTypes(d)
	return d
}

// NewSQLiteDecoder returns the reduced chain for SQLite's dynamic typing.
func NewSQLiteDecoder() *Decoder {
	return &Decoder{
		wire:     map[string]WireType{},
		jsonType: map[string]bool{},
		steps:    []Step{sqliteText, integer, float, blob, null},
		fallback: func(Column, any) string { return "?" },
	}
}

// Register adds or replaces the wire decoder for a type name.
func (d *Decoder) Register(typeName string, w WireType) {
	d.wire[strings.ToUpper(typeName)] = w
}

// Prepend puts step in front of the chain. Used by connectors that need
// to claim driver-specific value types before the generic steps see them.
func (d *Decoder) Prepend(step Step) {
	d.steps = append([]Step{step}, d.steps...)
}

// Decode renders one value.
func (d *Decoder) Decode(col Column, v any) string {
	col.Type = strings.ToUpper(col.Type)
	for _, step := range d.steps {
		if s, ok := step(col, v); ok {
			return s
		}
	}
	return d.fallback(col, v)
}

// DecodeRow renders a scanned row in column order.
func (d *Decoder) DecodeRow(cols []Column, vals []any) []string {
	row := make([]string, len(vals))
	for i, v := range vals {
		var col Column
		if i < len(cols) {
			col = cols[i]
		}
		row[i] = d.Decode(col, v)
	}
	return row
}

func complexPlaceholder(col Column, _ any) string {
	return fmt.Sprintf("[Complex: %s]", col.Type)
}

// ── steps ──

func (d *Decoder) text(col Column, v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		if w, ok := d.wire[col.Type]; ok && w.isBinary(x) {
			return "", false
		}
		if d.jsonType[col.Type] {
			return "", false
		}
		if utf8.Valid(x) {
			return string(x), true
		}
	}
	return "", false
}

func integer(_ Column, v any) (string, bool) {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	}
	return "", false
}

func float(_ Column, v any) (string, bool) {
	switch x := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func boolean(_ Column, v any) (string, bool) {
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b), true
	}
	return "", false
}

func null(_ Column, v any) (string, bool) {
	if v == nil {
		return "", true
	}
	return "", false
}

func (d *Decoder) binary(col Column, v any) (string, bool) {
	w, ok := d.wire[col.Type]
	if !ok {
		return "", false
	}
	switch x := v.(type) {
	case []byte:
		if w.isBinary(x) {
			return w.Bytes(x), true
		}
	case time.Time:
		if w.Time != nil {
			return w.Time(x), true
		}
	}
	return "", false
}

func (d *Decoder) jsonValue(_ Column, v any) (string, bool) {
	var raw []byte
	switch x := v.(type) {
	case []byte:
		raw = x
	default:
		if !isComposite(v) {
			return "", false
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		raw = b
	}
	if !json.Valid(raw) {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	return stripQuotes(buf.String()), true
}

// isComposite reports whether v is a map, slice or array that JSON can
// represent. Byte slices are excluded; they are raw column data.
func isComposite(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// stripQuotes removes one enclosing pair of double quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func sqliteText(_ Column, v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case time.Time:
		return FormatTimestamp(x), true
	}
	return "", false
}

func blob(_ Column, v any) (string, bool) {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("<blob len=%d>", len(b)), true
	}
	return "", false
}
