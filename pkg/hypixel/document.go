package hypixel

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// fields reads typed values out of one raw JSON object on behalf of a mapper.
// Absent and null values read as unset. A value of the wrong JSON type records a
// *MappingError; only the first failure is kept and returned by err.
type fields struct {
	entity string
	raw    gjson.Result
	fail   error
}

func newFields(entity string, raw gjson.Result) *fields {
	f := &fields{entity: entity, raw: raw}
	if present(raw) && !raw.IsObject() {
		f.mismatch("$", "object", raw)
	}
	return f
}

func (f *fields) err() error {
	return f.fail
}

// record keeps the first error seen, including errors from nested mappers.
func (f *fields) record(err error) {
	if err != nil && f.fail == nil {
		f.fail = err
	}
}

func (f *fields) mismatch(field, want string, got gjson.Result) {
	f.record(&MappingError{
		Entity: f.entity,
		Field:  field,
		Reason: fmt.Sprintf("expected %s, got %s", want, jsonType(got)),
	})
}

func (f *fields) get(name string) gjson.Result {
	if !f.raw.IsObject() {
		return gjson.Result{}
	}
	return f.raw.Get(name)
}

func (f *fields) has(name string) bool {
	return present(f.get(name))
}

func (f *fields) str(name string) *string {
	return f.strOf(name, f.get(name))
}

func (f *fields) strOf(field string, r gjson.Result) *string {
	if !present(r) {
		return nil
	}
	if r.Type != gjson.String {
		f.mismatch(field, "string", r)
		return nil
	}
	s := r.Str
	return &s
}

func (f *fields) int(name string) *int64 {
	return f.intOf(name, f.get(name))
}

func (f *fields) intOf(field string, r gjson.Result) *int64 {
	if !present(r) {
		return nil
	}
	if r.Type != gjson.Number {
		f.mismatch(field, "number", r)
		return nil
	}
	n := r.Int()
	return &n
}

func (f *fields) float(name string) *float64 {
	return f.floatOf(name, f.get(name))
}

func (f *fields) floatOf(field string, r gjson.Result) *float64 {
	if !present(r) {
		return nil
	}
	if r.Type != gjson.Number {
		f.mismatch(field, "number", r)
		return nil
	}
	n := r.Num
	return &n
}

func (f *fields) boolean(name string) *bool {
	r := f.get(name)
	if !present(r) {
		return nil
	}
	if r.Type != gjson.True && r.Type != gjson.False {
		f.mismatch(name, "boolean", r)
		return nil
	}
	b := r.Type == gjson.True
	return &b
}

// millis reads a milliseconds-since-epoch timestamp.
func (f *fields) millis(name string) *time.Time {
	return f.millisOf(name, f.get(name))
}

func (f *fields) millisOf(field string, r gjson.Result) *time.Time {
	ms := f.intOf(field, r)
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

// duration reads a millisecond count as a duration.
func (f *fields) duration(name string) *time.Duration {
	return f.durationOf(name, f.get(name))
}

func (f *fields) durationOf(field string, r gjson.Result) *time.Duration {
	ms := f.floatOf(field, r)
	if ms == nil {
		return nil
	}
	d := time.Duration(*ms * float64(time.Millisecond))
	return &d
}

// id reads an optional UUID in dashed or dashless form. An empty string is unset.
func (f *fields) id(name string) *uuid.UUID {
	return f.idOf(name, f.get(name))
}

func (f *fields) idOf(field string, r gjson.Result) *uuid.UUID {
	s := f.strOf(field, r)
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		f.record(&MappingError{Entity: f.entity, Field: field, Reason: fmt.Sprintf("invalid uuid %q", *s)})
		return nil
	}
	return &id
}

func (f *fields) requiredID(name string) uuid.UUID {
	id := f.id(name)
	if id == nil {
		f.record(&MappingError{Entity: f.entity, Field: name, Reason: "missing required uuid"})
		return uuid.Nil
	}
	return *id
}

// array returns the elements of an array field in source order. Absent is empty.
func (f *fields) array(name string) []gjson.Result {
	r := f.get(name)
	if !present(r) {
		return nil
	}
	if !r.IsArray() {
		f.mismatch(name, "array", r)
		return nil
	}
	return r.Array()
}

// object returns an object field, or false when it is absent.
func (f *fields) object(name string) (gjson.Result, bool) {
	r := f.get(name)
	if !present(r) {
		return gjson.Result{}, false
	}
	if !r.IsObject() {
		f.mismatch(name, "object", r)
		return gjson.Result{}, false
	}
	return r, true
}

// entries walks an object field in source key order.
func (f *fields) entries(name string, fn func(key string, value gjson.Result)) {
	obj, ok := f.object(name)
	if !ok {
		return
	}
	obj.ForEach(func(key, value gjson.Result) bool {
		fn(key.Str, value)
		return f.fail == nil
	})
}

func (f *fields) strings(name string) []string {
	var out []string
	for _, r := range f.array(name) {
		if s := f.strOf(name, r); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func (f *fields) ids(name string) []uuid.UUID {
	var out []uuid.UUID
	for _, r := range f.array(name) {
		if id := f.idOf(name, r); id != nil {
			out = append(out, *id)
		}
	}
	return out
}

// indexed looks up element i of a container that is either an array indexed by
// position or an object keyed by the decimal index. An absent container or
// element yields an empty result.
func (f *fields) indexed(name string, i int) gjson.Result {
	r := f.get(name)
	if !present(r) {
		return gjson.Result{}
	}
	switch {
	case r.IsArray():
		items := r.Array()
		if i < len(items) {
			return items[i]
		}
		return gjson.Result{}
	case r.IsObject():
		var found gjson.Result
		key := strconv.Itoa(i)
		r.ForEach(func(k, v gjson.Result) bool {
			if k.Str == key {
				found = v
				return false
			}
			return true
		})
		return found
	default:
		f.mismatch(name, "array or object", r)
		return gjson.Result{}
	}
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func jsonType(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	}
	if r.IsArray() {
		return "array"
	}
	return "object"
}
