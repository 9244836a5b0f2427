package probing

import (
	"reflect"
	"strings"
	"sync"
)

type numericField struct {
	name  string
	index []int
}

var fieldCache sync.Map // reflect.Type -> []numericField

// NumericFields returns the JSON names of the numeric fields of a struct,
// in declaration order. Fields tagged json:"-" and non-numeric fields are skipped.
func NumericFields(v any) []string {
	fields := numericFieldsOf(reflect.TypeOf(v))
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// NumericValues returns the numeric fields of a struct as float64, keyed by JSON name.
func NumericValues(v any) map[string]float64 {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]float64{}
		}
		rv = rv.Elem()
	}
	fields := numericFieldsOf(rv.Type())
	out := make(map[string]float64, len(fields))
	for _, f := range fields {
		out[f.name] = toFloat(rv.FieldByIndex(f.index))
	}
	return out
}

func numericFieldsOf(t reflect.Type) []numericField {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]numericField)
	}
	fields := collectFields(t, nil)
	fieldCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, prefix []int) []numericField {
	var out []numericField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int{}, prefix...), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(sf.Type, index)...)
			continue
		}
		if !sf.IsExported() || !isNumeric(sf.Type.Kind()) {
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}
		out = append(out, numericField{name: name, index: index})
	}
	return out
}

func jsonName(sf reflect.StructField) string {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return sf.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	}
	return name
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return 0
}
