package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// bindFields sets every exported field tagged with tag from lookup. Empty
// values leave the field untouched.
func bindFields(v any, tag string, lookup func(name string) string, sentinel error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a pointer to struct", sentinel)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		sf := rt.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		raw := lookup(name)
		if raw == "" {
			continue
		}
		if err := setValue(rv.Field(i), raw); err != nil {
			return fmt.Errorf("%w: %s: %v", sentinel, name, err)
		}
	}
	return nil
}

func setValue(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Pointer:
		elem := reflect.New(f.Type().Elem())
		if err := setValue(elem.Elem(), raw); err != nil {
			return err
		}
		f.Set(elem)
	default:
		if u, ok := f.Addr().Interface().(interface{ UnmarshalText([]byte) error }); ok {
			return u.UnmarshalText([]byte(raw))
		}
		return fmt.Errorf("unsupported field type %s", f.Type())
	}
	return nil
}
