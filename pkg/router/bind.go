package router

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// bindQuery fills struct fields from URL query parameters, matching on the
// json tag (falling back to the lowercased field name).
func bindQuery(req *http.Request, obj any) error {
	value := reflect.ValueOf(obj).Elem()
	if value.Kind() != reflect.Struct {
		return fmt.Errorf("cannot bind query into %T", obj)
	}

	query := req.URL.Query()
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" {
			name = strings.ToLower(field.Name)
		}

		raw := query.Get(name)
		if raw == "" {
			continue
		}

		fv := value.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q for %s", raw, name)
			}
			fv.SetInt(n)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q for %s", raw, name)
			}
			fv.SetUint(n)
		case reflect.Float32, reflect.Float64:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q for %s", raw, name)
			}
			fv.SetFloat(n)
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("invalid value %q for %s", raw, name)
			}
			fv.SetBool(b)
		default:
			return fmt.Errorf("unsupported query field %s", name)
		}
	}

	return nil
}
