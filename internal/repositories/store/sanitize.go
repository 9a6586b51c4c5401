package store

import "reflect"

// Sanitize returns a copy of doc with nil leaves removed. Nested objects are
// cleaned recursively; arrays are kept as they are.
func Sanitize(doc map[string]interface{}) map[string]interface{} {
	if doc == nil {
		return nil
	}
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if v == nil {
			continue
		}
		if m, ok := v.(map[string]interface{}); ok {
			out[k] = Sanitize(m)
			continue
		}

		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Ptr, reflect.Interface:
			if rv.IsNil() {
				continue
			}
		case reflect.Map:
			if rv.IsNil() {
				continue
			}
			if rv.Type().Key().Kind() == reflect.String {
				nested := make(map[string]interface{}, rv.Len())
				iter := rv.MapRange()
				for iter.Next() {
					nested[iter.Key().String()] = iter.Value().Interface()
				}
				out[k] = Sanitize(nested)
				continue
			}
		}
		out[k] = v
	}
	return out
}
