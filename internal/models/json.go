package models

// JSON is free-form metadata attached to records.
type JSON map[string]interface{}

// NewJSON copies m into a JSON value. A nil map yields nil.
func NewJSON(m map[string]interface{}) JSON {
	if m == nil {
		return nil
	}
	out := make(JSON, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a copy of j overlaid with other. Keys in other win.
func (j JSON) Merge(other JSON) JSON {
	out := make(JSON, len(j)+len(other))
	for k, v := range j {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
