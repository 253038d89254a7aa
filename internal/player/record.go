package player

// Record is a validated player. It is immutable: accessors return copies.
type Record struct {
	values []float64
}

// Row returns the attribute values in schema order.
func (r Record) Row() []float64 {
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

// Float returns the named attribute. ok is false for unknown names.
func (r Record) Float(name string) (float64, bool) {
	i := Index(name)
	if i < 0 || i >= len(r.values) {
		return 0, false
	}
	return r.values[i], true
}

// Int returns the named attribute truncated to an integer.
func (r Record) Int(name string) (int64, bool) {
	v, ok := r.Float(name)
	return int64(v), ok
}

// PositionCode returns the integer position code.
func (r Record) PositionCode() int {
	v, _ := r.Int(PositionField)
	return int(v)
}

// Map returns the record as a name to value map, ints rendered as int64.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(Schema))
	for i, f := range Schema {
		if f.Kind == KindInt {
			out[f.Name] = int64(r.values[i])
		} else {
			out[f.Name] = r.values[i]
		}
	}
	return out
}
