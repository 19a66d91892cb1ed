package sanitize

// Value is a JSON value. The set of implementations is closed: String,
// Mapping, Sequence and Scalar.
type Value interface {
	isValue()
}

// String is a JSON string. It may hold surrogate code points encoded as
// three-byte sequences (WTF-8) when decoded from unpaired \u escapes.
type String string

// Member is one key/value pair of a Mapping.
type Member struct {
	Key   string
	Value Value
}

// Mapping is a JSON object with its member order preserved.
type Mapping []Member

// Sequence is a JSON array.
type Sequence []Value

// Scalar is a JSON number, boolean or null kept as its literal text.
type Scalar string

// Common scalars.
const (
	Null  Scalar = "null"
	True  Scalar = "true"
	False Scalar = "false"
)

func (String) isValue()   {}
func (Mapping) isValue()  {}
func (Sequence) isValue() {}
func (Scalar) isValue()   {}

// Get returns the value of the first member named key.
func (m Mapping) Get(key string) (Value, bool) {
	for _, mem := range m {
		if mem.Key == key {
			return mem.Value, true
		}
	}
	return nil, false
}
