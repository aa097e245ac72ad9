package identity

// Pair is one descriptive device attribute.
type Pair struct {
	Key   string
	Value string
}

// DeviceInfo is an ordered list of descriptive, non-identifying attributes.
type DeviceInfo []Pair

// Add appends key=value. Later values for the same key shadow earlier ones
// in Get and Map.
func (d *DeviceInfo) Add(key, value string) {
	*d = append(*d, Pair{Key: key, Value: value})
}

func (d DeviceInfo) Get(key string) (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Key == key {
			return d[i].Value, true
		}
	}
	return "", false
}

func (d DeviceInfo) Map() map[string]string {
	m := make(map[string]string, len(d))
	for _, p := range d {
		m[p.Key] = p.Value
	}
	return m
}
