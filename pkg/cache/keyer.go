package cache

// QuantizeKeyOpts lists every option that changes the palette or the
// label grid. Anything not listed here (cell size, merge toggle, annotation
// settings) must not invalidate a cached quantization.
type QuantizeKeyOpts struct {
	Colors      int    `json:"colors"`
	Columns     int    `json:"columns"`
	Seed        uint64 `json:"seed"`
	MaxIter     int    `json:"max_iter"`
	Contrast    int    `json:"contrast"`
	Saturation  int    `json:"saturation"`
	FeatureMode string `json:"feature_mode"`
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// QuantizeKey identifies the palette and label grid of an image.
	QuantizeKey(imageHash string, opts QuantizeKeyOpts) string
	// ResultKey identifies a complete pipeline result. opts is any
	// JSON-serializable value holding the full configuration.
	ResultKey(imageHash string, opts any) string
}

// DefaultKeyer hashes the key options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// QuantizeKey implements Keyer.
func (DefaultKeyer) QuantizeKey(imageHash string, opts QuantizeKeyOpts) string {
	return hashKey("quantize", imageHash, opts)
}

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(imageHash string, opts any) string {
	return hashKey("result", imageHash, opts)
}
