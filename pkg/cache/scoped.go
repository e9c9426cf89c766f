package cache

// ScopedKeyer wraps a Keyer with a prefix so that several pipelines can share
// one backend without colliding, for example the CLI and a local server
// pointed at the same Redis instance.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "srv:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// QuantizeKey generates a prefixed quantization key.
func (k *ScopedKeyer) QuantizeKey(imageHash string, opts QuantizeKeyOpts) string {
	return k.prefix + k.inner.QuantizeKey(imageHash, opts)
}

// ResultKey generates a prefixed result key.
func (k *ScopedKeyer) ResultKey(imageHash string, opts any) string {
	return k.prefix + k.inner.ResultKey(imageHash, opts)
}
