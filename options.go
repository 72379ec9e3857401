package bitcask

// options holds the Engine's configurable knobs. Unlike the teacher's
// multi-file variant, the single-file design has nothing to tune about
// log rotation or key/value size ceilings — callers needing those
// belong to the outer database this engine is embedded in.
type options struct {
	disableLock bool
}

func defaultOptions() *options {
	return &options{}
}

// Option configures an Engine at Open/OpenWithCompact time.
type Option func(*options)

// WithoutLock disables the advisory exclusive OS file lock normally
// taken on Open. Intended for tests and embedders that already
// serialize access to the data file themselves.
func WithoutLock() Option {
	return func(o *options) {
		o.disableLock = true
	}
}
