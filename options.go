package car

// Default resource limits applied by Reader when no Option overrides them,
// matching §4.3: 4 MiB per block entry, 1 MiB for the header.
const (
	DefaultMaxEntrySize  = 4 << 20
	DefaultMaxHeaderSize = 1 << 20
)

// options holds the configured options after applying a number of Option
// funcs to a Reader.
type options struct {
	MaxEntrySize  uint64
	MaxHeaderSize uint64
}

// Option configures a Reader.
type Option func(*options)

// MaxEntrySize bounds the length of any single (cid+payload) entry a Reader
// will allocate for, guarding against a corrupt or hostile length prefix
// requesting an enormous read.
func MaxEntrySize(n uint64) Option {
	return func(o *options) { o.MaxEntrySize = n }
}

// MaxHeaderSize bounds the length of the CAR header section.
func MaxHeaderSize(n uint64) Option {
	return func(o *options) { o.MaxHeaderSize = n }
}

func applyOptions(opt ...Option) options {
	opts := options{
		MaxEntrySize:  DefaultMaxEntrySize,
		MaxHeaderSize: DefaultMaxHeaderSize,
	}
	for _, o := range opt {
		o(&opts)
	}
	return opts
}
