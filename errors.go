package car

import "errors"

// Error kinds from §7. Each is a sentinel so callers can classify failures
// with errors.Is regardless of how much context has been wrapped around
// them with fmt.Errorf's %w.
var (
	// ErrMalformedVarint mirrors internal/varint.ErrMalformedVarint at the
	// package boundary so callers don't need to import the internal package.
	ErrMalformedVarint = errors.New("malformed varint")

	// ErrInvalidCid is returned when a CID prefix cannot be parsed: neither
	// the v0 sha2-256 shape nor a well-formed v1 multicodec+multihash.
	ErrInvalidCid = errors.New("invalid cid")

	// ErrNonCanonicalCbor is returned only when strict DAG-CBOR decoding is
	// requested and the input violates canonical encoding rules.
	ErrNonCanonicalCbor = errors.New("non-canonical cbor")

	// ErrInvalidProtobuf is returned when a DAG-PB/UnixFS block cannot be
	// parsed as the fixed tag layout §4.6 requires.
	ErrInvalidProtobuf = errors.New("invalid protobuf")

	// ErrTruncatedCar is returned when a CAR ends mid-entry: a partial
	// length prefix or a payload shorter than its declared length.
	ErrTruncatedCar = errors.New("truncated car")

	// ErrUnsupportedCarVersion is returned when the header's version field
	// is not 1.
	ErrUnsupportedCarVersion = errors.New("unsupported car version")

	// ErrNoRoots is returned when a CAR header lists zero roots.
	ErrNoRoots = errors.New("car has no roots")

	// ErrHashMismatch is returned by Verify when a block's payload does not
	// hash to its CID.
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrBlockNotFound is returned when a requested CID is not present in
	// the CAR's index.
	ErrBlockNotFound = errors.New("block not found")

	// ErrNotAFile is returned when cat is asked to stream a Directory node.
	ErrNotAFile = errors.New("not a file")

	// ErrPathEscape is returned when reconstructing a tree on disk would
	// write outside the requested target directory.
	ErrPathEscape = errors.New("path escapes target directory")

	// ErrUnsupportedNodeType is returned for a UnixFS type byte the
	// resolver does not know how to interpret (Metadata, HAMTShard).
	ErrUnsupportedNodeType = errors.New("unsupported unixfs node type")

	// ErrResourceLimitExceeded is returned when a header or entry exceeds
	// the reader's configured maximum length.
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")

	// ErrZeroLengthSection is returned for a length-prefixed section
	// declared zero bytes long, which can't hold even a CID.
	ErrZeroLengthSection = errors.New("zero-length section encountered")
)
