package car

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/nimbuscar/car/internal/varint"
)

// blockIndex records where a block's payload lives within the CAR stream.
type blockIndex struct {
	offset int64
	length int64
}

// Reader opens a CAR v1 byte stream for random access: it parses the
// header, then makes a single linear pass to build a CID→(offset,length)
// index (§4.3). Reader does not re-verify hashes during indexing; use
// Verify for that.
type Reader struct {
	src     io.ReaderAt
	header  *Header
	index   map[cid.Cid]blockIndex
	order   []cid.Cid // file order, for IterBlocks
	options options
}

// NewReader opens a CAR v1 stream from src and builds its block index.
func NewReader(src io.ReaderAt, opts ...Option) (*Reader, error) {
	o := applyOptions(opts...)

	br := bufio.NewReader(io.NewSectionReader(src, 0, 1<<62))
	header, headerLen, err := ReadHeader(br, o.MaxHeaderSize)
	if err != nil {
		return nil, err
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCarVersion, header.Version)
	}
	if len(header.Roots) == 0 {
		return nil, ErrNoRoots
	}

	r := &Reader{src: src, header: header, options: o}
	if err := r.buildIndex(int64(headerLen)); err != nil {
		return nil, err
	}
	logger.Debugf("opened car: %d roots, %d blocks", len(header.Roots), len(r.order))
	return r, nil
}

// buildIndex makes a single sequential pass over the entries following the
// header, recording each CID's payload offset and length. A CID seen more
// than once keeps its first occurrence, matching §4.3.
func (r *Reader) buildIndex(startOffset int64) error {
	r.index = make(map[cid.Cid]blockIndex)
	offset := startOffset
	br := bufio.NewReader(io.NewSectionReader(r.src, offset, 1<<62))

	for {
		entryLen, prefixLen, err := peekEntryLength(br, r.options.MaxEntrySize)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		cidLen, c, err := cidFromReader(br)
		if err != nil {
			return fmt.Errorf("car: reading entry at offset %d: %w", offset, err)
		}

		payloadLen := int64(entryLen) - int64(cidLen)
		if payloadLen < 0 {
			return fmt.Errorf("%w: entry at offset %d has a cid longer than its declared length", ErrTruncatedCar, offset)
		}
		payloadOffset := offset + int64(prefixLen) + int64(cidLen)

		if _, seen := r.index[c]; !seen {
			r.index[c] = blockIndex{offset: payloadOffset, length: payloadLen}
			r.order = append(r.order, c)
		} // else: duplicate CID, first occurrence wins (§4.3)

		if _, err := io.CopyN(io.Discard, br, payloadLen); err != nil {
			return fmt.Errorf("%w: entry at offset %d is shorter than declared", ErrTruncatedCar, offset)
		}

		offset = payloadOffset + payloadLen
	}
}

// Roots returns the CIDs named in the header.
func (r *Reader) Roots() []cid.Cid {
	return r.header.Roots
}

// ReadBlock returns the payload bytes stored for c.
func (r *Reader) ReadBlock(c cid.Cid) ([]byte, error) {
	idx, ok := r.index[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, c)
	}
	buf := make([]byte, idx.length)
	if _, err := r.src.ReadAt(buf, idx.offset); err != nil {
		return nil, fmt.Errorf("car: reading block %s: %w", c, err)
	}
	return buf, nil
}

// IterBlocks streams every block in file order, calling fn once per block.
// Returning a non-nil error from fn stops iteration and is returned as-is.
// A Reader can be iterated more than once: IterBlocks never consumes state.
func (r *Reader) IterBlocks(fn func(c cid.Cid, data []byte) error) error {
	for _, c := range r.order {
		data, err := r.ReadBlock(c)
		if err != nil {
			return err
		}
		if err := fn(c, data); err != nil {
			return err
		}
	}
	return nil
}

// Verify re-hashes every indexed block's payload against its CID, returning
// ErrHashMismatch for the first mismatch found.
func (r *Reader) Verify() error {
	for _, c := range r.order {
		data, err := r.ReadBlock(c)
		if err != nil {
			return err
		}
		if err := verifyBlock(c, data); err != nil {
			return err
		}
	}
	return nil
}

func verifyBlock(c cid.Cid, data []byte) error {
	prefix := c.Prefix()
	digest, err := multihash.Sum(data, prefix.MhType, prefix.MhLength)
	if err != nil {
		return fmt.Errorf("car: hashing block %s: %w", c, err)
	}
	if !digestEqual(c.Hash(), digest) {
		return fmt.Errorf("%w: %s", ErrHashMismatch, c)
	}
	return nil
}

func digestEqual(a, b multihash.Multihash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cidFromReader decodes one CID from the front of br, per §4.2: a v0
// sha2-256 prefix (0x12 0x20) or a v1 multicodec+multihash form. It returns
// the number of bytes consumed.
func cidFromReader(br *bufio.Reader) (int, cid.Cid, error) {
	n, c, err := cid.CidFromReader(br)
	if err != nil {
		return 0, cid.Undef, fmt.Errorf("%w: %v", ErrInvalidCid, err)
	}
	return n, c, nil
}

// peekEntryLength reads the uvarint length prefix of the next block entry,
// enforcing max the same way ldReadMax does for the header. It returns the
// declared length and the number of bytes the prefix itself occupied.
func peekEntryLength(br *bufio.Reader, max uint64) (length uint64, prefixLen uint64, err error) {
	if _, err := br.Peek(1); err != nil {
		return 0, 0, io.EOF
	}
	counted := &countingByteReader{br: br}
	l, err := varint.ReadUvarint(counted)
	if err != nil {
		if err == io.EOF {
			return 0, 0, fmt.Errorf("%w: truncated length prefix", ErrTruncatedCar)
		}
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformedVarint, err)
	}
	if l == 0 {
		return 0, 0, ErrZeroLengthSection
	}
	if l > max {
		return 0, 0, fmt.Errorf("%w: entry of %d bytes exceeds limit of %d", ErrResourceLimitExceeded, l, max)
	}
	return l, counted.n, nil
}

type countingByteReader struct {
	br *bufio.Reader
	n  uint64
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.br.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}
