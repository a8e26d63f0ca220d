// Package car implements the CAR v1 codec: the header and length-prefixed
// block framing described in §4.3/§4.4/§6. The DAG-CBOR layer it drives
// lives in internal/dagcbor; CIDs and multihashes come from go-cid and
// go-multihash, and the UnixFS/DAG-PB layer lives in internal/unixfs; the packer and
// resolver that use this package to produce and consume whole archives live
// in the sibling pack and unpack packages.
package car

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/nimbuscar/car/internal/dagcbor"
	"github.com/nimbuscar/car/internal/varint"
)

var logger = logging.Logger("car")

// Version is the only CAR header version this module accepts or produces.
const Version = 1

// Header is the DAG-CBOR payload that opens every CAR v1 file: a version
// number and an ordered, non-empty list of root CIDs.
type Header struct {
	Roots   []cid.Cid
	Version uint64
}

func (h *Header) value() dagcbor.Value {
	links := make([]dagcbor.Value, len(h.Roots))
	for i, r := range h.Roots {
		links[i] = dagcbor.Link(r)
	}
	return dagcbor.Map([]dagcbor.MapEntry{
		{Key: "roots", Value: dagcbor.List(links)},
		{Key: "version", Value: dagcbor.Int(int64(h.Version))},
	})
}

func headerFromValue(v dagcbor.Value) (*Header, error) {
	rootsV, ok := v.Lookup("roots")
	if !ok {
		return nil, fmt.Errorf("%w: header missing roots", ErrUnsupportedCarVersion)
	}
	rootList, err := rootsV.AsList()
	if err != nil {
		return nil, fmt.Errorf("car: decoding header roots: %w", err)
	}
	roots := make([]cid.Cid, len(rootList))
	for i, rv := range rootList {
		c, err := rv.AsLink()
		if err != nil {
			return nil, fmt.Errorf("%w: header root %d is not a cid link", ErrInvalidCid, i)
		}
		roots[i] = c
	}

	versionV, ok := v.Lookup("version")
	if !ok {
		return nil, fmt.Errorf("%w: header missing version", ErrUnsupportedCarVersion)
	}
	versionI, err := versionV.AsInt()
	if err != nil {
		return nil, fmt.Errorf("car: decoding header version: %w", err)
	}

	return &Header{Roots: roots, Version: uint64(versionI)}, nil
}

// WriteHeader writes h's length-prefixed DAG-CBOR encoding to w.
func WriteHeader(h *Header, w io.Writer) error {
	hb := dagcbor.Marshal(h.value())
	return ldWrite(w, hb)
}

// HeaderSize reports the on-disk size, in bytes, of h's encoding including
// its length prefix. Used by writers that need to know the byte offset the
// first block will land at before they've written anything.
func HeaderSize(h *Header) uint64 {
	hb := dagcbor.Marshal(h.value())
	return ldSize(hb)
}

// ReadHeader reads and decodes the leading length-prefixed DAG-CBOR header
// from br, returning the header and the number of bytes consumed. It does
// not itself enforce version==1 or roots!=empty; callers that need those
// checks (NewReader does) apply them after decoding.
func ReadHeader(br *bufio.Reader, maxHeaderSize uint64) (*Header, uint64, error) {
	hb, l, err := ldReadMax(br, maxHeaderSize)
	if err != nil {
		return nil, 0, fmt.Errorf("car: reading header: %w", err)
	}
	v, err := dagcbor.Decode(bufferedReader(hb))
	if err != nil {
		return nil, 0, fmt.Errorf("car: decoding header: %w", err)
	}
	h, err := headerFromValue(v)
	if err != nil {
		return nil, 0, err
	}
	return h, l, nil
}

func bufferedReader(b []byte) *bufio.Reader {
	return bufio.NewReader(byteSliceReader{b})
}

type byteSliceReader struct{ b []byte }

func (r byteSliceReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	return n, nil
}

// ldWrite writes a length-prefixed concatenation of d to w, the same
// framing used for every CAR section (header and blocks alike).
func ldWrite(w io.Writer, d ...[]byte) error {
	var sum uint64
	for _, s := range d {
		sum += uint64(len(s))
	}
	buf := varint.AppendUvarint(nil, sum)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	for _, s := range d {
		if _, err := w.Write(s); err != nil {
			return err
		}
	}
	return nil
}

func ldSize(d ...[]byte) uint64 {
	var sum uint64
	for _, s := range d {
		sum += uint64(len(s))
	}
	return sum + uint64(varint.Size(sum))
}

// ldReadMax reads one length-prefixed section from br, rejecting declared
// lengths above max with ErrResourceLimitExceeded. It returns the payload
// and the total number of bytes consumed (prefix + payload).
func ldReadMax(br *bufio.Reader, max uint64) ([]byte, uint64, error) {
	if _, err := br.Peek(1); err != nil {
		return nil, 0, err // clean io.EOF: no more sections
	}
	l, err := varint.ReadUvarint(br)
	if err != nil {
		if err == io.EOF {
			return nil, 0, fmt.Errorf("%w: truncated length prefix", ErrTruncatedCar)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedVarint, err)
	}
	if l == 0 {
		return nil, 0, ErrZeroLengthSection
	}
	if l > max {
		return nil, 0, fmt.Errorf("%w: section of %d bytes exceeds limit of %d", ErrResourceLimitExceeded, l, max)
	}
	buf := make([]byte, l)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTruncatedCar, err)
	}
	return buf, l + uint64(varint.Size(l)), nil
}
