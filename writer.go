package car

import (
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
)

// Writer assembles a CAR v1 stream: a header naming the roots, followed by
// one length-prefixed (cid, payload) entry per Put call (§4.4). Writer does
// not verify that a payload hashes to its CID; callers that build blocks
// from scratch (the pack package) are trusted to pass matching pairs.
type Writer struct {
	w      io.Writer
	seen   map[cid.Cid]struct{}
	closed bool
}

// Create writes a version 1 header naming roots to w and returns a Writer
// ready to accept blocks.
func Create(w io.Writer, roots []cid.Cid) (*Writer, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	h := &Header{Version: Version, Roots: roots}
	if err := WriteHeader(h, w); err != nil {
		return nil, err
	}
	return &Writer{w: w, seen: make(map[cid.Cid]struct{}, 0)}, nil
}

// Put appends one (cid, payload) entry. A CID already written to this
// Writer is silently skipped, matching the dedup behavior readers expect
// when resolving duplicate references in a DAG.
func (w *Writer) Put(c cid.Cid, payload []byte) error {
	if w.closed {
		return fmt.Errorf("car: write to closed writer")
	}
	if _, dup := w.seen[c]; dup {
		return nil
	}
	cb := c.Bytes()
	if err := ldWrite(w.w, cb, payload); err != nil {
		return fmt.Errorf("car: writing block %s: %w", c, err)
	}
	w.seen[c] = struct{}{}
	return nil
}

// Finish flushes any buffering Writer holds. The underlying io.Writer is
// not closed; callers own its lifecycle.
func (w *Writer) Finish() error {
	w.closed = true
	if f, ok := w.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
