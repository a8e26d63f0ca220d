// Package pack implements the §4.7 packer: a deterministic depth-first
// walk of a file-system tree that chunks files, builds UnixFS File and
// Directory nodes, and emits the whole DAG as a single CAR v1 stream.
package pack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/nimbuscar/car/internal/unixfs"

	carpkg "github.com/nimbuscar/car"
)

var logger = logging.Logger("pack")

// DefaultChunkSize is the fixed leaf window size (§4.7 step 2): 256 KiB.
const DefaultChunkSize = 256 * 1024

// Options configures a Pack call.
type Options struct {
	// ChunkSize overrides DefaultChunkSize; zero means use the default.
	ChunkSize int
	// Wrap controls root selection for a single-file source (§4.7 step 5).
	// Ignored when the source is a directory.
	Wrap bool
}

// block is a fully built UnixFS node buffered in memory before emission,
// in the order it was produced: leaves before parents, root last.
type block struct {
	cid     cid.Cid
	payload []byte
}

// buffer accumulates blocks during a walk and tracks which CIDs have
// already been buffered, so identical leaves (repeated content) are kept
// only once, matching the writer's own dedup at emit time.
type buffer struct {
	blocks []block
	seen   map[cid.Cid]struct{}
}

func newBuffer() *buffer {
	return &buffer{seen: make(map[cid.Cid]struct{})}
}

func (b *buffer) add(c cid.Cid, payload []byte) {
	if _, ok := b.seen[c]; ok {
		return
	}
	b.seen[c] = struct{}{}
	b.blocks = append(b.blocks, block{cid: c, payload: payload})
}

// Pack walks source (a file or directory) and writes the resulting DAG as
// a CAR v1 stream to sink, per §4.7.
func Pack(source string, sink io.Writer, opts Options) (cid.Cid, error) {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	info, err := os.Lstat(source)
	if err != nil {
		return cid.Undef, fmt.Errorf("pack: %w", err)
	}

	buf := newBuffer()
	root, size, err := walk(source, info, chunkSize, buf)
	if err != nil {
		return cid.Undef, err
	}
	if root == cid.Undef {
		return cid.Undef, fmt.Errorf("pack: %s produced no root (empty or unsupported file type)", source)
	}

	if !info.IsDir() && opts.Wrap {
		root, err = wrapSingleFile(filepath.Base(source), root, size, buf)
		if err != nil {
			return cid.Undef, err
		}
	}

	w, err := carpkg.Create(sink, []cid.Cid{root})
	if err != nil {
		return cid.Undef, fmt.Errorf("pack: %w", err)
	}
	for _, b := range buf.blocks {
		if err := w.Put(b.cid, b.payload); err != nil {
			return cid.Undef, fmt.Errorf("pack: %w", err)
		}
	}
	if err := w.Finish(); err != nil {
		return cid.Undef, fmt.Errorf("pack: %w", err)
	}
	logger.Debugf("packed %s into %d blocks, root %s", source, len(buf.blocks), root)
	return root, nil
}

// wrapSingleFile builds the synthetic single-entry Directory §4.7 step 5
// describes when --wrap is requested over a single file.
func wrapSingleFile(name string, fileCid cid.Cid, tsize uint64, buf *buffer) (cid.Cid, error) {
	link := unixfs.Link{Hash: fileCid, Name: name, Tsize: tsize}
	return buildDirectoryNode([]unixfs.Link{link}, buf)
}

// walk builds the DAG for path (a file, directory, or symlink) and returns
// its root CID along with the cumulative payload size used for the
// parent's tsize bookkeeping. It returns cid.Undef, 0, nil for entries
// that are intentionally skipped (special files).
func walk(path string, info os.FileInfo, chunkSize int, buf *buffer) (cid.Cid, uint64, error) {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return walkSymlink(path, buf)
	case info.IsDir():
		return walkDirectory(path, chunkSize, buf)
	case info.Mode().IsRegular():
		return walkFile(path, chunkSize, buf)
	default:
		logger.Warnf("skipping special file %s (mode %s)", path, info.Mode())
		return cid.Undef, 0, nil
	}
}

func walkSymlink(path string, buf *buffer) (cid.Cid, uint64, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return cid.Undef, 0, fmt.Errorf("pack: reading symlink %s: %w", path, err)
	}
	node := unixfs.Node{Data: unixfs.Data{Type: unixfs.TypeSymlink, Data: []byte(target)}}
	c, payload, err := encodeAndHash(node)
	if err != nil {
		return cid.Undef, 0, err
	}
	buf.add(c, payload)
	return c, uint64(len(payload)), nil
}

func walkDirectory(path string, chunkSize int, buf *buffer) (cid.Cid, uint64, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return cid.Undef, 0, fmt.Errorf("pack: reading directory %s: %w", path, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)

	var links []unixfs.Link
	for _, name := range names {
		childPath := filepath.Join(path, name)
		childInfo, err := os.Lstat(childPath)
		if err != nil {
			return cid.Undef, 0, fmt.Errorf("pack: %w", err)
		}
		childCid, childSize, err := walk(childPath, childInfo, chunkSize, buf)
		if err != nil {
			return cid.Undef, 0, err
		}
		if childCid == cid.Undef {
			continue // special file, skipped
		}
		links = append(links, unixfs.Link{Name: name, Tsize: childSize, Hash: childCid})
	}

	c, err := buildDirectoryNode(links, buf)
	if err != nil {
		return cid.Undef, 0, err
	}
	var total uint64
	for _, l := range links {
		total += l.Tsize
	}
	return c, total, nil
}

func buildDirectoryNode(links []unixfs.Link, buf *buffer) (cid.Cid, error) {
	node := unixfs.Node{Data: unixfs.Data{Type: unixfs.TypeDirectory}, Links: links}
	c, payload, err := encodeAndHash(node)
	if err != nil {
		return cid.Undef, err
	}
	buf.add(c, payload)
	return c, nil
}

func encodeAndHash(node unixfs.Node) (cid.Cid, []byte, error) {
	payload := unixfs.EncodeNode(node)
	c, err := unixfs.ComputeCID(payload)
	if err != nil {
		return cid.Undef, nil, fmt.Errorf("pack: hashing block: %w", err)
	}
	return c, payload, nil
}
