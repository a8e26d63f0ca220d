// Package unpack implements the §4.8 unpacker/resolver: reading UnixFS
// roots, listing directories, streaming file contents, and reconstructing
// a whole tree on disk from a CAR v1 stream.
package unpack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"
	lru "github.com/hashicorp/golang-lru/v2"
	logging "github.com/ipfs/go-log/v2"

	carpkg "github.com/nimbuscar/car"
	"github.com/nimbuscar/car/internal/unixfs"
)

var logger = logging.Logger("unpack")

// blockCacheSize bounds the resolver's LRU, an optimisation only: eviction
// never changes behavior, only how often ReadBlock hits the CAR index.
const blockCacheSize = 64

// Resolver reads UnixFS nodes out of a car.Reader, caching recently
// fetched blocks to speed up traversal of files with many leaves.
type Resolver struct {
	r     *carpkg.Reader
	cache *lru.Cache[cid.Cid, []byte]
}

// New wraps r as a Resolver.
func New(r *carpkg.Reader) (*Resolver, error) {
	cache, err := lru.New[cid.Cid, []byte](blockCacheSize)
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}
	return &Resolver{r: r, cache: cache}, nil
}

// Roots returns the CIDs named in the CAR's header.
func (res *Resolver) Roots() []cid.Cid {
	return res.r.Roots()
}

func (res *Resolver) block(c cid.Cid) ([]byte, error) {
	if b, ok := res.cache.Get(c); ok {
		return b, nil
	}
	b, err := res.r.ReadBlock(c)
	if err != nil {
		return nil, err
	}
	res.cache.Add(c, b)
	return b, nil
}

func (res *Resolver) node(c cid.Cid) (unixfs.Node, error) {
	b, err := res.block(c)
	if err != nil {
		return unixfs.Node{}, err
	}
	n, err := unixfs.DecodeNode(b)
	if err != nil {
		return unixfs.Node{}, fmt.Errorf("%w: %v", carpkg.ErrInvalidProtobuf, err)
	}
	return n, nil
}

// Entry describes one line of an ls() listing.
type Entry struct {
	Name string
	Type unixfs.Type
	Size uint64
}

// Kind reports the lower-case, ls-facing name for e's type. A Raw child of
// a directory is still file content from a listing's point of view, so it
// is reported as "file" alongside File nodes rather than as "raw".
func (e Entry) Kind() string {
	switch e.Type {
	case unixfs.TypeRaw, unixfs.TypeFile:
		return "file"
	case unixfs.TypeDirectory:
		return "directory"
	case unixfs.TypeSymlink:
		return "symlink"
	default:
		return strings.ToLower(e.Type.String())
	}
}

// Ls fetches root and, if it is a Directory, returns one Entry per link in
// link order; the type of each entry is derived by loading the child
// block. A non-Directory root yields a single entry named "". Ls never
// recurses.
func (res *Resolver) Ls(root cid.Cid) ([]Entry, error) {
	n, err := res.node(root)
	if err != nil {
		return nil, err
	}
	if n.Data.Type != unixfs.TypeDirectory {
		return []Entry{{Name: "", Type: n.Data.Type, Size: n.Data.Filesize}}, nil
	}

	entries := make([]Entry, 0, len(n.Links))
	for _, l := range n.Links {
		child, err := res.node(l.Hash)
		if err != nil {
			return nil, err
		}
		size := child.Data.Filesize
		if child.Data.Type != unixfs.TypeFile && child.Data.Type != unixfs.TypeDirectory {
			size = uint64(len(child.Data.Data))
		}
		entries = append(entries, Entry{Name: l.Name, Type: child.Data.Type, Size: size})
	}
	return entries, nil
}

// Cat streams the file content addressed by c to w: a Raw leaf's data
// directly, or a File's leaves in link order (recursing through any
// intermediate File nodes). A Directory root fails with ErrNotAFile.
func (res *Resolver) Cat(c cid.Cid, w io.Writer) error {
	n, err := res.node(c)
	if err != nil {
		return err
	}
	return res.catNode(n, w)
}

func (res *Resolver) catNode(n unixfs.Node, w io.Writer) error {
	switch n.Data.Type {
	case unixfs.TypeRaw:
		_, err := w.Write(n.Data.Data)
		return err
	case unixfs.TypeFile:
		if len(n.Links) == 0 {
			_, err := w.Write(n.Data.Data)
			return err
		}
		for _, l := range n.Links {
			child, err := res.node(l.Hash)
			if err != nil {
				return err
			}
			if err := res.catNode(child, w); err != nil {
				return err
			}
		}
		return nil
	case unixfs.TypeDirectory:
		return carpkg.ErrNotAFile
	default:
		return fmt.Errorf("%w: type %s", carpkg.ErrUnsupportedNodeType, n.Data.Type)
	}
}

// Unpack reconstructs the tree rooted at root onto disk under target,
// which must already exist as a directory. rootName supplies the file
// name to use when root is a bare File/Raw/Symlink node with no link
// context (the CLI passes the CAR's own base name). With an empty rootName
// such a root would be written at target itself, which fails because target
// is a directory.
func (res *Resolver) Unpack(root cid.Cid, target, rootName string) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("unpack: target %s is not a directory", target)
	}

	n, err := res.node(root)
	if err != nil {
		return err
	}
	if n.Data.Type == unixfs.TypeDirectory {
		return res.unpackDirectory(n, target)
	}
	return res.unpackLeaf(n, target, rootName)
}

func (res *Resolver) unpackDirectory(n unixfs.Node, target string) error {
	for _, l := range n.Links {
		childPath, err := safeJoin(target, l.Name)
		if err != nil {
			return err
		}
		child, err := res.node(l.Hash)
		if err != nil {
			return err
		}
		if child.Data.Type == unixfs.TypeDirectory {
			if err := os.Mkdir(childPath, 0o755); err != nil && !os.IsExist(err) {
				return fmt.Errorf("unpack: %w", err)
			}
			if err := res.unpackDirectory(child, childPath); err != nil {
				return err
			}
			continue
		}
		if err := res.unpackLeaf(child, filepath.Dir(childPath), filepath.Base(childPath)); err != nil {
			return err
		}
	}
	return nil
}

func (res *Resolver) unpackLeaf(n unixfs.Node, dir, name string) error {
	path, err := safeJoin(dir, name)
	if err != nil {
		return err
	}
	switch n.Data.Type {
	case unixfs.TypeSymlink:
		return os.Symlink(string(n.Data.Data), path)
	case unixfs.TypeRaw, unixfs.TypeFile:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("unpack: %w", err)
		}
		defer f.Close()
		return res.catNode(n, f)
	default:
		return fmt.Errorf("%w: type %s", carpkg.ErrUnsupportedNodeType, n.Data.Type)
	}
}

// safeJoin joins dir and name, refusing any result that normalises to
// outside dir (§4.8 PathEscape).
func safeJoin(dir, name string) (string, error) {
	if name == "" {
		return dir, nil
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", carpkg.ErrPathEscape, name)
	}
	joined := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", carpkg.ErrPathEscape, name)
	}
	return joined, nil
}

// Verify delegates to the underlying Reader's hash verification.
func (res *Resolver) Verify() error {
	return res.r.Verify()
}
