package unpack

import (
	"github.com/ipfs/go-cid"

	"github.com/nimbuscar/car/internal/unixfs"
)

// Stats summarizes every block reachable from a set of roots: a best-effort
// inspection used by the CLI's "inspect" command, not a correctness check.
type Stats struct {
	RawBlocks       int
	FileBlocks      int
	DirectoryBlocks int
	SymlinkBlocks   int
	TotalBytes      uint64
}

// Stat walks every block reachable from roots exactly once and tallies
// Stats. Blocks shared by more than one root or link are only counted
// once.
func (res *Resolver) Stat(roots []cid.Cid) (Stats, error) {
	var s Stats
	visited := make(map[cid.Cid]struct{})
	for _, root := range roots {
		if err := res.statWalk(root, visited, &s); err != nil {
			return Stats{}, err
		}
	}
	return s, nil
}

func (res *Resolver) statWalk(c cid.Cid, visited map[cid.Cid]struct{}, s *Stats) error {
	if _, ok := visited[c]; ok {
		return nil
	}
	visited[c] = struct{}{}

	n, err := res.node(c)
	if err != nil {
		return err
	}
	switch n.Data.Type {
	case unixfs.TypeRaw:
		s.RawBlocks++
		s.TotalBytes += uint64(len(n.Data.Data))
	case unixfs.TypeFile:
		s.FileBlocks++
		s.TotalBytes += uint64(len(n.Data.Data))
	case unixfs.TypeDirectory:
		s.DirectoryBlocks++
	case unixfs.TypeSymlink:
		s.SymlinkBlocks++
		s.TotalBytes += uint64(len(n.Data.Data))
	}
	for _, l := range n.Links {
		if err := res.statWalk(l.Hash, visited, s); err != nil {
			return err
		}
	}
	return nil
}
