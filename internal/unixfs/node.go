// Package unixfs implements the UnixFS record and its DAG-PB container
// (§4.6): the fixed Protobuf tag layout that maps a file or directory tree
// onto content-addressed blocks. Encoding order is part of the wire
// contract — reordering fields changes the resulting CID — so this package
// hand-rolls the wire format rather than going through a general-purpose
// Protobuf runtime.
package unixfs

import "github.com/ipfs/go-cid"

// Type is the UnixFS node type enum carried in tag 1 of a Data message.
type Type uint64

const (
	TypeRaw       Type = 0
	TypeDirectory Type = 1
	TypeFile      Type = 2
	TypeMetadata  Type = 3
	TypeSymlink   Type = 4
	TypeHAMTShard Type = 5
)

func (t Type) String() string {
	switch t {
	case TypeRaw:
		return "Raw"
	case TypeDirectory:
		return "Directory"
	case TypeFile:
		return "File"
	case TypeMetadata:
		return "Metadata"
	case TypeSymlink:
		return "Symlink"
	case TypeHAMTShard:
		return "HAMTShard"
	default:
		return "Unknown"
	}
}

// Link is one entry in a DAG-PB container's Links list.
type Link struct {
	Hash  cid.Cid
	Name  string
	Tsize uint64
}

// Data is the decoded UnixFS record, tags 1-4 of the Protobuf message
// embedded in a DAG-PB block's Data field.
type Data struct {
	Type       Type
	Data       []byte
	Filesize   uint64
	Blocksizes []uint64
}

// Node is a fully decoded UnixFS block: the DAG-PB wrapper plus its
// embedded UnixFS record.
type Node struct {
	Data  Data
	Links []Link
}
