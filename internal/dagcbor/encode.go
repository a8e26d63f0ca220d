package dagcbor

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
)

const (
	majUint     = 0
	majNegInt   = 1
	majBytes    = 2
	majText     = 3
	majList     = 4
	majMap      = 5
	majTag      = 6
	majSimple   = 7
	tagCIDLink  = 42
	simpleFalse = 20
	simpleTrue  = 21
	simpleNull  = 22
	simpleFloat = 27
)

// Encode writes the canonical CBOR encoding of v to w.
func Encode(w io.Writer, v Value) error {
	buf := &bytes.Buffer{}
	encodeInto(buf, v)
	_, err := w.Write(buf.Bytes())
	return err
}

// Marshal returns the canonical CBOR encoding of v.
func Marshal(v Value) []byte {
	buf := &bytes.Buffer{}
	encodeInto(buf, v)
	return buf.Bytes()
}

func encodeInto(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindNull:
		buf.WriteByte(majSimple<<5 | simpleNull)
	case KindBool:
		if v.b {
			buf.WriteByte(majSimple<<5 | simpleTrue)
		} else {
			buf.WriteByte(majSimple<<5 | simpleFalse)
		}
	case KindInt:
		if v.i >= 0 {
			writeHead(buf, majUint, uint64(v.i))
		} else {
			writeHead(buf, majNegInt, uint64(-(v.i+1)))
		}
	case KindFloat:
		buf.WriteByte(majSimple<<5 | simpleFloat)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], floatBits(v.f))
		buf.Write(b[:])
	case KindBytes:
		writeHead(buf, majBytes, uint64(len(v.bytes)))
		buf.Write(v.bytes)
	case KindText:
		writeHead(buf, majText, uint64(len(v.text)))
		buf.WriteString(v.text)
	case KindList:
		writeHead(buf, majList, uint64(len(v.list)))
		for _, item := range v.list {
			encodeInto(buf, item)
		}
	case KindMap:
		entries := canonicalEntries(v.m)
		writeHead(buf, majMap, uint64(len(entries)))
		for _, e := range entries {
			writeHead(buf, majText, uint64(len(e.Key)))
			buf.WriteString(e.Key)
			encodeInto(buf, e.Value)
		}
	case KindLink:
		writeHead(buf, majTag, tagCIDLink)
		cb := v.link.Bytes()
		writeHead(buf, majBytes, uint64(len(cb)+1))
		buf.WriteByte(0x00)
		buf.Write(cb)
	}
}

// canonicalEntries sorts map entries by encoded-key length then
// bytewise-lexicographic order, per RFC 7049's canonical ordering, which is
// what IPLD DAG-CBOR requires for determinism.
func canonicalEntries(entries []MapEntry) []MapEntry {
	out := make([]MapEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].Key, out[j].Key
		if len(ki) != len(kj) {
			return len(ki) < len(kj)
		}
		return ki < kj
	})
	return out
}

func writeHead(buf *bytes.Buffer, major byte, n uint64) {
	switch {
	case n < 24:
		buf.WriteByte(major<<5 | byte(n))
	case n < 1<<8:
		buf.WriteByte(major<<5 | 24)
		buf.WriteByte(byte(n))
	case n < 1<<16:
		buf.WriteByte(major<<5 | 25)
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		buf.Write(b[:])
	case n < 1<<32:
		buf.WriteByte(major<<5 | 26)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		buf.Write(b[:])
	default:
		buf.WriteByte(major<<5 | 27)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], n)
		buf.Write(b[:])
	}
}
