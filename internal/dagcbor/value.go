// Package dagcbor implements the deterministic subset of CBOR that IPLD's
// DAG-CBOR codec requires: canonical map key ordering, shortest-form
// integers, 64-bit floats, and a tag-42 encoding for CID links. It backs the
// CAR header (§4.5/§6) and is available for general IPLD value encoding.
//
// Decoding is deliberately lenient (it accepts non-canonical input produced
// by other tools); encoding is always canonical, so encode(decode(encode(v)))
// == encode(v) even when decode(encode(v)) != v is not guaranteed for
// adversarial non-canonical input.
package dagcbor

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindBytes
	KindText
	KindList
	KindMap
	KindLink
)

// MapEntry is one key/value pair of a Map value. Map is built from a slice,
// not a Go map, so callers control insertion order; Encode is responsible
// for imposing the canonical order regardless of what order entries arrive
// in.
type MapEntry struct {
	Key   string
	Value Value
}

// Value is a tagged-variant IPLD value: null, bool, int, float, bytes, text,
// list, map (keyed by text), or link (a CID). Only one of the fields below is
// meaningful, selected by Kind.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	bytes []byte
	text  string
	list  []Value
	m     []MapEntry
	link  cid.Cid
}

func Null() Value              { return Value{kind: KindNull} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func Bytes(b []byte) Value     { return Value{kind: KindBytes, bytes: b} }
func Text(s string) Value      { return Value{kind: KindText, text: s} }
func List(items []Value) Value { return Value{kind: KindList, list: items} }
func Map(entries []MapEntry) Value {
	return Value{kind: KindMap, m: entries}
}
func Link(c cid.Cid) Value { return Value{kind: KindLink, link: c} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("dagcbor: not a bool")
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, fmt.Errorf("dagcbor: not an int")
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, fmt.Errorf("dagcbor: not a float")
	}
	return v.f, nil
}

func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, fmt.Errorf("dagcbor: not bytes")
	}
	return v.bytes, nil
}

func (v Value) AsText() (string, error) {
	if v.kind != KindText {
		return "", fmt.Errorf("dagcbor: not text")
	}
	return v.text, nil
}

func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, fmt.Errorf("dagcbor: not a list")
	}
	return v.list, nil
}

func (v Value) AsMap() ([]MapEntry, error) {
	if v.kind != KindMap {
		return nil, fmt.Errorf("dagcbor: not a map")
	}
	return v.m, nil
}

// Lookup finds a key in a Map value, mirroring map access without forcing
// callers to linear-scan AsMap themselves.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, e := range v.m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

func (v Value) AsLink() (cid.Cid, error) {
	if v.kind != KindLink {
		return cid.Undef, fmt.Errorf("dagcbor: not a link")
	}
	return v.link, nil
}
