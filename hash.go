package rowan

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
)

// Hash is a 128-bit render key: the FNV-1a digest of a node's canonical
// serialization. Nodes with equal hashes render identical pixels, so hashes
// key the result cache.
type Hash [16]byte

// The memoizer is two-level. The content hash covers kind + props + style
// and survives layout-only moves; the full hash additionally folds in the
// layout rectangle. Layout changes (window resizes, slides) are far more
// frequent than content changes, so skipping the content re-serialization
// on a layout-only change is the common fast path.

// hashScratch holds reusable serialization buffers. One per Store; the
// store is single-owner so no locking is needed.
type hashScratch struct {
	buf  []byte
	keys []string
	sum  []byte
}

// HashFor returns the node's render hash, memoizing the result on the node.
// Repeated calls without mutation are O(1).
func (s *Store) HashFor(id NodeID) (Hash, error) {
	n := s.lookup(id)
	if n == nil {
		return Hash{}, ErrNodeNotFound
	}
	return s.hashFor(n), nil
}

func (s *Store) hashFor(n *Node) Hash {
	if n.fullHashValid {
		return n.fullHash
	}
	if !n.contentHashValid {
		n.contentHash = s.contentHashFor(n)
		n.contentHashValid = true
	}

	// Full hash: content digest + layout.
	b := s.scratch.buf[:0]
	b = append(b, n.contentHash[:]...)
	b = appendFloat(b, n.Layout.X)
	b = appendFloat(b, n.Layout.Y)
	b = appendFloat(b, n.Layout.Width)
	b = appendFloat(b, n.Layout.Height)
	s.scratch.buf = b

	n.fullHash = digest128(b, &s.scratch)
	n.fullHashValid = true
	return n.fullHash
}

// contentHashFor serializes kind, props, and style into a canonical byte
// sequence and digests it. Extra keys are sorted first: map iteration order
// must not leak into the hash, or logically identical nodes would produce
// different keys and defeat the cache.
func (s *Store) contentHashFor(n *Node) Hash {
	b := s.scratch.buf[:0]
	b = append(b, byte(n.Kind))

	b = appendString(b, n.Props.Text)
	b = appendString(b, n.Props.ImageRef)
	b = binary.LittleEndian.AppendUint32(b, uint32(n.Props.GridCols))
	b = binary.LittleEndian.AppendUint32(b, uint32(n.Props.GridRows))

	keys := s.scratch.keys[:0]
	for k := range n.Props.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.scratch.keys = keys
	for _, k := range keys {
		b = appendString(b, k)
		b = appendString(b, n.Props.Extra[k])
	}

	b = appendColor(b, n.Style.Fill)
	b = appendColor(b, n.Style.Border)
	b = appendFloat(b, n.Style.BorderWidth)
	b = appendFloat(b, n.Style.FontSize)
	b = append(b, byte(n.Style.Align))
	b = appendFloat(b, n.Style.Opacity)

	s.scratch.buf = b
	return digest128(b, &s.scratch)
}

// digest128 runs FNV-1a/128 over b.
func digest128(b []byte, scratch *hashScratch) Hash {
	h := fnv.New128a()
	_, _ = h.Write(b) // fnv.Write never returns an error
	scratch.sum = h.Sum(scratch.sum[:0])
	var out Hash
	copy(out[:], scratch.sum)
	return out
}

func appendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

func appendFloat(b []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(f))
}

func appendColor(b []byte, c Color) []byte {
	b = appendFloat(b, c.R)
	b = appendFloat(b, c.G)
	b = appendFloat(b, c.B)
	return appendFloat(b, c.A)
}
