package vectorindex

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Snapshot format: magic, version, dimension, count as uint32
// little-endian, followed by count*dimension float32 values.
const (
	snapshotMagic   uint32 = 0x4d4e4d58 // "MNMX"
	snapshotVersion uint32 = 1
)

// WriteTo serializes the index in the binary snapshot format.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	var written int64
	header := []uint32{snapshotMagic, snapshotVersion, uint32(ix.dim), uint32(len(ix.vectors))}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return written, fmt.Errorf("vectorindex: write header: %w", err)
		}
		written += 4
	}
	buf := make([]byte, 4)
	for _, vec := range ix.vectors {
		for _, f := range vec {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
			n, err := w.Write(buf)
			written += int64(n)
			if err != nil {
				return written, fmt.Errorf("vectorindex: write vector data: %w", err)
			}
		}
	}
	return written, nil
}

// ReadFrom deserializes a snapshot produced by WriteTo and returns the
// reconstructed index.
func ReadFrom(r io.Reader) (*Index, error) {
	var magic, version, dim, count uint32
	for _, field := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("vectorindex: read header: %w", err)
		}
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("vectorindex: bad magic %#x", magic)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("vectorindex: unsupported snapshot version %d", version)
	}

	ix, err := New(int(dim))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 4)
	for i := uint32(0); i < count; i++ {
		vec := make([]float32, dim)
		for j := range vec {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("vectorindex: read vector %d: %w", i, err)
			}
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
		}
		ix.vectors = append(ix.vectors, vec)
	}
	return ix, nil
}
