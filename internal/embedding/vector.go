package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VectorBytes packs a float32 vector into little-endian bytes for
// storage in the embeddings table.
func VectorBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// VectorFromBytes unpacks a stored vector. The payload length must be
// a multiple of four bytes.
func VectorFromBytes(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector payload of %d bytes is not float32-aligned", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
