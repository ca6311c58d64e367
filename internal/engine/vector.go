package engine

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Feature blobs stored alongside item records are opaque to storage; the
// engine owns the codec. The layout is a little-endian uint32 dimension
// prefix followed by the float32 components.

// EncodeVector serializes a feature vector into the stored blob form.
func EncodeVector(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}

	buf := make([]byte, 4+len(vector)*4)
	binary.LittleEndian.PutUint32(buf, uint32(len(vector)))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4+i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector deserializes a stored feature blob back into a vector.
func DecodeVector(buf []byte) ([]float32, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("feature blob too short: %d bytes", len(buf))
	}

	dimension := int(binary.LittleEndian.Uint32(buf))
	expectedSize := 4 + dimension*4
	if dimension <= 0 || len(buf) != expectedSize {
		return nil, fmt.Errorf("feature blob size mismatch: expected %d bytes for dimension %d, got %d",
			expectedSize, dimension, len(buf))
	}

	vector := make([]float32, dimension)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4+i*4:]))
	}
	return vector, nil
}

// CosineSimilarity computes the cosine similarity of two vectors. Mismatched
// lengths or zero norms score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
