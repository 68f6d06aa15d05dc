package speaker

import (
	"encoding/binary"
	"math"

	"github.com/watchloop/observatory/internal/apperrors"
)

// SerializeEmbedding packs a float32 vector into a little-endian byte
// blob of length dim*4.
func SerializeEmbedding(vector []float32) []byte {
	out := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(v))
	}
	return out
}

// DeserializeEmbedding unpacks a little-endian blob into a float32
// vector. Blobs whose length isn't a multiple of 4 are rejected.
func DeserializeEmbedding(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, apperrors.New(apperrors.KindSkipped, apperrors.CodeSchemaCorrupt, "invalid embedding blob length")
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vector[i] = math.Float32frombits(bits)
	}
	return vector, nil
}

// CosineSimilarity is the standard dot-product-over-norms formula,
// returning 0 when either vector has zero norm.
func CosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (normA * normB))
}

// weightedAverage applies the exponential moving average update rule:
// oldWeight*old + newWeight*new, element-wise. If old is empty, new is
// returned unchanged (first sample for this speaker).
func weightedAverage(old, new []float32, oldWeight, newWeight float32) []float32 {
	if len(old) == 0 {
		return new
	}
	n := len(old)
	if len(new) < n {
		n = len(new)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = old[i]*oldWeight + new[i]*newWeight
	}
	return out
}
