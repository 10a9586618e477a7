package chunk

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// buildHashFields converts a chunk and its embedding into a flat map for HSET.
func buildHashFields(c domain.Chunk, vector []float32) map[string]string {
	return map[string]string{
		"text":    c.Text,
		"source":  c.Source,
		"ordinal": strconv.Itoa(c.Ordinal),
		"vector":  vectorToBytes(vector),
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
