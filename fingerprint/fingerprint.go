// Package fingerprint hashes result sets so consumers can tell whether the
// manuscript inventory changed between runs without diffing files.
package fingerprint

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"strings"

	"github.com/Maclenn77/ticha/models"
)

// Records computes a 64-bit SimHash over every field of every record.
// Token weight drives the hash, not position: adding, removing or editing
// rows moves the fingerprint roughly in proportion to the change, which is
// what makes Distance useful across runs.
func Records(records []models.ManuscriptRecord) uint64 {
	if len(records) == 0 {
		return 0
	}
	var b strings.Builder
	for _, r := range records {
		for _, f := range r.Fields() {
			b.WriteString(f)
			b.WriteByte('\n')
		}
	}
	return Fingerprint(b.String())
}

// Fingerprint folds FNV-64a hashes of text's whitespace-separated tokens
// into one 64-bit SimHash.
func Fingerprint(text string) uint64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int

	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}

	return fingerprint
}

// Distance counts the bits on which two fingerprints disagree.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits of
// each other.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Hex renders a fingerprint the way logs and API payloads carry it.
func Hex(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
