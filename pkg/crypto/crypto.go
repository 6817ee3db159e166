package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

// GenerateSeed returns 32 cryptographically random bytes encoded as hex.
func GenerateSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

func SHA256Hex(s string) string {
	hashed := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hashed[:])
}

const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCouponCode returns a random code of n characters over an
// unambiguous alphabet.
func GenerateCouponCode(n uint) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[RandIntn(len(alphabet))]
	}
	return string(b)
}

// RandIntn returns a uniform random value in [0, n). It panics if got a
// non-positive parameter.
func RandIntn(n int) int {
	r, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}

	return int(r.Int64())
}

// RandRange returns a uniform random value in [a, b). It panics if got a
// non-positive parameter or a>=b.
func RandRange(a, b int) int {
	return RandIntn(b-a) + a
}

// SampleWithoutReplacement draws k distinct values from pool using repeated
// uniform index pops. The pool slice is not modified.
func SampleWithoutReplacement(pool []int, k int) []int {
	remaining := make([]int, len(pool))
	copy(remaining, pool)

	selected := make([]int, 0, k)
	for i := 0; i < k; i++ {
		idx := RandIntn(len(remaining))
		selected = append(selected, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	return selected
}
