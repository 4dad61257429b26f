package catalog

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// TimeBucket formats a time into the hourly bucket used for seed derivation.
func TimeBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02-15")
}

// Seed derives the deterministic 8-character participant seed from an email
// and an hourly time bucket. An empty bucket means the current hour, so the
// same participant keeps the same seed within an hour and drifts across hour
// boundaries.
func Seed(email, bucket string) string {
	if bucket == "" {
		bucket = TimeBucket(time.Now())
	}

	sum := md5.Sum([]byte(fmt.Sprintf("%s::%s", email, bucket)))
	return fmt.Sprintf("%x", sum)[:8]
}

// NewRNG returns a generator seeded purely from the given string. Callers get
// their own generator, so concurrent content generation never touches shared
// random state.
func NewRNG(seed string) *rand.Rand {
	sum := md5.Sum([]byte(seed))
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))
}
