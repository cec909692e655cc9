package docstore

import (
	"crypto/rand"
	"strconv"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// idSuffixLen is the number of random base36 characters appended to the
// timestamp component.
const idSuffixLen = 8

// newEntityID generates an id of the form <unix-millis base36>-<random
// base36 suffix>. The format matches the persisted data, so ids sort
// roughly by creation time. Collisions are improbable but not
// impossible; uniqueness is not enforced at generation time.
func newEntityID(now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	return ts + "-" + randomBase36(idSuffixLen)
}

func randomBase36(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	out := make([]byte, n)
	for i, c := range b {
		out[i] = idAlphabet[int(c)%len(idAlphabet)]
	}
	return string(out)
}
