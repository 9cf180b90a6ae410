package order

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"time"
)

// NewNumber builds a human-facing order number from the creation time plus
// a four-digit random suffix: yyyymmddHHMMSS followed by 0000-9999. The
// suffix alone does not guarantee uniqueness within a second; the
// repository enforces a unique constraint and retries with a fresh number
// on conflict.
func NewNumber(t time.Time) int64 {
	base, _ := strconv.ParseInt(t.Format("20060102150405"), 10, 64)
	return base*10000 + randSuffix()
}

func randSuffix() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	return int64(uval % 10000)
}
