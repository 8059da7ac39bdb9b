package domain

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// NewID generates a random identifier with an optional type prefix,
// e.g. NewID("doc") -> "doc_9f86d081884c7d65...".
func NewID(prefix string) string {
	u := uuid.New()
	base := hex.EncodeToString(u[:])
	if prefix == "" {
		return base
	}
	return prefix + "_" + base
}

// NowMS returns the current time in epoch milliseconds, the timestamp
// unit used throughout the persisted schema.
func NowMS() int64 {
	return time.Now().UnixMilli()
}
