// Package idhash derives deterministic identifiers. Replay must never
// draw randomness, so every ID is a hash of the inputs that define it.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade ID using SHA256.
// Formula: SHA256(instrument|entry_sequence|entry_time)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(instrument string, entrySeq uint64, entryTime int64) string {
	data := fmt.Sprintf("%s|%d|%d", instrument, entrySeq, entryTime)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeFillID computes a deterministic synthetic transaction ID for
// simulated fills.
// Formula: SHA256(instrument|side|sequence|timestamp)
func ComputeFillID(instrument, side string, seq uint64, timestamp int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", instrument, side, seq, timestamp)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
