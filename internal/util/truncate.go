package util

import "fmt"

// DefaultLogMaxLen caps provider response bodies quoted in logs and error
// messages at 1KB.
const DefaultLogMaxLen = 1024

// TruncateLog truncates long strings for log output. The full body is always
// available to the caller; only the quoted copy is capped.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateBytes is a convenience wrapper for TruncateLog that accepts []byte
// and uses DefaultLogMaxLen.
func TruncateBytes(b []byte) string {
	return TruncateLog(string(b), DefaultLogMaxLen)
}
