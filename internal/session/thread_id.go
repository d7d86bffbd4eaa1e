// ABOUTME: Opaque thread identifier generation, optionally workspace-scoped
// ABOUTME: Format: "ws:<workspace>:<epochMillis>-<random>" or "<epochMillis>-<random>"

package session

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const threadIDRandLen = 8

const threadIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewThreadID generates a fresh thread identifier. The workspace prefix lets
// the backend infer the workspace from the session ID alone.
func NewThreadID(workspace string) string {
	suffix := make([]byte, threadIDRandLen)
	for i := range suffix {
		suffix[i] = threadIDAlphabet[rand.IntN(len(threadIDAlphabet))]
	}
	base := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
	if workspace == "" {
		return base
	}
	return fmt.Sprintf("ws:%s:%s", workspace, base)
}
