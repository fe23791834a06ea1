package cpfile

import (
	"fmt"
	"sync"
	"time"

	"github.com/nilfs-go/cpfile/internal/types"
)

// corruptionRateLimit bounds how often a storm of corrupt reads can
// write diagnostics: every corruption report is accompanied by a
// rate-limited print to standard output rather than one line per
// occurrence.
const corruptionRateLimit = time.Second

// corruptionLogger emits at most one diagnostic per corruptionRateLimit
// window, using plain fmt output rather than a structured logging
// dependency (see DESIGN.md).
type corruptionLogger struct {
	mu   sync.Mutex
	last time.Time
}

func newCorruptionLogger() *corruptionLogger {
	return &corruptionLogger{}
}

// logCorruption prints the cpfile identity and offending cno, gated by
// corruptionRateLimit.
func (c *Cpfile) logCorruption(cno types.Cno, reason string) {
	c.corrupt.mu.Lock()
	defer c.corrupt.mu.Unlock()

	if now := time.Now(); now.Sub(c.corrupt.last) >= corruptionRateLimit {
		c.corrupt.last = now
		fmt.Printf("cpfile[%s]: metadata corruption at cno=%d: %s\n", c.identity, cno, reason)
	}
}
