package encoder

import (
	"github.com/framecast-dev/framecast/internal/protocol"
)

const (
	// ForcedRefreshLimit is the refresh-counter value beyond which the next
	// frame becomes an unconditional full resync. Bounds the drift that
	// lossy compression and block-granularity diffing accumulate.
	ForcedRefreshLimit = 100

	// CheckerFraction is the divisor of the checker cutover: when more than
	// totalBlocks/CheckerFraction blocks changed, halving resolution beats
	// delta-encoding.
	CheckerFraction = 3

	// Refresh-counter increments per mode. Delta frames carry more drift
	// risk than skipped frames, so they pull the next resync closer.
	refreshCostNone    = 1
	refreshCostDiff    = 5
	refreshCostChecker = 3
)

// Selector chooses the encoding mode for each produced frame. It owns the
// forced-refresh counter and the previous-mode state; the caller commits the
// mode it actually sent so dropped frames do not advance the counters.
type Selector struct {
	refresh int
	prev    protocol.Mode
}

// NewSelector returns a selector in its initial state. The first frame of a
// session is forced to FULL by the absence of a reference image, before the
// selector is ever consulted.
func NewSelector() *Selector {
	return &Selector{}
}

// Pick decides the mode for the next frame. countChanged runs the block diff
// and returns the changed-block count; it is invoked only when the decision
// actually depends on the diff volume, and its side effect of updating the
// reference is wanted exactly in those cases.
func (s *Selector) Pick(totalBlocks int, countChanged func() int) protocol.Mode {
	// A CHECKER frame is always completed by its complement, even when a
	// refresh is due: the receiver needs both halves to finish
	// reconstruction.
	if s.prev == protocol.ModeChecker {
		return protocol.ModeCheckerCompl
	}
	if s.refresh > ForcedRefreshLimit {
		return protocol.ModeFull
	}

	changed := countChanged()
	switch {
	case changed > totalBlocks/CheckerFraction:
		return protocol.ModeChecker
	case changed > 0:
		return protocol.ModeDiff
	default:
		return protocol.ModeNone
	}
}

// Commit records that a frame of the given mode was sent and advances the
// forced-refresh counter accordingly.
func (s *Selector) Commit(m protocol.Mode) {
	switch m {
	case protocol.ModeFull:
		s.refresh = 0
	case protocol.ModeNone:
		s.refresh += refreshCostNone
	case protocol.ModeDiff:
		s.refresh += refreshCostDiff
	case protocol.ModeChecker, protocol.ModeCheckerCompl:
		s.refresh += refreshCostChecker
	}
	s.prev = m
}

// ForceRefresh makes the next picked frame a full resync regardless of diff
// volume. Used after a dropped frame may have left the reference ahead of
// what the receiver saw.
func (s *Selector) ForceRefresh() {
	s.refresh = ForcedRefreshLimit + 1
}

// Previous returns the mode of the last committed frame.
func (s *Selector) Previous() protocol.Mode {
	return s.prev
}

// RefreshCounter returns the current forced-refresh counter value.
func (s *Selector) RefreshCounter() int {
	return s.refresh
}
