// Package progress contains the learner progress model: attempt records, the
// ledger repository contract, and the pure state machine that decides what a
// learner sees next on a given date.
package progress

import (
	"time"
)

// Attempt records that a learner was presented one scheduled problem and
// whether they have answered it correctly yet. Completed moves from false to
// true exactly once and never back.
type Attempt struct {
	Date      time.Time
	Ordinal   int
	LearnerID int64
	Completed bool
}
