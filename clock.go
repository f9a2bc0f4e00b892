package l402

import "github.com/benbjohnson/clock"

// Clock abstracts time reads so caveat expiry, the free-tier window, and
// stats timestamps are deterministic in tests. clock.Clock already gives us
// Now, After, Sleep, Ticker and a Mock implementation, so we reuse it rather
// than define a narrower interface of our own.
type Clock = clock.Clock

// WallClock returns the real, production clock.
func WallClock() Clock { return clock.New() }
