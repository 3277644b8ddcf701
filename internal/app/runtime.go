package app

import (
	"os"
	"sync/atomic"
)

const testModeEnv = "WORKZEN_TEST_MODE"

// testMode caches the flag so repeated checks avoid environment lookups.
// It is a pointer so the first caller can observe env changes made before
// any check ran, and RefreshTestMode can reset it afterwards.
var testMode atomic.Pointer[bool]

// InTestMode reports whether the process should skip runtime side effects
// such as opening network listeners or connecting to external services.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return refresh()
}

// RefreshTestMode re-reads WORKZEN_TEST_MODE after the environment changed.
func RefreshTestMode() {
	refresh()
}

func refresh() bool {
	enabled := os.Getenv(testModeEnv) == "1"
	testMode.Store(&enabled)
	return enabled
}
