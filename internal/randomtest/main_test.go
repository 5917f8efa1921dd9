package randomtest

import (
	"testing"

	"go.uber.org/goleak"
)

// RunSeeds fans harnesses out over an errgroup; every worker must be joined.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
