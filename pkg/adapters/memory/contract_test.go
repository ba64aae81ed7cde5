package memory_test

import (
	"testing"

	"github.com/aretw0/neoform/pkg/adapters/memory"
	"github.com/aretw0/neoform/pkg/ports/tests"
)

func TestLocker_Contract(t *testing.T) {
	tests.LockerContractTest(t, memory.NewLocker())
}
