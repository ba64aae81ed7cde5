package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/neoform/pkg/ports"
)

// LockerContractTest is a reusable test suite that verifies an adapter
// complies with ports.Locker.
func LockerContractTest(t *testing.T, locker ports.Locker) {
	t.Helper()

	t.Run("ExclusiveWhileHeld", func(t *testing.T) {
		ctx := context.Background()
		unlock, err := locker.Lock(ctx, "contract-exclusive", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error locking: %v", err)
		}

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		if _, err := locker.Lock(waitCtx, "contract-exclusive", time.Minute); err == nil {
			t.Fatal("second Lock succeeded while the first was held")
		}

		if err := unlock(ctx); err != nil {
			t.Fatalf("unexpected error unlocking: %v", err)
		}

		again, err := locker.Lock(ctx, "contract-exclusive", time.Minute)
		if err != nil {
			t.Fatalf("lock not reacquirable after unlock: %v", err)
		}
		if err := again(ctx); err != nil {
			t.Fatalf("unexpected error unlocking: %v", err)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		a, err := locker.Lock(ctx, "contract-a", time.Minute)
		if err != nil {
			t.Fatalf("lock a: %v", err)
		}
		defer a(context.Background())

		b, err := locker.Lock(ctx, "contract-b", time.Minute)
		if err != nil {
			t.Fatalf("lock b blocked by a: %v", err)
		}
		if err := b(context.Background()); err != nil {
			t.Fatalf("unlock b: %v", err)
		}
	})

	t.Run("WaiterProceedsAfterUnlock", func(t *testing.T) {
		ctx := context.Background()
		unlock, err := locker.Lock(ctx, "contract-handoff", time.Minute)
		if err != nil {
			t.Fatalf("lock: %v", err)
		}

		acquired := make(chan error, 1)
		go func() {
			waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			next, err := locker.Lock(waitCtx, "contract-handoff", time.Minute)
			if err == nil {
				err = next(ctx)
			}
			acquired <- err
		}()

		time.Sleep(50 * time.Millisecond)
		if err := unlock(ctx); err != nil {
			t.Fatalf("unlock: %v", err)
		}
		if err := <-acquired; err != nil {
			t.Fatalf("waiter did not acquire the lock: %v", err)
		}
	})
}
