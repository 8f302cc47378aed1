package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGetOrPut_ComputesOnceUnderContention(t *testing.T) {
	c := New()
	key := Key{Project: ":app", Kind: KindDeclarations, Sub: "main"}

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"com.example.Foo"}, nil
	}

	const workers = 32
	var wg sync.WaitGroup
	results := make([][]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = GetOrPut(context.Background(), c, key, compute)
		}(i)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []string{"com.example.Foo"}, results[i])
	}

	v, err := GetOrPut(context.Background(), c, key, compute)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.Foo"}, v)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestGetOrPut_DistinctKeys(t *testing.T) {
	c := New()
	get := func(sub string) string {
		v, err := GetOrPut(context.Background(), c, Key{Project: ":app", Kind: KindClosure, Sub: sub},
			func(context.Context) (string, error) { return "closure of " + sub, nil })
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "closure of main", get("main"))
	assert.Equal(t, "closure of test", get("test"))
	assert.Equal(t, 2, c.Len())
}

func TestGetOrPut_ErrorsAreNotCached(t *testing.T) {
	c := New()
	key := Key{Project: ":app", Kind: KindReferences, Sub: "main"}
	boom := errors.New("facts unavailable")

	var calls int
	compute := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 42, nil
	}

	_, err := GetOrPut(context.Background(), c, key, compute)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := GetOrPut(context.Background(), c, key, compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)
}

func TestGetOrPut_CancelledWaiter(t *testing.T) {
	c := New()
	key := Key{Project: ":app", Kind: KindUsage, Sub: "main"}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = GetOrPut(context.Background(), c, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "used", nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GetOrPut(ctx, c, key, func(context.Context) (string, error) {
		t.Fatal("second computation must not start")
		return "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done

	v, err := GetOrPut(context.Background(), c, key, func(context.Context) (string, error) {
		return "recomputed", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "used", v)
}

func TestGetOrPut_NilInterfaceValue(t *testing.T) {
	c := New()
	v, err := GetOrPut(context.Background(), c, Key{Kind: KindUsage}, func(context.Context) (error, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = GetOrPut(context.Background(), c, Key{Kind: KindUsage}, func(context.Context) (error, error) {
		return errors.New("unreachable"), nil
	})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestGetOrPut_FailureReachesEveryWaiter(t *testing.T) {
	c := New()
	key := Key{Project: ":app", Kind: KindDeclarationIndex}
	boom := errors.New("facts unavailable")

	var calls atomic.Int32
	release := make(chan struct{})
	failing := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 0, boom
	}

	const workers = 32
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = GetOrPut(context.Background(), c, key, failing)
		}(i)
	}
	require.Eventually(t, func() bool { return c.waiters(key) == workers }, time.Second, time.Millisecond)
	// Let the last joiners reach the shared call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < workers; i++ {
		assert.ErrorIs(t, errs[i], boom)
	}
	assert.Equal(t, 0, c.Len())

	v, err := GetOrPut(context.Background(), c, key, func(context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrPut_StarterCancelledWhileOthersWait(t *testing.T) {
	c := New()
	key := Key{Project: ":app", Kind: KindClosure, Sub: "main"}

	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-release:
			return "closure", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	starterCtx, cancelStarter := context.WithCancel(context.Background())
	starterErr := make(chan error, 1)
	go func() {
		_, err := GetOrPut(starterCtx, c, key, compute)
		starterErr <- err
	}()
	<-started

	type result struct {
		v   string
		err error
	}
	other := make(chan result, 1)
	go func() {
		v, err := GetOrPut(context.Background(), c, key, compute)
		other <- result{v, err}
	}()
	require.Eventually(t, func() bool { return c.waiters(key) == 2 }, time.Second, time.Millisecond)

	cancelStarter()
	assert.ErrorIs(t, <-starterErr, context.Canceled)

	close(release)
	res := <-other
	require.NoError(t, res.err)
	assert.Equal(t, "closure", res.v)
}

func TestGetOrPut_CancelledWhenEveryWaiterLeaves(t *testing.T) {
	c := New()
	key := Key{Project: ":app", Kind: KindReferences, Sub: "main"}

	stopped := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := GetOrPut(ctx, c, key, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			close(stopped)
			return 0, ctx.Err()
		})
		errCh <- err
	}()
	require.Eventually(t, func() bool { return c.waiters(key) == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("computation kept running after every caller left")
	}
	assert.Equal(t, 0, c.waiters(key))
	assert.Equal(t, 0, c.Len())
}
