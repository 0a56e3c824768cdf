package background_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-dochub-client/internal/background"
	"github.com/stretchr/testify/require"
)

func TestTasksRunAndErrorsAreSwallowed(t *testing.T) {
	r := background.New(time.Second)
	var ran atomic.Int32

	r.Go("ok", func(context.Context) error { ran.Add(1); return nil })
	r.Go("fails", func(context.Context) error { ran.Add(1); return errors.New("boom") })
	r.Go("panics", func(context.Context) error { ran.Add(1); panic("bad") })

	r.Wait()
	require.EqualValues(t, 3, ran.Load())
}

func TestTimeoutBoundsTask(t *testing.T) {
	r := background.New(10 * time.Millisecond)
	var err error
	r.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		err = ctx.Err()
		return err
	})
	r.Wait()
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseCancels(t *testing.T) {
	r := background.New(0)
	started := make(chan struct{})
	r.Go("blocked", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	r.Close()
}

func TestWaitTimeout(t *testing.T) {
	r := background.New(0)
	release := make(chan struct{})
	r.Go("held", func(context.Context) error { <-release; return nil })

	require.False(t, r.WaitTimeout(10*time.Millisecond))
	close(release)
	require.True(t, r.WaitTimeout(time.Second))
}
