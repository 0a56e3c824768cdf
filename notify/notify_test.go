package notify_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-dochub-client/notify"
	"github.com/stretchr/testify/require"
)

func TestConsolePlain(t *testing.T) {
	var out bytes.Buffer
	c := notify.NewConsole(&out, nil, false)

	c.Success("logged in")
	c.Error("request failed")
	require.NoError(t, c.Alert(context.Background(), "Unable to log in", "account disabled"))

	require.Equal(t, "✓ logged in\n✗ request failed\n Unable to log in \naccount disabled\n", out.String())
}

func TestConsoleColor(t *testing.T) {
	var out bytes.Buffer
	notify.NewConsole(&out, nil, true).Error("boom")
	require.Equal(t, notify.Red+"✗ boom"+notify.ResetColor+"\n", out.String())
}

func TestConsoleAlertWaitsForAcknowledgement(t *testing.T) {
	var out bytes.Buffer
	c := notify.NewConsole(&out, strings.NewReader("\n"), false)

	require.NoError(t, c.Alert(context.Background(), "Title", "Body"))
	require.Contains(t, out.String(), "Press Enter to acknowledge")
}

func TestConsoleAlertHonoursContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	c := notify.NewConsole(io.Discard, r, false)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, c.Alert(ctx, "Title", "Body"), context.DeadlineExceeded)
}
