package tui

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/verte-zerg/dualtask/internal/model"
)

func openTest(t *testing.T) *Terminal {
	t.Helper()
	return Open(context.Background(), Options{
		Hz:     1000,
		Input:  bytes.NewReader(nil),
		Output: io.Discard,
	})
}

func press(term *Terminal, r rune) {
	term.program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func TestTerminalWaitKeySkipsOtherKeys(t *testing.T) {
	defer goleak.VerifyNone(t)
	term := openTest(t)

	press(term, 'x')
	term.program.Send(tea.KeyMsg{Type: tea.KeyUp})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := term.WaitKey(ctx, []string{"right", "up", "left", "down"})
	require.NoError(t, err)
	assert.Equal(t, "up", got.Key)
	assert.False(t, got.At.IsZero())

	require.NoError(t, term.Close())
}

func TestTerminalPollFiltersAllowed(t *testing.T) {
	defer goleak.VerifyNone(t)
	term := openTest(t)

	press(term, 'a')
	press(term, 'q')
	press(term, 'l')

	var keys []string
	require.Eventually(t, func() bool {
		for _, p := range term.Poll([]string{"a", "l"}) {
			keys = append(keys, p.Key)
		}
		return len(keys) == 2
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, []string{"a", "l"}, keys)
	assert.Empty(t, term.Poll([]string{"a", "l"}))

	require.NoError(t, term.Close())
}

func TestTerminalPresentPaces(t *testing.T) {
	defer goleak.VerifyNone(t)
	term := openTest(t)

	start := time.Now()
	for i := 0; i < 20; i++ {
		require.NoError(t, term.Present(context.Background(), model.Frame{Index: i, Total: 20}))
	}
	assert.GreaterOrEqual(t, time.Since(start), 19*time.Millisecond)

	_, err := term.RefreshRate()
	assert.ErrorIs(t, err, ErrNoRefreshRate)
	require.NoError(t, term.Close())
}

func TestTerminalEscAborts(t *testing.T) {
	defer goleak.VerifyNone(t)
	term := openTest(t)

	term.program.Send(tea.KeyMsg{Type: tea.KeyEsc})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := term.WaitKey(ctx, []string{"space"})
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, term.Present(ctx, model.Frame{}), ErrAborted)
	require.NoError(t, term.Close())
}

func TestTerminalCancelledWait(t *testing.T) {
	defer goleak.VerifyNone(t)
	term := openTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := term.WaitKey(ctx, []string{"space"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, term.Close())
}
