//go:build depot_debug

package depot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExchangeAssertions(t *testing.T) {
	t.Run("retire non-empty", retireNonEmpty)
	t.Run("retire partial", retirePartial)
	t.Run("link twice", linkTwice)
}

// A panicking assertion can leave a depot inconsistent,
// so every case builds its own.
func newExchangeDepot(t *testing.T) *Depot[int] {
	t.Helper()
	reclaim := ReclaimFunc[int](func(int, Flags) {})
	d, err := New[int](2, 4, 0, reclaim, WithCPUs(1, nil))
	require.NoError(t, err)
	return d
}

func retireNonEmpty(t *testing.T) {
	t.Parallel()
	d := newExchangeDepot(t)
	d.lockLists()
	d.link(&d.full, fullMagazine(2, 1, 2))
	d.lock.Unlock()
	require.PanicsWithValue(t,
		"retiring a non-empty magazine to the empty list", func() {
			d.exchangeForFull(fullMagazine(2, 3))
		})
}

func retirePartial(t *testing.T) {
	t.Parallel()
	d := newExchangeDepot(t)
	require.PanicsWithValue(t,
		"retiring a partial magazine to the full list", func() {
			d.exchangeForEmpty(fullMagazine(2, 1), 0)
		})
}

func linkTwice(t *testing.T) {
	t.Parallel()
	d := newExchangeDepot(t)
	m := fullMagazine(2, 1, 2)
	d.lockLists()
	defer d.lock.Unlock()
	d.link(&d.full, m)
	require.PanicsWithValue(t,
		"magazine is already on a depot list", func() {
			d.link(&d.empty, m)
		})
}
