package mailbox

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/playbrawl/party-backend/pkg/types"
)

func msg(typ string) types.Envelope {
	return types.Envelope{Type: typ}
}

func TestDrainTakesEverythingOnce(t *testing.T) {
	m := New()
	m.PushPlayer("g1", "d1", msg("a"))
	m.PushPlayer("g1", "d1", msg("b"))

	got := m.DrainPlayer("g1", "d1")
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].Type)
	require.Equal(t, "b", got[1].Type)

	require.Nil(t, m.DrainPlayer("g1", "d1"))
}

func TestChannelsAreIsolated(t *testing.T) {
	m := New()
	m.PushPlayer("g1", "d1", msg("player"))
	m.PushHost("g1", "d1", msg("host"))

	players := m.DrainPlayer("g1", "d1")
	require.Len(t, players, 1)
	require.Equal(t, "player", players[0].Type)

	hosts := m.DrainHost("g1", "d1")
	require.Len(t, hosts, 1)
	require.Equal(t, "host", hosts[0].Type)
}

func TestFanOutPlayersExcept(t *testing.T) {
	m := New()
	ids := []string{"d1", "d2", "d3"}
	m.FanOutPlayersExcept("g1", ids, msg("joined"), []string{"d2"})

	require.Len(t, m.DrainPlayer("g1", "d1"), 1)
	require.Nil(t, m.DrainPlayer("g1", "d2"))
	require.Len(t, m.DrainPlayer("g1", "d3"), 1)
}

func TestFanOutHosts(t *testing.T) {
	m := New()
	m.FanOutHosts("g1", []string{"h1", "h2"}, msg("roster"))

	require.Len(t, m.DrainHost("g1", "h1"), 1)
	require.Len(t, m.DrainHost("g1", "h2"), 1)
}

func TestDestroyDropsAllQueues(t *testing.T) {
	m := New()
	m.PushPlayer("g1", "d1", msg("a"))
	m.PushHost("g1", "h1", msg("b"))
	m.Destroy("g1")

	require.Nil(t, m.DrainPlayer("g1", "d1"))
	require.Nil(t, m.DrainHost("g1", "h1"))
}

func TestRoomsAreIsolated(t *testing.T) {
	m := New()
	m.PushPlayer("g1", "d1", msg("a"))
	m.PushPlayer("g2", "d1", msg("b"))

	got := m.DrainPlayer("g2", "d1")
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].Type)
	require.Len(t, m.DrainPlayer("g1", "d1"), 1)
}
