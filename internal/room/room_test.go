package room

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/internal/clock"
	"github.com/playbrawl/party-backend/internal/codes"
	"github.com/playbrawl/party-backend/internal/mailbox"
	"github.com/playbrawl/party-backend/internal/session"
	"github.com/playbrawl/party-backend/pkg/types"
)

type fixture struct {
	orch  *Orchestrator
	store *session.Store
	codes *codes.Allocator
	mail  *mailbox.Mailbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	alloc := codes.NewAllocator(rand.New(rand.NewSource(1)))
	store := session.NewStore(alloc)
	mail := mailbox.New()
	orch := NewOrchestrator(store, alloc, mail, clock.System(), zap.NewNop(), Config{
		ReadyCountdown: 10 * time.Second,
	})
	return &fixture{orch: orch, store: store, codes: alloc, mail: mail}
}

// newRoom registers a host and creates its game.
func (f *fixture) newRoom(t *testing.T) (*session.Host, *session.Game) {
	t.Helper()
	host := f.orch.RegisterHost("host-dev", "host-sess")
	game, err := f.orch.CreateGame(host, nil)
	require.NoError(t, err)
	return host, game
}

func (f *fixture) join(t *testing.T, game *session.Game, deviceID, sessionID string) *session.Player {
	t.Helper()
	p := f.orch.RegisterPlayer(deviceID, sessionID)
	got, err := f.orch.PlayerJoin(game.RoomCode(), p)
	require.NoError(t, err)
	require.Same(t, game, got)
	return p
}

func lastMessage(t *testing.T, msgs []types.Envelope, typ string) types.Envelope {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == typ {
			return msgs[i]
		}
	}
	t.Fatalf("no %q among %d messages", typ, len(msgs))
	return types.Envelope{}
}

func TestCreateGameClaimsCode(t *testing.T) {
	f := newFixture(t)
	host, game := f.newRoom(t)

	require.GreaterOrEqual(t, game.RoomCode(), codes.MinCode)
	require.LessOrEqual(t, game.RoomCode(), codes.MaxCode)
	require.Equal(t, game.Guid(), host.GameGuid())

	got, ok := f.store.GameByCode(game.RoomCode())
	require.True(t, ok)
	require.Same(t, game, got)
}

func TestPlayerJoinMessagesAndRoster(t *testing.T) {
	f := newFixture(t)
	_, game := f.newRoom(t)

	a := f.join(t, game, "da", "sa")
	require.True(t, a.IsMaster())

	// the joiner's own message carries no join index
	msgs := f.mail.DrainPlayer(game.Guid(), "da")
	joined := lastMessage(t, msgs, types.MsgJoinedPlayer).Payload.(types.JoinedPlayerPayload)
	require.Nil(t, joined.PlayerJoinIndex)
	require.Equal(t, 1, joined.PlayerCount)

	b := f.join(t, game, "db", "sb")
	require.False(t, b.IsMaster())

	// existing players see the newcomer's index
	msgs = f.mail.DrainPlayer(game.Guid(), "da")
	joined = lastMessage(t, msgs, types.MsgJoinedPlayer).Payload.(types.JoinedPlayerPayload)
	require.NotNil(t, joined.PlayerJoinIndex)
	require.Equal(t, 1, *joined.PlayerJoinIndex)
	require.Equal(t, 2, joined.PlayerCount)

	// the host roster lists both seats in join order
	hostMsgs := f.mail.DrainHost(game.Guid(), "host-dev")
	roster := lastMessage(t, hostMsgs, types.MsgPlayerList).Payload.(types.PlayerListPayload)
	require.Len(t, roster.Players, 2)
	require.Equal(t, 0, roster.Players[0].PlayerIndex)
	require.Equal(t, 1, roster.Players[1].PlayerIndex)
	require.Equal(t, 1, roster.LastJoined.PlayerIndex)
}

func TestJoinUnknownCode(t *testing.T) {
	f := newFixture(t)
	p := f.orch.RegisterPlayer("da", "sa")
	_, err := f.orch.PlayerJoin(4242, p)
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestClosedRoomAdmitsOnlyReconnects(t *testing.T) {
	f := newFixture(t)
	_, game := f.newRoom(t)
	master := f.join(t, game, "da", "sa")
	f.join(t, game, "db", "sb")

	require.True(t, f.orch.CloseRoom(game.RoomCode(), master))

	// a brand-new device is turned away
	stranger := f.orch.RegisterPlayer("dz", "sz")
	_, err := f.orch.PlayerJoin(game.RoomCode(), stranger)
	require.ErrorIs(t, err, ErrRoomClosed)

	// a seated device reconnecting under a new session keeps its seat
	again := f.orch.RegisterPlayer("db", "sb2")
	_, err = f.orch.PlayerJoin(game.RoomCode(), again)
	require.NoError(t, err)
	require.Equal(t, 1, again.JoinIndex())

	// the stale session was evicted
	_, ok := f.store.Player("sb")
	require.False(t, ok)
}

func TestCloseRoomMasterOnly(t *testing.T) {
	f := newFixture(t)
	_, game := f.newRoom(t)
	master := f.join(t, game, "da", "sa")
	other := f.join(t, game, "db", "sb")

	require.False(t, f.orch.CloseRoom(game.RoomCode(), other))
	require.False(t, game.Closed())

	// master of a different room cannot close this one either
	_, otherGame := func() (*session.Host, *session.Game) {
		h := f.orch.RegisterHost("host2", "host2-sess")
		g, err := f.orch.CreateGame(h, nil)
		require.NoError(t, err)
		return h, g
	}()
	foreign := f.join(t, otherGame, "dc", "sc")
	require.False(t, f.orch.CloseRoom(game.RoomCode(), foreign))

	require.True(t, f.orch.CloseRoom(game.RoomCode(), master))
	require.True(t, game.Closed())

	// everyone gets the countdown
	for _, id := range []string{"da", "db"} {
		msgs := f.mail.DrainPlayer(game.Guid(), id)
		ready := lastMessage(t, msgs, types.MsgRoomReady).Payload.(types.RoomReadyPayload)
		require.Equal(t, int64(10_000), ready.CountdownMs)
		require.NotZero(t, ready.StartTimeMs)
	}
	hostMsgs := f.mail.DrainHost(game.Guid(), "host-dev")
	lastMessage(t, hostMsgs, types.MsgRoomReady)
}

func TestLeaveLastPlayerTearsDownRoom(t *testing.T) {
	f := newFixture(t)
	_, game := f.newRoom(t)
	a := f.join(t, game, "da", "sa")
	b := f.join(t, game, "db", "sb")
	code := game.RoomCode()

	require.True(t, f.orch.Leave(a))
	_, ok := f.store.Game(game.Guid())
	require.True(t, ok, "room must survive while players remain")

	require.True(t, f.orch.Leave(b))
	_, ok = f.store.Game(game.Guid())
	require.False(t, ok)
	_, ok = f.store.GameByCode(code)
	require.False(t, ok)
	require.Nil(t, f.mail.DrainPlayer(game.Guid(), "da"))

	// the code is claimable again
	require.True(t, func() bool {
		for i := 0; i < codes.MaxCode-codes.MinCode+1; i++ {
			c, err := f.codes.Claim()
			if err != nil {
				return false
			}
			if c == code {
				return true
			}
		}
		return false
	}())
}

func TestExpireHostTearsDownGame(t *testing.T) {
	f := newFixture(t)
	host, game := f.newRoom(t)
	p := f.join(t, game, "da", "sa")

	f.orch.ExpireHost(host)

	_, ok := f.store.Game(game.Guid())
	require.False(t, ok)
	_, ok = f.store.Player(p.SessionID())
	require.False(t, ok)
	_, ok = f.store.Host(host.SessionID())
	require.False(t, ok)
}

func TestExpirePlayerLeavesRoom(t *testing.T) {
	f := newFixture(t)
	_, game := f.newRoom(t)
	a := f.join(t, game, "da", "sa")
	f.join(t, game, "db", "sb")

	f.orch.ExpirePlayer(a)

	_, ok := f.store.Player("sa")
	require.False(t, ok)
	require.Equal(t, 1, game.PlayerCount())
}

func TestChangeNameRefreshesRoster(t *testing.T) {
	f := newFixture(t)
	_, game := f.newRoom(t)
	a := f.join(t, game, "da", "sa")
	f.mail.DrainHost(game.Guid(), "host-dev")

	require.True(t, f.orch.ChangeName(a, "Ada"))
	require.Equal(t, "Ada", game.PlayerName("da"))

	hostMsgs := f.mail.DrainHost(game.Guid(), "host-dev")
	roster := lastMessage(t, hostMsgs, types.MsgPlayerList).Payload.(types.PlayerListPayload)
	require.Equal(t, "Ada", roster.LastJoined.PlayerName)
}

func TestPollDrainsAndValidates(t *testing.T) {
	f := newFixture(t)
	_, game := f.newRoom(t)
	f.join(t, game, "da", "sa")

	msgs, valid := f.orch.PollPlayer("sa")
	require.True(t, valid)
	require.NotEmpty(t, msgs)

	msgs, valid = f.orch.PollPlayer("sa")
	require.True(t, valid)
	require.Empty(t, msgs)

	_, valid = f.orch.PollPlayer("nope")
	require.False(t, valid)

	require.True(t, f.orch.KeepAlivePlayer("sa"))
	require.False(t, f.orch.KeepAliveHost("nope"))
}

func TestHostJoinExistingRoom(t *testing.T) {
	f := newFixture(t)
	_, game := f.newRoom(t)
	f.join(t, game, "da", "sa")
	f.mail.DrainHost(game.Guid(), "host-dev")

	second := f.orch.RegisterHost("host2", "host2-sess")
	got, err := f.orch.HostJoin(game.RoomCode(), second)
	require.NoError(t, err)
	require.Same(t, game, got)

	// the late host gets the current roster
	msgs := f.mail.DrainHost(game.Guid(), "host2")
	roster := lastMessage(t, msgs, types.MsgPlayerList).Payload.(types.PlayerListPayload)
	require.Len(t, roster.Players, 1)

	_, err = f.orch.HostJoin(4242, second)
	require.ErrorIs(t, err, ErrRoomNotFound)
}
