package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }

func (c *fakeClock) DeadlineAfter(d time.Duration) time.Time { return c.Now().Add(d) }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	return func() bool { return false }
}

func (c *fakeClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	return nil, func() {}
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestIssueValidateRoundTrip(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := NewTokenService([]byte("secret"), clk, time.Hour)

	want := Session{SessionID: svc.NewSessionID(), DeviceID: "d1", Role: RolePlayer}
	token, err := svc.Issue(want)
	require.NoError(t, err)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	issuer := NewTokenService([]byte("secret"), clk, time.Hour)
	verifier := NewTokenService([]byte("other"), clk, time.Hour)

	token, err := issuer.Issue(Session{SessionID: "s1", DeviceID: "d1", Role: RoleHost})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := NewTokenService([]byte("secret"), clk, time.Hour)

	token, err := svc.Issue(Session{SessionID: "s1", DeviceID: "d1", Role: RolePlayer})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.NoError(t, err)

	clk.advance(2 * time.Hour)
	_, err = svc.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := NewTokenService([]byte("secret"), clk, time.Hour)

	_, err := svc.Validate("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
