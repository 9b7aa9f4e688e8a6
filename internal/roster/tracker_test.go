package roster

import (
	"context"
	"errors"
	"gamewarden/internal/console"
	"gamewarden/internal/models"
	"gamewarden/internal/providers"
	"gamewarden/internal/structures"
	"gamewarden/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubServices struct{ active bool }

func (s stubServices) IsActive(context.Context, string) (bool, error) { return s.active, nil }

type stubSession struct {
	reply string
	err   error
}

func (s *stubSession) Query(context.Context, string) (string, error) { return s.reply, s.err }
func (s *stubSession) Close() error                                  { return nil }

type listerSession struct {
	stubSession
	names []string
}

func (s *listerSession) Players(context.Context) ([]string, error) { return s.names, s.err }

func newTracker(active bool, session console.Session) (TrackerInterface, console.Profile, *console.ConnectionManager) {
	conns := console.NewConnectionManager(stubServices{active: active}, &testutil.MockLogger{}, providers.NewNoopMetrics())
	p := console.Profile{
		Config: structures.ServerConfig{ID: "mc", Kind: structures.KindMinecraft},
		Strategy: &console.Strategy{
			Kind:        structures.KindMinecraft,
			ListCommand: "list",
			Dial: func(context.Context, structures.ServerConfig) (console.Session, error) {
				return session, nil
			},
		},
	}
	return NewTracker(conns, &testutil.MockLogger{}, providers.NewNoopMetrics()), p, conns
}

func TestParseListReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  models.Roster
	}{
		{"two players", "There are 2 of a max of 20 players online: Ada, Bo", models.Roster{"Ada", "Bo"}},
		{"nobody", "There are 0 of a max of 20 players online:", models.Roster{}},
		{"stray commas", "online: ,Ada,, Bo ,", models.Roster{"Ada", "Bo"}},
		{"only first colon splits", "players: Ada, Bo:alt", models.Roster{"Ada", "Bo:alt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseListReply("mc", tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseListReply_NoColon(t *testing.T) {
	_, err := ParseListReply("mc", "Unknown command")

	var perr *models.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Unknown command", perr.Reply)
	assert.Equal(t, "mc", perr.Server)
}

func TestPoll_Offline(t *testing.T) {
	tr, p, _ := newTracker(false, &stubSession{})

	r, err := tr.Poll(context.Background(), p)

	require.NoError(t, err)
	assert.Empty(t, r)
}

func TestPoll_ListCommand(t *testing.T) {
	tr, p, _ := newTracker(true, &stubSession{reply: "There are 1 of a max of 20 players online: Ada"})

	r, err := tr.Poll(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, models.Roster{"Ada"}, r)
}

func TestPoll_CommandFailureIsConnectivity(t *testing.T) {
	tr, p, conns := newTracker(true, &stubSession{err: errors.New("eof")})

	r, err := tr.Poll(context.Background(), p)

	assert.ErrorIs(t, err, models.ErrConnectivity)
	assert.Empty(t, r)
	assert.NotNil(t, r)
	assert.Equal(t, console.Disconnected, conns.State("mc"))
}

func TestPoll_ParseErrorAborts(t *testing.T) {
	tr, p, _ := newTracker(true, &stubSession{reply: "garbled"})

	r, err := tr.Poll(context.Background(), p)

	var perr *models.ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Nil(t, r)
}

func TestPoll_PlayerLister(t *testing.T) {
	tr, p, _ := newTracker(true, &listerSession{names: []string{"Ada", " Bo ", "Ada"}})

	r, err := tr.Poll(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, models.Roster{"Ada", "Bo"}, r)
}

type countingSession struct{ queries int }

func (s *countingSession) Query(context.Context, string) (string, error) {
	s.queries++
	return "", nil
}
func (s *countingSession) Close() error { return nil }

func TestPoll_NoListCommandNeverQueries(t *testing.T) {
	session := &countingSession{}
	tr, p, _ := newTracker(true, session)
	p.Strategy.ListCommand = ""

	r, err := tr.Poll(context.Background(), p)

	assert.ErrorIs(t, err, models.ErrFatalConfig)
	assert.Nil(t, r)
	assert.Zero(t, session.queries)
}
