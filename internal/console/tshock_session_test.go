package console

import (
	"context"
	"gamewarden/internal/structures"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTShockServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	authed := func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Query().Get("token") != token {
			_, _ = w.Write([]byte(`{"status":"401","error":"Not authorized"}`))
			return false
		}
		return true
	}
	mux.HandleFunc("/tokentest", func(w http.ResponseWriter, r *http.Request) {
		if authed(w, r) {
			_, _ = w.Write([]byte(`{"status":"200","response":"Token is valid"}`))
		}
	})
	mux.HandleFunc("/v2/server/status", func(w http.ResponseWriter, r *http.Request) {
		if authed(w, r) {
			_, _ = w.Write([]byte(`{"status":"200","players":[{"nickname":"Ada"},{"nickname":"Bo"}]}`))
		}
	})
	mux.HandleFunc("/v3/server/rawcmd", func(w http.ResponseWriter, r *http.Request) {
		if authed(w, r) {
			_, _ = w.Write([]byte(`{"status":"200","response":["Saving world...","World saved."]}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDialTShock(t *testing.T) {
	srv := newTShockServer(t, "secret")
	conf := structures.ServerConfig{ID: "tr", Address: srv.URL, Token: "secret", Timeout: time.Second}

	s, err := DialTShock(context.Background(), conf)
	require.NoError(t, err)
	defer s.Close()

	lister, ok := s.(PlayerLister)
	require.True(t, ok)
	names, err := lister.Players(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Bo"}, names)

	out, err := s.Query(context.Background(), "/save")
	require.NoError(t, err)
	assert.Equal(t, "Saving world...\nWorld saved.", out)
}

func TestDialTShock_BadToken(t *testing.T) {
	srv := newTShockServer(t, "secret")
	conf := structures.ServerConfig{ID: "tr", Address: srv.URL, Token: "wrong"}

	_, err := DialTShock(context.Background(), conf)
	assert.Error(t, err)
}

func TestDialTShock_Unreachable(t *testing.T) {
	srv := newTShockServer(t, "secret")
	addr := srv.URL
	srv.Close()

	_, err := DialTShock(context.Background(), structures.ServerConfig{Address: addr, Token: "secret"})
	assert.Error(t, err)
}

func TestOkStatus(t *testing.T) {
	assert.True(t, okStatus("200"))
	assert.True(t, okStatus(float64(200)))
	assert.False(t, okStatus("400"))
	assert.False(t, okStatus(nil))
}

func TestNewProfile(t *testing.T) {
	p, err := NewProfile(structures.ServerConfig{ID: "mc", Kind: structures.KindMinecraft})
	require.NoError(t, err)
	assert.Equal(t, "list", p.Strategy.ListCommand)
	assert.Equal(t, "save-off", p.Strategy.Quiesce.Disable)

	tp, err := NewProfile(structures.ServerConfig{ID: "terraria", Kind: structures.KindTerraria})
	require.NoError(t, err)
	// TShock sessions report players themselves
	assert.Empty(t, tp.Strategy.ListCommand)
	assert.Equal(t, "/save", tp.Strategy.Quiesce.Flush)

	_, err = NewProfile(structures.ServerConfig{ID: "x", Kind: "factorio"})
	assert.Error(t, err)
}

func TestSystemctlChecker(t *testing.T) {
	var gotName string
	var gotArgs []string
	c := &SystemctlChecker{
		ssh: structures.SSHConfig{Host: "games.lan", Key: "/keys/id"},
		run: func(_ context.Context, name string, args ...string) error {
			gotName, gotArgs = name, args
			return nil
		},
	}

	active, err := c.IsActive(context.Background(), "minecraft.service")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, "ssh", gotName)
	assert.Equal(t, []string{"games.lan", "-i", "/keys/id", "-o", "BatchMode=yes", "systemctl is-active --quiet minecraft.service"}, gotArgs)

	local := &SystemctlChecker{run: func(_ context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}}
	_, _ = local.IsActive(context.Background(), "terraria.service")
	assert.Equal(t, "systemctl", gotName)
	assert.Equal(t, []string{"is-active", "--quiet", "terraria.service"}, gotArgs)
}
