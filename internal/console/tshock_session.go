package console

import (
	"context"
	"fmt"
	"gamewarden/internal/structures"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// tshockSession talks to the TShock REST API of a Terraria server.
// ref: https://tshock.readme.io/reference
type tshockSession struct {
	client  *http.Client
	baseURL string
	token   string
}

type tshockStatus struct {
	Status  any `json:"status"`
	Players []struct {
		Nickname string `json:"nickname"`
	} `json:"players"`
}

type tshockCommand struct {
	Status   any      `json:"status"`
	Response []string `json:"response"`
	Error    string   `json:"error"`
}

// DialTShock verifies the application token and returns a REST-backed session.
func DialTShock(ctx context.Context, conf structures.ServerConfig) (Session, error) {
	s := &tshockSession{
		client:  &http.Client{Timeout: timeout(conf)},
		baseURL: strings.TrimRight(conf.Address, "/"),
		token:   conf.Token,
	}
	var resp struct {
		Status any    `json:"status"`
		Error  string `json:"error"`
	}
	if err := s.get(ctx, "/tokentest", nil, &resp); err != nil {
		return nil, err
	}
	if !okStatus(resp.Status) {
		return nil, fmt.Errorf("tshock token rejected: %s", resp.Error)
	}
	return s, nil
}

var _ PlayerLister = (*tshockSession)(nil)

func (s *tshockSession) Players(ctx context.Context) ([]string, error) {
	var status tshockStatus
	if err := s.get(ctx, "/v2/server/status", url.Values{"players": {"true"}}, &status); err != nil {
		return nil, err
	}
	if !okStatus(status.Status) {
		return nil, fmt.Errorf("tshock status returned %v", status.Status)
	}
	names := make([]string, 0, len(status.Players))
	for _, p := range status.Players {
		names = append(names, p.Nickname)
	}
	return names, nil
}

func (s *tshockSession) Query(ctx context.Context, command string) (string, error) {
	var resp tshockCommand
	if err := s.get(ctx, "/v3/server/rawcmd", url.Values{"cmd": {command}}, &resp); err != nil {
		return "", err
	}
	if !okStatus(resp.Status) {
		return "", fmt.Errorf("tshock rawcmd %q: %s", command, resp.Error)
	}
	return strings.Join(resp.Response, "\n"), nil
}

func (s *tshockSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *tshockSession) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", s.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("tshock %s: http %d", path, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// okStatus accepts TShock's status field whether it arrives as "200" or 200.
func okStatus(v any) bool {
	return fmt.Sprint(v) == "200"
}
