package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--server", serverURL,
		"--token-file", filepath.Join(t.TempDir(), "token"),
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestClientSendsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	var result JobList
	require.NoError(t, NewClient(srv.URL+"/", "tok").Get(context.Background(), "/api/v1/jobs", &result))
	assert.Equal(t, "Bearer tok", auth)
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": "LINK_NOT_FOUND", "message": "Link not found"}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Get(context.Background(), "/api/v1/links/x", nil)
	require.Error(t, err)
	assert.Equal(t, "Link not found (LINK_NOT_FOUND)", err.Error())
	assert.True(t, IsCode(err, "LINK_NOT_FOUND"))
}

func TestClientStatusErrorFillsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"connected": false, "error": "dial tcp: refused"}`))
	}))
	defer srv.Close()

	var result ConnectionStatus
	err := NewClient(srv.URL, "").Get(context.Background(), "/api/v1/status", &result)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "dial tcp: refused", result.Error)
}

func TestStatusCommandFailsWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"connected": false, "error": "timeout"}`))
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "--token", "t", "status")
	require.Error(t, err)
	assert.Contains(t, out, "Console: unreachable")
	assert.Contains(t, out, "Error: timeout")
}

func TestResolveEscapesName(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("name")
		_, _ = w.Write([]byte(`{"name": "Bob 123", "stable_id": "765", "display_name": "Bob 123", "platform": "PC", "source": "get_players"}`))
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "--token", "t", "resolve", "Bob 123")
	require.NoError(t, err)
	assert.Equal(t, "Bob 123", query)
	assert.Contains(t, out, "Player ID: 765")
	assert.Contains(t, out, "Found via: get_players")
}

func TestLeaderboardText(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(Leaderboard{
		Metric: "kills",
		Entries: []LeaderboardEntry{
			{Rank: 1, Name: "Bob123", Value: 20},
			{Rank: 2, Name: "Al", Value: 12},
		},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Top players by kills")
	assert.Equal(t, "  1. Bob123  20", lines[1])
	assert.Equal(t, "  2. Al      12", lines[2])
}

func TestVipText(t *testing.T) {
	days := 3
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(VipStatus{StableID: "765", IsVip: true, DaysRemaining: &days})
	assert.Contains(t, buf.String(), "VIP: yes")
	assert.Contains(t, buf.String(), "Days left: 3")

	buf.Reset()
	NewOutput("text", &buf).Print(VipStatus{StableID: "765"})
	assert.Contains(t, buf.String(), "VIP: no")
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("json", &buf).Print(BroadcastResult{Strategy: "banner"})
	assert.JSONEq(t, `{"strategy": "banner", "recipients": 0}`, buf.String())
}

func TestLoginSavesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"code": "UNAUTHORIZED", "message": "Authentication required"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", srv.URL, "--token-file", tokenFile, "login", "bad"})
	require.Error(t, cmd.Execute())

	cmd = NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", srv.URL, "--token-file", tokenFile, "login", "good"})
	require.NoError(t, cmd.Execute())

	c := &Config{TokenFile: tokenFile}
	require.NoError(t, c.LoadToken())
	assert.Equal(t, "good", c.Token)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LINKCTL_SERVER", "https://bot.example:9000")
	t.Setenv("LINKCTL_OUTPUT", "json")
	t.Setenv("LINKCTL_TOKEN_FILE", "/tmp/linkctl-token")
	t.Setenv("NO_COLOR", "1")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example:9000", c.ServerURL)
	assert.Equal(t, "json", c.Output)
	assert.Equal(t, "/tmp/linkctl-token", c.TokenFile)
	assert.True(t, c.NoColor)
	assert.NoError(t, c.Validate())
}

func TestConfigValidate(t *testing.T) {
	c := &Config{ServerURL: "http://localhost:8080", Output: "yaml"}
	assert.ErrorContains(t, c.Validate(), "unknown output format")

	c = &Config{ServerURL: "localhost:8080", Output: "text"}
	assert.ErrorContains(t, c.Validate(), "must start with http")
}

func TestUnknownOutputRejected(t *testing.T) {
	_, err := run(t, "http://localhost:1", "--output", "xml", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
