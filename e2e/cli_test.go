package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/crcon-linkbot/internal/api"
	"github.com/mcoot/crcon-linkbot/internal/api/middleware"
	"github.com/mcoot/crcon-linkbot/internal/cli"
	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/factory"
)

const (
	adminToken = "e2e-token"
	bobID      = "76561198000000001"
)

// cliRunner drives linkctl commands against a live server
type cliRunner struct {
	serverURL string
	tokenFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	color.NoColor = true

	return &cliRunner{
		serverURL: serverURL,
		tokenFile: filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	return r.runWithToken(adminToken, args...)
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)
	if token != "" {
		fullArgs = append([]string{"--token", token}, fullArgs...)
	}

	cmd := cli.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(fullArgs)
	err := cmd.Execute()
	return out.String(), err
}

// testServer wires a TestApp behind a real HTTP listener
type testServer struct {
	app *factory.TestApp
	url string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	hash, err := middleware.HashToken(adminToken)
	require.NoError(t, err)

	app := factory.NewTestApp(t)
	app.Console.HandleJSON(console.PathGetPlayers, http.StatusOK,
		`{"result": [{"name": "Bob123", "player_id": "`+bobID+`"}]}`)
	app.Console.HandleJSON(console.PathGetStatus, http.StatusOK,
		`{"result": {"name": "E2E Server", "player_count": 1, "max_players": 100}}`)
	app.Console.HandleJSON(console.PathGetVipIDs, http.StatusOK,
		`{"result": [{"player_id": "`+bobID+`", "expiration": "2026-03-04T12:00:00"}]}`)
	app.Console.HandleJSON(console.PathSetBroadcast, http.StatusOK, `{"result": "ok"}`)
	app.Console.HandleJSON(console.PathGetLiveGameStats, http.StatusOK, `{"result": {"stats": [
		{"player": "Alice", "player_id": "2", "kills": 3},
		{"player": "Bob123", "player_id": "`+bobID+`", "kills": 7}
	]}}`)

	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		APITokenHash: hash,
		Health:       app.Executor.Health(),
		Connection:   app.Executor,
		Resolver:     app.Resolver,
		Vip:          app.Vip,
		Broadcaster:  app.Broadcast,
		Links:        app.Links,
		Leaderboards: app.Leaderboards,
		Scheduler:    app.Scheduler,
		HubManager:   app.HubManager,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{app: app, url: srv.URL}
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), "output: %s", out)
	return v
}

func TestCLIHealth(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	// Health needs no token
	out, err := r.runWithToken("", "health")
	require.NoError(t, err)

	health := decode[cli.HealthResult](t, out)
	assert.True(t, health.Healthy)
	assert.Equal(t, 0, health.ConsecutiveFailures)
}

func TestCLIRejectsBadToken(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	_, err := r.runWithToken("wrong", "jobs", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}

func TestCLILoginThenUseSavedToken(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	_, err := r.runWithToken("", "login", adminToken)
	require.NoError(t, err)

	out, err := r.runWithToken("", "jobs", "list")
	require.NoError(t, err)
	assert.Len(t, decode[cli.JobList](t, out).Jobs, 3)
}

func TestCLIStatus(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	out, err := r.run("status")
	require.NoError(t, err)

	status := decode[cli.ConnectionStatus](t, out)
	assert.True(t, status.Connected)
	assert.Equal(t, "E2E Server", status.ServerName)
}

func TestCLIStatusConsoleDown(t *testing.T) {
	ts := startTestServer(t)
	ts.app.Console.Server.Close()
	r := newCLIRunner(t, ts.url)

	out, err := r.run("status")
	require.Error(t, err)
	assert.False(t, decode[cli.ConnectionStatus](t, out).Connected)
}

func TestCLIResolveAndVip(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	out, err := r.run("resolve", "bob123")
	require.NoError(t, err)
	player := decode[cli.Player](t, out)
	assert.Equal(t, "Bob123", player.Name)
	assert.Equal(t, bobID, player.StableID)

	out, err = r.run("vip", bobID)
	require.NoError(t, err)
	vip := decode[cli.VipStatus](t, out)
	assert.True(t, vip.IsVip)
	require.NotNil(t, vip.DaysRemaining)
	assert.Equal(t, 3, *vip.DaysRemaining)

	out, err = r.run("vip", "--name", "Bob123")
	require.NoError(t, err)
	assert.True(t, decode[cli.VipStatus](t, out).IsVip)

	_, err = r.run("resolve", "Nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLAYER_NOT_FOUND")
}

func TestCLIBroadcast(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	out, err := r.run("broadcast", "Restart in 5")
	require.NoError(t, err)
	assert.Equal(t, "banner", decode[cli.BroadcastResult](t, out).Strategy)

	calls := ts.app.Console.Calls(console.PathSetBroadcast)
	require.Len(t, calls, 1)
	assert.Equal(t, "Restart in 5", calls[0].DecodeBody(t)["message"])
}

func TestCLILinks(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	_, err := ts.app.Links.Link(context.Background(), "discord-1", "Bob123")
	require.NoError(t, err)

	out, err := r.run("links", "list")
	require.NoError(t, err)
	list := decode[cli.LinkList](t, out)
	require.Len(t, list.Links, 1)
	assert.Equal(t, bobID, list.Links[0].StableID)

	out, err = r.run("links", "get", "discord-1")
	require.NoError(t, err)
	assert.Equal(t, "Bob123", decode[cli.Link](t, out).PlayerName)

	_, err = r.run("links", "get", "discord-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINK_NOT_FOUND")
}

func TestCLILeaderboard(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	out, err := r.run("leaderboard", "--metric", "kills", "--size", "1")
	require.NoError(t, err)

	board := decode[cli.Leaderboard](t, out)
	assert.Equal(t, "kills", board.Metric)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Bob123", board.Entries[0].Name)
	assert.EqualValues(t, 7, board.Entries[0].Value)

	_, err = r.run("leaderboard", "--metric", "headshots")
	require.Error(t, err)
}

func TestCLIJobs(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	out, err := r.run("jobs", "run", factory.JobVipScan)
	require.NoError(t, err)
	job := decode[cli.Job](t, out)
	assert.Equal(t, factory.JobVipScan, job.Name)
	assert.Equal(t, 1, job.Runs)

	_, err = r.run("jobs", "run", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_NOT_FOUND")
}

func TestCLIJobFailure(t *testing.T) {
	ts := startTestServer(t)
	ts.app.Console.HandleJSON(console.PathGetVipIDs, http.StatusForbidden, `{"error": "denied"}`)
	r := newCLIRunner(t, ts.url)

	out, err := r.run("jobs", "run", factory.JobVipScan)
	require.Error(t, err)
	assert.NotEmpty(t, decode[cli.Job](t, strings.TrimSpace(out)).LastError)
}

func TestCLIEventsStream(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	_, err := ts.app.Leaderboards.Register(context.Background(), "guild-1", "chan-1", "kills", 5)
	require.NoError(t, err)

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := r.run("events", "--metric", "kills", "--count", "1")
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool {
		hub := ts.app.HubManager.GetHub("leaderboard:kills")
		return hub != nil && hub.ClientCount() > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ts.app.Scheduler.Trigger(context.Background(), factory.JobLeaderboardRefresh))

	select {
	case res := <-done:
		require.NoError(t, res.err)

		lines := strings.Split(strings.TrimSpace(res.out), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"event":"connected"`)

		event := decode[cli.SSEEvent](t, lines[1])
		assert.Equal(t, "leaderboard", event.Event)
		board := decode[cli.Leaderboard](t, string(event.Data))
		require.NotEmpty(t, board.Entries)
		assert.Equal(t, "Bob123", board.Entries[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("events command did not finish")
	}
}
