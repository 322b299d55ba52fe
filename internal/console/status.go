package console

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mcoot/crcon-linkbot/internal/model"
)

// TestConnection probes the console status endpoint. It never returns an
// error; failures are reported in the status.
func (e *Executor) TestConnection(ctx context.Context) model.ConnectionStatus {
	result, err := e.Get(ctx, PathGetStatus, nil)
	if err != nil {
		e.logger.Warn("console connection test failed", slog.Any("error", err))
		return model.ConnectionStatus{Connected: false, Error: err.Error()}
	}

	status := model.ConnectionStatus{
		Connected:  true,
		ServerName: FirstString(result, "name", "server_name", "short_name"),
	}
	status.PlayerCount, status.MaxPlayers = playerCounts(result)
	return status
}

func playerCounts(r gjson.Result) (int, int) {
	current, hasCurrent := FirstInt(r, "player_count", "current_players", "nb_players")
	maxPlayers, _ := FirstInt(r, "max_players", "max_player_count")

	// older servers report "players": "12/100"
	if players := r.Get("players"); players.Type == gjson.String {
		if cur, limit, ok := strings.Cut(players.Str, "/"); ok {
			if !hasCurrent {
				if n, err := strconv.Atoi(strings.TrimSpace(cur)); err == nil {
					current = int64(n)
				}
			}
			if maxPlayers == 0 {
				if n, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil {
					maxPlayers = int64(n)
				}
			}
		}
	}
	return int(current), int(maxPlayers)
}
