package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

const historyPageSize = 50

// DefaultStrategies returns the resolution cascade in priority order:
// online rosters first, then id lists, then direct lookups, then history.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "get_players", Probe: listProbe(console.PathGetPlayers), Parse: matchRecords},
		{Name: "get_detailed_players", Probe: listProbe(console.PathGetDetailedPlayers), Parse: matchRecords},
		{Name: "get_playerids", Probe: listProbe(console.PathGetPlayerIDs), Parse: matchRecords},
		{Name: "get_vip_ids", Probe: listProbe(console.PathGetVipIDs), Parse: matchRecords},
		{Name: "get_admin_ids", Probe: listProbe(console.PathGetAdminIDs), Parse: matchRecords},
		{Name: "get_player_info", Probe: lookupProbe(console.PathGetPlayerInfo), Parse: matchNamed},
		{Name: "get_detailed_player_info", Probe: lookupProbe(console.PathGetDetailedPlayerInfo), Parse: matchNamed},
		{Name: "get_players_history", Probe: historyProbe, Parse: matchNamed},
	}
}

func listProbe(path string) func(context.Context, Console, string) (gjson.Result, error) {
	return func(ctx context.Context, c Console, _ string) (gjson.Result, error) {
		return c.Get(ctx, path, nil)
	}
}

func lookupProbe(path string) func(context.Context, Console, string) (gjson.Result, error) {
	return func(ctx context.Context, c Console, name string) (gjson.Result, error) {
		return c.Get(ctx, path, url.Values{"player_name": {name}})
	}
}

// historyProbe asks for a loose match; exactness is enforced locally so the
// server's own casing rules cannot hide a player
func historyProbe(ctx context.Context, c Console, name string) (gjson.Result, error) {
	return c.Post(ctx, console.PathGetPlayersHistory, map[string]any{
		"player_name":      name,
		"exact_name_match": false,
		"page_size":        historyPageSize,
		"page":             1,
	})
}

// matchRecords finds an exact name match among list-shaped responses
func matchRecords(result gjson.Result, name string) (model.PlayerRecord, bool) {
	for _, rec := range console.Records(result) {
		recName := rec.Name()
		if !strings.EqualFold(recName, name) {
			continue
		}
		if id := rec.ID(); id != "" {
			return model.PlayerRecord{Name: recName, StableID: id}, true
		}
	}
	return model.PlayerRecord{}, false
}

// matchNamed also considers each record's "names" history, where entries
// are either strings or {name: ...} objects, newest first
func matchNamed(result gjson.Result, name string) (model.PlayerRecord, bool) {
	for _, rec := range console.Records(result) {
		id := rec.ID()
		if id == "" {
			continue
		}
		names := knownNames(rec)
		for _, n := range names {
			if strings.EqualFold(n, name) {
				return model.PlayerRecord{Name: n, StableID: id, DisplayName: names[0]}, true
			}
		}
	}
	return model.PlayerRecord{}, false
}

func knownNames(rec console.Record) []string {
	var names []string
	if n := rec.Name(); n != "" {
		names = append(names, n)
	}
	rec.Value.Get("names").ForEach(func(_, v gjson.Result) bool {
		n := v.String()
		if v.IsObject() {
			n = console.FirstString(v, console.NameFields...)
		}
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
		return true
	})
	return names
}
