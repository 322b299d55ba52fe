package console

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Console responses vary by server version, so identity and name fields are
// probed from these candidate lists in order.
var (
	IDFields   = []string{"player_id", "steam_id_64", "steamId", "steam_id", "playerId", "id"}
	NameFields = []string{"name", "player_name", "player", "display_name"}
)

var envelopeKeys = []string{"players", "stats", "vips", "data", "items"}

// Record is one player-like entry found in a console response
type Record struct {
	Value gjson.Result
	Key   string // set when the entry came from an object keyed by id
}

// ID returns the record's stable identifier, or "" if none is present
func (r Record) ID() string {
	if r.Value.IsArray() {
		if arr := r.Value.Array(); len(arr) >= 2 {
			return strings.TrimSpace(arr[1].String())
		}
		return ""
	}
	if r.Value.IsObject() {
		if id := FirstString(r.Value, IDFields...); id != "" {
			return id
		}
	}
	return r.Key
}

// Name returns the record's display name, or "" if none is present
func (r Record) Name() string {
	switch {
	case r.Value.IsArray():
		if arr := r.Value.Array(); len(arr) >= 1 {
			return strings.TrimSpace(arr[0].String())
		}
		return ""
	case r.Value.Type == gjson.String:
		return strings.TrimSpace(r.Value.String())
	case r.Value.IsObject():
		return FirstString(r.Value, NameFields...)
	}
	return ""
}

// Records flattens the response shapes the console uses for player lists:
// arrays of objects or [name,id] pairs, {players: ...} envelopes, objects
// keyed by id, and a lone player object.
func Records(r gjson.Result) []Record {
	switch {
	case r.IsArray():
		var out []Record
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, Record{Value: v})
			return true
		})
		return out
	case r.IsObject():
		for _, key := range envelopeKeys {
			if inner := r.Get(key); inner.IsArray() || inner.IsObject() {
				return Records(inner)
			}
		}
		if looksLikeRecord(r) {
			return []Record{{Value: r}}
		}
		var out []Record
		r.ForEach(func(k, v gjson.Result) bool {
			if v.IsObject() || v.Type == gjson.String {
				out = append(out, Record{Value: v, Key: k.String()})
			}
			return true
		})
		return out
	}
	return nil
}

func looksLikeRecord(r gjson.Result) bool {
	for _, f := range IDFields {
		if v := r.Get(f); v.Exists() && !v.IsObject() && !v.IsArray() {
			return true
		}
	}
	for _, f := range NameFields {
		if v := r.Get(f); v.Type == gjson.String {
			return true
		}
	}
	return false
}

// FirstString returns the first non-empty scalar among fields.
// Integer ids keep their exact digits.
func FirstString(r gjson.Result, fields ...string) string {
	for _, f := range fields {
		v := r.Get(f)
		if !v.Exists() || v.Type == gjson.Null || v.IsObject() || v.IsArray() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// FirstInt returns the first field that holds an integer, as a number or numeric string
func FirstInt(r gjson.Result, fields ...string) (int64, bool) {
	for _, f := range fields {
		v := r.Get(f)
		switch v.Type {
		case gjson.Number:
			return v.Int(), true
		case gjson.String:
			if n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
