package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestRecords(t *testing.T) {
	type pair struct{ name, id string }

	tests := []struct {
		name string
		body string
		want []pair
	}{
		{
			name: "array of name/id pairs",
			body: `[["Alice", "76561198000000002"], ["Bob123", "76561198000000001"]]`,
			want: []pair{{"Alice", "76561198000000002"}, {"Bob123", "76561198000000001"}},
		},
		{
			name: "array of objects",
			body: `[{"name": "Bob123", "player_id": "abc"}, {"player_name": "Eve", "steam_id_64": 76561198000000003}]`,
			want: []pair{{"Bob123", "abc"}, {"Eve", "76561198000000003"}},
		},
		{
			name: "players envelope with array",
			body: `{"players": [{"name": "Bob123", "steamId": "1"}]}`,
			want: []pair{{"Bob123", "1"}},
		},
		{
			name: "players envelope keyed by id",
			body: `{"players": {"76561198000000001": {"name": "Bob123"}}}`,
			want: []pair{{"Bob123", "76561198000000001"}},
		},
		{
			name: "object keyed by id with name values",
			body: `{"76561198000000001": "Bob123"}`,
			want: []pair{{"Bob123", "76561198000000001"}},
		},
		{
			name: "single player object",
			body: `{"name": "Bob123", "player_id": "76561198000000001", "names": ["Bob123", "Bobby"]}`,
			want: []pair{{"Bob123", "76561198000000001"}},
		},
		{
			name: "id field preferred in declared order",
			body: `[{"name": "Bob123", "id": "db-row-7", "player_id": "76561198000000001"}]`,
			want: []pair{{"Bob123", "76561198000000001"}},
		},
		{
			name: "scalar is not a list",
			body: `"hello"`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []pair
			for _, rec := range Records(gjson.Parse(tt.body)) {
				got = append(got, pair{rec.Name(), rec.ID()})
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstInt(t *testing.T) {
	r := gjson.Parse(`{"a": "12", "b": 7, "c": "x"}`)

	n, ok := FirstInt(r, "c", "a")
	assert.True(t, ok)
	assert.EqualValues(t, 12, n)

	n, ok = FirstInt(r, "missing", "b")
	assert.True(t, ok)
	assert.EqualValues(t, 7, n)

	_, ok = FirstInt(r, "missing")
	assert.False(t, ok)
}
