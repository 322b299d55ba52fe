package redis

// keyspace builds keys under one prefix
type keyspace string

func (k keyspace) key(parts ...string) string {
	out := string(k)
	for _, p := range parts {
		out += ":" + p
	}
	return out
}

// link holds one LinkRecord as JSON
func (k keyspace) link(discordID string) string { return k.key("link", discordID) }

// stableIndex maps a stable player id back to the linked discord id
func (k keyspace) stableIndex(stableID string) string {
	return k.key("idx", "stable_id", stableID)
}

// links is the SET of linked discord ids
func (k keyspace) links() string { return k.key("links") }

func (k keyspace) contest(id string) string { return k.key("contest", id) }

func (k keyspace) contests() string { return k.key("contests") }

func (k keyspace) leaderboard(channelID string) string { return k.key("leaderboard", channelID) }

func (k keyspace) leaderboards() string { return k.key("leaderboards") }
