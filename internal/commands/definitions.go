package commands

import "github.com/mcoot/crcon-linkbot/internal/model"

// OptionType is the value type of a command option
type OptionType int

const (
	OptionString OptionType = iota
	OptionInteger
)

// Option describes one command argument
type Option struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
	Choices     []string
	MinValue    int
	MaxValue    int
}

// Definition describes a command or subcommand.
// Admin and Ephemeral are taken from the leaf that runs.
type Definition struct {
	Name        string
	Description string
	Admin       bool
	Ephemeral   bool
	Options     []Option
	Subcommands []Definition
}

func metricChoices() []string {
	out := make([]string, len(model.Metrics))
	for i, m := range model.Metrics {
		out[i] = string(m)
	}
	return out
}

// Definitions lists every command the bot registers
func Definitions() []Definition {
	return []Definition{
		{
			Name:        "link",
			Description: "Link your Discord account to your in-game player",
			Ephemeral:   true,
			Options: []Option{
				{Name: "name", Description: "Your exact in-game name", Type: OptionString, Required: true},
			},
		},
		{Name: "unlink", Description: "Remove your linked player", Ephemeral: true},
		{Name: "vip", Description: "Show your VIP status", Ephemeral: true},
		{Name: "status", Description: "Show your linked player and VIP status", Ephemeral: true},
		{
			Name:        "whois",
			Description: "Look up a player by name",
			Admin:       true,
			Ephemeral:   true,
			Options: []Option{
				{Name: "name", Description: "Exact in-game name", Type: OptionString, Required: true},
			},
		},
		{
			Name:        "broadcast",
			Description: "Send a message to everyone on the server",
			Admin:       true,
			Options: []Option{
				{Name: "message", Description: "Message text", Type: OptionString, Required: true},
			},
		},
		{
			Name:        "contest",
			Description: "Run a giveaway among linked players",
			Subcommands: []Definition{
				{
					Name:        "start",
					Description: "Start a contest in this channel",
					Admin:       true,
					Options: []Option{
						{Name: "title", Description: "Contest title", Type: OptionString, Required: true},
						{Name: "minutes", Description: "How long entries stay open", Type: OptionInteger, Required: true, MinValue: 1, MaxValue: 10080},
						{Name: "winners", Description: "Number of winners", Type: OptionInteger, MinValue: 1, MaxValue: 25},
						{Name: "prize", Description: "What the winners get", Type: OptionString},
						{Name: "description", Description: "Extra details", Type: OptionString},
					},
				},
				{
					Name:        "enter",
					Description: "Enter the running contest",
					Ephemeral:   true,
					Options: []Option{
						{Name: "code", Description: "Contest code", Type: OptionString},
					},
				},
				{Name: "end", Description: "End the running contest and draw winners", Admin: true},
				{Name: "cancel", Description: "Cancel the running contest without winners", Admin: true},
				{Name: "info", Description: "Show the running contest"},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Manage auto-refreshing leaderboards",
			Subcommands: []Definition{
				{
					Name:        "add",
					Description: "Post a leaderboard in this channel and keep it updated",
					Admin:       true,
					Ephemeral:   true,
					Options: []Option{
						{Name: "metric", Description: "Stat to rank by", Type: OptionString, Required: true, Choices: metricChoices()},
						{Name: "size", Description: "Number of rows", Type: OptionInteger, MinValue: 1, MaxValue: 25},
					},
				},
				{Name: "remove", Description: "Stop updating this channel's leaderboard", Admin: true, Ephemeral: true},
				{Name: "refresh", Description: "Refresh every leaderboard now", Admin: true, Ephemeral: true},
			},
		},
	}
}

// Lookup finds the leaf definition for a command and optional subcommand
func Lookup(command, subcommand string) (Definition, bool) {
	for _, def := range Definitions() {
		if def.Name != command {
			continue
		}
		if len(def.Subcommands) == 0 {
			return def, subcommand == ""
		}
		for _, sub := range def.Subcommands {
			if sub.Name == subcommand {
				return sub, true
			}
		}
		return Definition{}, false
	}
	return Definition{}, false
}
