package discord

import (
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/crcon-linkbot/internal/commands"
)

// applicationCommands converts command definitions to Discord's registration format
func applicationCommands(defs []commands.Definition) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, def := range defs {
		cmd := &discordgo.ApplicationCommand{
			Name:        def.Name,
			Description: def.Description,
		}
		if len(def.Subcommands) > 0 {
			for _, sub := range def.Subcommands {
				cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        sub.Name,
					Description: sub.Description,
					Options:     commandOptions(sub.Options),
				})
			}
		} else {
			cmd.Options = commandOptions(def.Options)
		}
		out = append(out, cmd)
	}
	return out
}

func commandOptions(opts []commands.Option) []*discordgo.ApplicationCommandOption {
	var out []*discordgo.ApplicationCommandOption
	for _, opt := range opts {
		o := &discordgo.ApplicationCommandOption{
			Name:        opt.Name,
			Description: opt.Description,
			Required:    opt.Required,
			Type:        discordgo.ApplicationCommandOptionString,
		}
		if opt.Type == commands.OptionInteger {
			o.Type = discordgo.ApplicationCommandOptionInteger
			if opt.MinValue != 0 {
				minValue := float64(opt.MinValue)
				o.MinValue = &minValue
			}
			if opt.MaxValue != 0 {
				o.MaxValue = float64(opt.MaxValue)
			}
		}
		for _, choice := range opt.Choices {
			o.Choices = append(o.Choices, &discordgo.ApplicationCommandOptionChoice{Name: choice, Value: choice})
		}
		out = append(out, o)
	}
	return out
}

// invocation builds a command invocation from an interaction
func invocation(i *discordgo.InteractionCreate, adminRoleID string) commands.Invocation {
	data := i.ApplicationCommandData()
	inv := commands.Invocation{
		Command:   data.Name,
		Options:   make(map[string]string),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	}

	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		inv.Subcommand = opts[0].Name
		opts = opts[0].Options
	}
	for _, opt := range opts {
		inv.Options[opt.Name] = optionString(opt)
	}

	switch {
	case i.Member != nil:
		if i.Member.User != nil {
			inv.UserID = i.Member.User.ID
		}
		inv.IsAdmin = isAdmin(i.Member, adminRoleID)
	case i.User != nil:
		inv.UserID = i.User.ID
	}
	return inv
}

func optionString(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionInteger:
		return strconv.FormatInt(opt.IntValue(), 10)
	case discordgo.ApplicationCommandOptionBoolean:
		return strconv.FormatBool(opt.BoolValue())
	case discordgo.ApplicationCommandOptionString:
		return opt.StringValue()
	default:
		if s, ok := opt.Value.(string); ok {
			return s
		}
		return ""
	}
}

// isAdmin is true for members holding the admin role or the Administrator permission.
// Commands used outside a guild never have admin rights.
func isAdmin(member *discordgo.Member, adminRoleID string) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if adminRoleID == "" {
		return false
	}
	for _, role := range member.Roles {
		if role == adminRoleID {
			return true
		}
	}
	return false
}

func messageEmbed(e commands.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		value := f.Value
		if value == "" {
			value = "-"
		}
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: value, Inline: f.Inline})
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}

func messageEmbeds(embeds []commands.Embed) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, len(embeds))
	for i, e := range embeds {
		out[i] = messageEmbed(e)
	}
	return out
}
