package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	headColor = color.New(color.Bold)
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "%s %s\n", errColor.Sprint("Error:"), err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealth(v)
	case ConnectionStatus:
		o.printConnection(v)
	case Player:
		o.printPlayer(v)
	case VipStatus:
		o.printVip(v)
	case BroadcastResult:
		o.printBroadcast(v)
	case Link:
		o.printLink(v)
	case LinkList:
		o.printLinks(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case Job:
		o.printJob(v)
	case JobList:
		o.printJobs(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status              string     `json:"status"`
	Healthy             bool       `json:"healthy"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
}

// ConnectionStatus response type
type ConnectionStatus struct {
	Connected   bool   `json:"connected"`
	ServerName  string `json:"server_name,omitempty"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Error       string `json:"error,omitempty"`
}

// Player response type
type Player struct {
	Name        string `json:"name"`
	StableID    string `json:"stable_id"`
	DisplayName string `json:"display_name"`
	Platform    string `json:"platform,omitempty"`
	Source      string `json:"source"`
}

// VipStatus response type
type VipStatus struct {
	StableID      string     `json:"stable_id"`
	IsVip         bool       `json:"is_vip"`
	Permanent     bool       `json:"permanent"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
	Description   string     `json:"description,omitempty"`
}

// BroadcastResult response type
type BroadcastResult struct {
	Strategy   string `json:"strategy"`
	Recipients int    `json:"recipients"`
}

// Link response type
type Link struct {
	DiscordID  string    `json:"discord_id"`
	PlayerName string    `json:"player_name"`
	StableID   string    `json:"stable_id"`
	Platform   string    `json:"platform,omitempty"`
	LinkedAt   time.Time `json:"linked_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	WasVip     bool      `json:"was_vip"`
}

// LinkList response type
type LinkList struct {
	Links []Link `json:"links"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	StableID string `json:"stable_id,omitempty"`
	Value    int64  `json:"value"`
}

// Leaderboard response type
type Leaderboard struct {
	Metric      string             `json:"metric"`
	GeneratedAt time.Time          `json:"generated_at"`
	Entries     []LeaderboardEntry `json:"entries"`
}

// Job response type
type Job struct {
	Name           string     `json:"name"`
	Interval       string     `json:"interval"`
	Running        bool       `json:"running"`
	Runs           int        `json:"runs"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastDurationMs int64      `json:"last_duration_ms"`
	LastError      string     `json:"last_error,omitempty"`
}

// JobList response type
type JobList struct {
	Jobs []Job `json:"jobs"`
}

const timeLayout = "2006-01-02 15:04:05"

func (o *Output) printHealth(h HealthResult) {
	status := okColor.Sprint(h.Status)
	if !h.Healthy {
		status = errColor.Sprint(h.Status)
	}
	fmt.Fprintf(o.w, "Status: %s\n", status)
	fmt.Fprintf(o.w, "Consecutive failures: %d\n", h.ConsecutiveFailures)
	if h.LastSuccessAt != nil {
		fmt.Fprintf(o.w, "Last success: %s\n", h.LastSuccessAt.Local().Format(timeLayout))
	}
	if h.LastFailureAt != nil {
		fmt.Fprintf(o.w, "Last failure: %s\n", h.LastFailureAt.Local().Format(timeLayout))
	}
}

func (o *Output) printConnection(c ConnectionStatus) {
	if !c.Connected {
		fmt.Fprintf(o.w, "Console: %s\n", errColor.Sprint("unreachable"))
		if c.Error != "" {
			fmt.Fprintf(o.w, "Error: %s\n", c.Error)
		}
		return
	}
	fmt.Fprintf(o.w, "Console: %s\n", okColor.Sprint("connected"))
	if c.ServerName != "" {
		fmt.Fprintf(o.w, "Server: %s\n", c.ServerName)
	}
	fmt.Fprintf(o.w, "Players: %d/%d\n", c.PlayerCount, c.MaxPlayers)
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s\n", headColor.Sprint(p.DisplayName))
	fmt.Fprintf(o.w, "Player ID: %s\n", p.StableID)
	if p.Platform != "" {
		fmt.Fprintf(o.w, "Platform: %s\n", p.Platform)
	}
	fmt.Fprintf(o.w, "Found via: %s\n", p.Source)
}

func (o *Output) printVip(v VipStatus) {
	fmt.Fprintf(o.w, "Player ID: %s\n", v.StableID)
	switch {
	case !v.IsVip:
		fmt.Fprintf(o.w, "VIP: %s\n", warnColor.Sprint("no"))
	case v.Permanent:
		fmt.Fprintf(o.w, "VIP: %s\n", okColor.Sprint("permanent"))
	default:
		fmt.Fprintf(o.w, "VIP: %s\n", okColor.Sprint("yes"))
		if v.ExpiresAt != nil {
			fmt.Fprintf(o.w, "Expires: %s\n", v.ExpiresAt.Local().Format(timeLayout))
		}
		if v.DaysRemaining != nil {
			fmt.Fprintf(o.w, "Days left: %d\n", *v.DaysRemaining)
		}
	}
	if v.Description != "" {
		fmt.Fprintf(o.w, "Note: %s\n", v.Description)
	}
}

func (o *Output) printBroadcast(b BroadcastResult) {
	fmt.Fprintf(o.w, "Delivered via %s", okColor.Sprint(b.Strategy))
	if b.Recipients > 0 {
		fmt.Fprintf(o.w, " to %d players", b.Recipients)
	}
	fmt.Fprintln(o.w)
}

func (o *Output) printLink(l Link) {
	fmt.Fprintf(o.w, "Discord user: %s\n", l.DiscordID)
	fmt.Fprintf(o.w, "Player: %s (%s)\n", headColor.Sprint(l.PlayerName), l.StableID)
	if l.Platform != "" {
		fmt.Fprintf(o.w, "Platform: %s\n", l.Platform)
	}
	fmt.Fprintf(o.w, "Linked: %s\n", l.LinkedAt.Local().Format(timeLayout))
}

func (o *Output) printLinks(list LinkList) {
	if len(list.Links) == 0 {
		fmt.Fprintln(o.w, "No linked players")
		return
	}
	for _, l := range list.Links {
		vip := ""
		if l.WasVip {
			vip = okColor.Sprint(" [VIP]")
		}
		fmt.Fprintf(o.w, "%-20s  %-24s  %s%s\n", l.DiscordID, l.PlayerName, l.StableID, vip)
	}
}

func (o *Output) printLeaderboard(b Leaderboard) {
	fmt.Fprintf(o.w, "%s (%s)\n", headColor.Sprint("Top players by "+b.Metric), b.GeneratedAt.Local().Format(timeLayout))
	if len(b.Entries) == 0 {
		fmt.Fprintln(o.w, "No stats yet")
		return
	}
	width := 0
	for _, e := range b.Entries {
		width = max(width, len(e.Name))
	}
	for _, e := range b.Entries {
		fmt.Fprintf(o.w, "%3d. %s  %d\n", e.Rank, e.Name+strings.Repeat(" ", width-len(e.Name)), e.Value)
	}
}

func (o *Output) printJob(j Job) {
	state := "idle"
	if j.Running {
		state = warnColor.Sprint("running")
	}
	fmt.Fprintf(o.w, "%-20s  every %-8s  %-7s  runs: %d", j.Name, j.Interval, state, j.Runs)
	if j.LastRunAt != nil {
		fmt.Fprintf(o.w, "  last: %s (%dms)", j.LastRunAt.Local().Format(timeLayout), j.LastDurationMs)
	}
	fmt.Fprintln(o.w)
	if j.LastError != "" {
		fmt.Fprintf(o.w, "  %s %s\n", errColor.Sprint("last error:"), j.LastError)
	}
}

func (o *Output) printJobs(list JobList) {
	for _, j := range list.Jobs {
		o.printJob(j)
	}
}
