package platform

import (
	"regexp"
	"strings"

	"github.com/leighmacdonald/steamid/v4/steamid"

	"github.com/mcoot/crcon-linkbot/internal/model"
)

// steamIndividualPrefix is the leading digits of every Steam64 individual account id
const steamIndividualPrefix = "7656119"

var (
	hexIDPattern     = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
	numericIDPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Detector classifies players by platform from their stable id and name.
// Detection is total: anything unrecognised is reported as Console.
type Detector struct {
	playStationPrefixes []string
}

// New creates a Detector. When playStationPrefixes is empty, any numeric id
// outside the Steam individual-account range is treated as PlayStation.
func New(playStationPrefixes []string) *Detector {
	return &Detector{playStationPrefixes: playStationPrefixes}
}

// Detect returns the platform for a player
func (d *Detector) Detect(stableID, name string) model.Platform {
	id := strings.TrimSpace(stableID)

	if hexIDPattern.MatchString(id) {
		return model.PlatformConsole
	}

	numeric := numericIDPattern.MatchString(id)
	if numeric && d.isPlayStation(id) {
		return model.PlatformPlayStation
	}

	if strings.Contains(strings.ToLower(name), "xbox") {
		return model.PlatformXbox
	}

	if numeric && isSteam(id) {
		return model.PlatformPC
	}

	return model.PlatformConsole
}

func (d *Detector) isPlayStation(id string) bool {
	if len(d.playStationPrefixes) == 0 {
		return !isSteam(id)
	}
	for _, prefix := range d.playStationPrefixes {
		if prefix != "" && strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

func isSteam(id string) bool {
	if !strings.HasPrefix(id, steamIndividualPrefix) {
		return false
	}
	sid := steamid.New(id)
	return sid.Valid()
}
