// Package source models raw provider payloads as typed, tagged records so the
// merge logic stays exhaustive per provider instead of poking at open-ended
// maps.
package source

import (
	"fmt"
	"strings"
	"time"
)

// LeagueRecord is one league as a single provider reports it.
type LeagueRecord struct {
	Provider   string
	ProviderID string
	Name       string
	Country    string
	Season     string
	Type       string
	Active     bool
	LogoURL    string
	Raw        []byte
}

func (r LeagueRecord) Validate() error {
	if strings.TrimSpace(r.Provider) == "" {
		return fmt.Errorf("league record provider is required")
	}
	if strings.TrimSpace(r.ProviderID) == "" {
		return fmt.Errorf("league record provider id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("league record name is required")
	}
	return nil
}

// TeamRecord is one team as a single provider reports it.
type TeamRecord struct {
	Provider         string
	ProviderID       string
	Name             string
	Country          string
	LogoURL          string
	LeagueProviderID string
	Raw              []byte
}

func (r TeamRecord) Validate() error {
	if strings.TrimSpace(r.Provider) == "" {
		return fmt.Errorf("team record provider is required")
	}
	if strings.TrimSpace(r.ProviderID) == "" {
		return fmt.Errorf("team record provider id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("team record name is required")
	}
	return nil
}

// MatchRecord is one match as a single provider reports it. Team and league
// references use the provider's own ids; resolution to universal ids happens
// in the merge step.
type MatchRecord struct {
	Provider           string
	ProviderID         string
	HomeTeamProviderID string
	AwayTeamProviderID string
	HomeTeamName       string
	AwayTeamName       string
	LeagueProviderID   string
	KickoffAt          time.Time
	Status             string
	HomeScore          *int
	AwayScore          *int
	UpdatedAt          time.Time
	Raw                []byte
}

func (r MatchRecord) Validate() error {
	if strings.TrimSpace(r.Provider) == "" {
		return fmt.Errorf("match record provider is required")
	}
	if strings.TrimSpace(r.ProviderID) == "" {
		return fmt.Errorf("match record provider id is required")
	}
	if r.KickoffAt.IsZero() {
		return fmt.Errorf("match record kickoff time is required")
	}
	return nil
}
