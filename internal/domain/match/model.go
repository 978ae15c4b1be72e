package match

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Source keeps one provider's raw match payload verbatim for traceability and
// re-merge.
type Source struct {
	ProviderID string    `json:"provider_id"`
	Status     string    `json:"status,omitempty"`
	HomeScore  *int      `json:"home_score,omitempty"`
	AwayScore  *int      `json:"away_score,omitempty"`
	Raw        []byte    `json:"raw,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Universal is the canonical view of one real-world match. Team and league
// fields are references into the canonical collections, never embedded
// copies.
type Universal struct {
	ID          string            `json:"id"`
	HomeTeamID  string            `json:"home_team_id"`
	AwayTeamID  string            `json:"away_team_id"`
	LeagueID    string            `json:"league_id,omitempty"`
	Date        time.Time         `json:"date"`
	Status      string            `json:"status"`
	HomeScore   *int              `json:"home_score,omitempty"`
	AwayScore   *int              `json:"away_score,omitempty"`
	Sources     map[string]Source `json:"sources"`
	Confidence  float64           `json:"confidence"`
	Verified    bool              `json:"verified"`
	LastUpdated time.Time         `json:"last_updated"`
}

func (u Universal) HasCompleteData(providers []string) bool {
	if len(providers) == 0 {
		return false
	}
	for _, provider := range providers {
		if _, ok := u.Sources[provider]; !ok {
			return false
		}
	}
	return true
}

func (u Universal) Clone() Universal {
	out := u
	out.Sources = make(map[string]Source, len(u.Sources))
	for provider, src := range u.Sources {
		copied := src
		copied.Raw = append([]byte(nil), src.Raw...)
		copied.HomeScore = cloneIntPtr(src.HomeScore)
		copied.AwayScore = cloneIntPtr(src.AwayScore)
		out.Sources[provider] = copied
	}
	out.HomeScore = cloneIntPtr(u.HomeScore)
	out.AwayScore = cloneIntPtr(u.AwayScore)
	return out
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	switch status {
	case "":
		return StatusScheduled
	case "NS", "TBD":
		return StatusScheduled
	case "IN_PLAY", "HT", "1H", "2H", "ET", "PEN_LIVE":
		return StatusLive
	case "FT", "AET", "PEN":
		return StatusFinished
	case "ABANDONED", "CANC":
		return StatusCancelled
	case "POSTP":
		return StatusPostponed
	default:
		return status
	}
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}

// NormalizedDateUTC truncates a kickoff time to the UTC day, tolerating small
// kickoff-time disagreements between providers when deriving match identity.
func NormalizedDateUTC(value time.Time) string {
	return value.UTC().Format("2006-01-02")
}

func cloneIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
