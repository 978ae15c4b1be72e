package team

import (
	"sort"
	"time"
)

// Source is one provider's view of a universal team. A provider occupies at
// most one slot; a fresh payload for the same provider overwrites it.
type Source struct {
	ProviderID string    `json:"provider_id"`
	Name       string    `json:"name"`
	LogoURL    string    `json:"logo_url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Universal is the canonical, deduplicated view of one real-world club.
type Universal struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Country        string            `json:"country"`
	NormalizedName string            `json:"normalized_name"`
	Sources        map[string]Source `json:"sources"`
	Leagues        []string          `json:"leagues,omitempty"`
	Confidence     float64           `json:"confidence"`
	Verified       bool              `json:"verified"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// HasCompleteData reports whether every configured provider has contributed a
// source entry. Derived, never stored.
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

// AddLeague accumulates a league reference. The set never shrinks.
func (u *Universal) AddLeague(leagueID string) {
	if leagueID == "" {
		return
	}
	for _, existing := range u.Leagues {
		if existing == leagueID {
			return
		}
	}
	u.Leagues = append(u.Leagues, leagueID)
	sort.Strings(u.Leagues)
}

// Clone returns a deep copy so readers never alias store-owned state.
func (u Universal) Clone() Universal {
	out := u
	out.Sources = make(map[string]Source, len(u.Sources))
	for provider, src := range u.Sources {
		out.Sources[provider] = src
	}
	out.Leagues = append([]string(nil), u.Leagues...)
	return out
}
