package league

import "time"

const (
	TypeDomestic = "domestic"
	TypeCup      = "cup"
)

// Source is one provider's view of a universal league.
type Source struct {
	ProviderID string    `json:"provider_id"`
	Name       string    `json:"name"`
	LogoURL    string    `json:"logo_url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Universal is the canonical view of one competition for one season.
type Universal struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Country        string            `json:"country"`
	Season         string            `json:"season"`
	Type           string            `json:"type"`
	Active         bool              `json:"active"`
	NormalizedName string            `json:"normalized_name"`
	Sources        map[string]Source `json:"sources"`
	Confidence     float64           `json:"confidence"`
	Verified       bool              `json:"verified"`
	LastUpdated    time.Time         `json:"last_updated"`
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
		out.Sources[provider] = src
	}
	return out
}

func NormalizeType(value string) string {
	switch value {
	case TypeCup, "cup_international", "knockout":
		return TypeCup
	default:
		return TypeDomestic
	}
}
