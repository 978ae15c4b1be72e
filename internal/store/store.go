// Package store owns the canonical collections and their secondary indexes.
// A Store instance is passed explicitly to every component that needs it;
// there are no package-level registries.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/unifoot/unifoot/internal/domain/league"
	"github.com/unifoot/unifoot/internal/domain/match"
	"github.com/unifoot/unifoot/internal/domain/team"
)

// Store is the single shared mutable resource of the engine. All mutations
// take the write lock and replace whole records, so concurrent readers
// observe either the pre- or post-merge state, never a partial merge.
type Store struct {
	mu sync.RWMutex

	teams   map[string]team.Universal
	leagues map[string]league.Universal
	matches map[string]match.Universal

	teamByProvider   map[string]string
	leagueByProvider map[string]string
	matchByProvider  map[string]string

	teamIDsByName   map[string][]string
	leagueIDsByName map[string][]string
}

func New() *Store {
	return &Store{
		teams:            make(map[string]team.Universal),
		leagues:          make(map[string]league.Universal),
		matches:          make(map[string]match.Universal),
		teamByProvider:   make(map[string]string),
		leagueByProvider: make(map[string]string),
		matchByProvider:  make(map[string]string),
		teamIDsByName:    make(map[string][]string),
		leagueIDsByName:  make(map[string][]string),
	}
}

func providerKey(provider, providerID string) string {
	return strings.TrimSpace(provider) + "|" + strings.TrimSpace(providerID)
}

// UpsertTeam replaces the whole record and refreshes its index entries.
func (s *Store) UpsertTeam(record team.Universal) {
	if record.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.teams[record.ID]
	if existed {
		for provider, src := range previous.Sources {
			delete(s.teamByProvider, providerKey(provider, src.ProviderID))
		}
		s.teamIDsByName[previous.NormalizedName] = removeID(s.teamIDsByName[previous.NormalizedName], record.ID)
	}

	stored := record.Clone()
	s.teams[record.ID] = stored
	for provider, src := range stored.Sources {
		s.teamByProvider[providerKey(provider, src.ProviderID)] = stored.ID
	}
	if stored.NormalizedName != "" {
		s.teamIDsByName[stored.NormalizedName] = appendID(s.teamIDsByName[stored.NormalizedName], stored.ID)
	}
}

func (s *Store) GetTeam(id string) (team.Universal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.teams[id]
	if !ok {
		return team.Universal{}, false
	}
	return record.Clone(), true
}

func (s *Store) TeamByProvider(provider, providerID string) (team.Universal, bool) {
	s.mu.RLock()
	id, ok := s.teamByProvider[providerKey(provider, providerID)]
	if !ok {
		s.mu.RUnlock()
		return team.Universal{}, false
	}
	record := s.teams[id]
	s.mu.RUnlock()
	return record.Clone(), true
}

// TeamCandidates returns every team whose country key matches, for fuzzy
// scoring against a new provider record.
func (s *Store) TeamCandidates(countryKey string) []team.Universal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]team.Universal, 0, 16)
	for _, record := range s.teams {
		if countryKey != "" && record.Country != "" && normalizedCountry(record.Country) != countryKey {
			continue
		}
		out = append(out, record.Clone())
	}
	sortTeams(out)
	return out
}

func (s *Store) TeamsByNormalizedName(key string) []team.Universal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.teamIDsByName[key]
	out := make([]team.Universal, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.teams[id].Clone())
	}
	sortTeams(out)
	return out
}

// TeamIDTaken reports whether the id belongs to a different logical team.
func (s *Store) TeamIDTaken(id, normalizedName, countryKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.teams[id]
	if !ok {
		return false
	}
	return existing.NormalizedName != normalizedName || normalizedCountry(existing.Country) != countryKey
}

func (s *Store) AllTeams() []team.Universal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]team.Universal, 0, len(s.teams))
	for _, record := range s.teams {
		out = append(out, record.Clone())
	}
	sortTeams(out)
	return out
}

func (s *Store) UpsertLeague(record league.Universal) {
	if record.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.leagues[record.ID]
	if existed {
		for provider, src := range previous.Sources {
			delete(s.leagueByProvider, providerKey(provider, src.ProviderID))
		}
		s.leagueIDsByName[previous.NormalizedName] = removeID(s.leagueIDsByName[previous.NormalizedName], record.ID)
	}

	stored := record.Clone()
	s.leagues[record.ID] = stored
	for provider, src := range stored.Sources {
		s.leagueByProvider[providerKey(provider, src.ProviderID)] = stored.ID
	}
	if stored.NormalizedName != "" {
		s.leagueIDsByName[stored.NormalizedName] = appendID(s.leagueIDsByName[stored.NormalizedName], stored.ID)
	}
}

func (s *Store) GetLeague(id string) (league.Universal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.leagues[id]
	if !ok {
		return league.Universal{}, false
	}
	return record.Clone(), true
}

func (s *Store) LeagueByProvider(provider, providerID string) (league.Universal, bool) {
	s.mu.RLock()
	id, ok := s.leagueByProvider[providerKey(provider, providerID)]
	if !ok {
		s.mu.RUnlock()
		return league.Universal{}, false
	}
	record := s.leagues[id]
	s.mu.RUnlock()
	return record.Clone(), true
}

func (s *Store) LeagueCandidates(countryKey string) []league.Universal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]league.Universal, 0, 8)
	for _, record := range s.leagues {
		if countryKey != "" && record.Country != "" && normalizedCountry(record.Country) != countryKey {
			continue
		}
		out = append(out, record.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) LeagueIDTaken(id, normalizedName, countryKey, season string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.leagues[id]
	if !ok {
		return false
	}
	return existing.NormalizedName != normalizedName ||
		normalizedCountry(existing.Country) != countryKey ||
		existing.Season != season
}

func (s *Store) AllLeagues() []league.Universal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]league.Universal, 0, len(s.leagues))
	for _, record := range s.leagues {
		out = append(out, record.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) UpsertMatch(record match.Universal) {
	if record.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.matches[record.ID]
	if existed {
		for provider, src := range previous.Sources {
			delete(s.matchByProvider, providerKey(provider, src.ProviderID))
		}
	}

	stored := record.Clone()
	s.matches[record.ID] = stored
	for provider, src := range stored.Sources {
		s.matchByProvider[providerKey(provider, src.ProviderID)] = stored.ID
	}
}

func (s *Store) GetMatch(id string) (match.Universal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.matches[id]
	if !ok {
		return match.Universal{}, false
	}
	return record.Clone(), true
}

func (s *Store) MatchByProvider(provider, providerID string) (match.Universal, bool) {
	s.mu.RLock()
	id, ok := s.matchByProvider[providerKey(provider, providerID)]
	if !ok {
		s.mu.RUnlock()
		return match.Universal{}, false
	}
	record := s.matches[id]
	s.mu.RUnlock()
	return record.Clone(), true
}

func (s *Store) MatchIDTaken(id, homeTeamID, awayTeamID, dateUTC string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.matches[id]
	if !ok {
		return false
	}
	return existing.HomeTeamID != homeTeamID ||
		existing.AwayTeamID != awayTeamID ||
		match.NormalizedDateUTC(existing.Date) != dateUTC
}

func (s *Store) AllMatches() []match.Universal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]match.Universal, 0, len(s.matches))
	for _, record := range s.matches {
		out = append(out, record.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortTeams(items []team.Universal) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

func appendID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
