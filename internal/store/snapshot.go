package store

import (
	"context"
	"time"

	"github.com/unifoot/unifoot/internal/domain/league"
	"github.com/unifoot/unifoot/internal/domain/match"
	"github.com/unifoot/unifoot/internal/domain/team"
	"github.com/unifoot/unifoot/internal/platform/normalize"
)

// Snapshot is a full copy of the canonical collections. The engine only
// requires that a snapshot round-trips losslessly; the backing technology is
// the Snapshotter's concern.
type Snapshot struct {
	Teams   []team.Universal   `json:"teams"`
	Leagues []league.Universal `json:"leagues"`
	Matches []match.Universal  `json:"matches"`
	SavedAt time.Time          `json:"saved_at"`
}

// Snapshotter loads the store at process start and persists checkpoints.
type Snapshotter interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

// Export copies the current state under the read lock.
func (s *Store) Export(now time.Time) Snapshot {
	return Snapshot{
		Teams:   s.AllTeams(),
		Leagues: s.AllLeagues(),
		Matches: s.AllMatches(),
		SavedAt: now,
	}
}

// Restore replaces the store contents and rebuilds every index.
func (s *Store) Restore(snapshot Snapshot) {
	fresh := New()
	for _, record := range snapshot.Teams {
		fresh.UpsertTeam(record)
	}
	for _, record := range snapshot.Leagues {
		fresh.UpsertLeague(record)
	}
	for _, record := range snapshot.Matches {
		fresh.UpsertMatch(record)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = fresh.teams
	s.leagues = fresh.leagues
	s.matches = fresh.matches
	s.teamByProvider = fresh.teamByProvider
	s.leagueByProvider = fresh.leagueByProvider
	s.matchByProvider = fresh.matchByProvider
	s.teamIDsByName = fresh.teamIDsByName
	s.leagueIDsByName = fresh.leagueIDsByName
}

func normalizedCountry(value string) string {
	return normalize.Country(value)
}
