package core

import (
	"strings"
	"time"
)

// UserMemory holds the structured facts the agent has accumulated about a
// user within a session. It is distinct from the raw conversation log:
// the log records what was said, UserMemory records what was learned.
//
// UserMemory is mutable by replacement only: stages never modify a record in
// place, they produce a new one via Merge.
type UserMemory struct {
	// Name is the user's name. Last write wins.
	Name string `json:"name,omitempty"`

	// Facts accumulate with set-union semantics: duplicates are suppressed
	// and first-seen order is preserved.
	Facts []string `json:"facts,omitempty"`

	// Preferences accumulate under the same rule as Facts.
	Preferences []string `json:"preferences,omitempty"`

	// LastUpdated advances on every merge, whether or not content changed.
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// IsEmpty reports whether the memory carries no content. LastUpdated is
// bookkeeping, not content, so it is ignored here.
func (m UserMemory) IsEmpty() bool {
	return m.Name == "" && len(m.Facts) == 0 && len(m.Preferences) == 0
}

// Clone returns a copy that shares no slice storage with m.
func (m UserMemory) Clone() UserMemory {
	out := m
	out.Facts = append([]string(nil), m.Facts...)
	out.Preferences = append([]string(nil), m.Preferences...)
	return out
}

// Merge combines a base memory with a partial update. List fields take the
// deduplicated union (base entries first, then unseen update entries, by
// exact string equality). The name is overwritten only when the update
// carries a non-empty trimmed name. LastUpdated is always set to the current
// time, so Merge is commutative and idempotent on content but not on
// LastUpdated. Total over any well-formed inputs, including an empty update.
func Merge(base, update UserMemory) UserMemory {
	out := UserMemory{
		Name:        base.Name,
		Facts:       unionStrings(base.Facts, update.Facts),
		Preferences: unionStrings(base.Preferences, update.Preferences),
		LastUpdated: time.Now(),
	}
	if name := strings.TrimSpace(update.Name); name != "" {
		out.Name = name
	}
	return out
}

func unionStrings(base, extra []string) []string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, lst := range [][]string{base, extra} {
		for _, s := range lst {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
