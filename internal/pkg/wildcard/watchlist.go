package wildcard

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/endorses/wildscan/internal/pkg/logger"
)

// Watchlist provides a double-buffered pattern Set for lock-free reads and
// background rebuilds, so the pattern list can change while streams are
// being scanned.
//
// Key features:
//   - Lock-free snapshot reads via atomic.Pointer
//   - Background rebuilds that never block matcher creation
//   - Matchers created before an update keep the Set they started with
type Watchlist struct {
	// set is the current compiled Set. nil means nothing has been built
	// or the entry list is empty.
	set atomic.Pointer[Set]

	// entries stores the current entry list for rebuilding.
	entries []Entry

	// entriesMu protects entries during updates.
	entriesMu sync.RWMutex

	// buildMu ensures only one rebuild runs at a time.
	buildMu sync.Mutex

	// building indicates a rebuild is in progress.
	building atomic.Bool

	lastBuildTime     atomic.Value // time.Time
	lastBuildDuration atomic.Value // time.Duration
}

// NewWatchlist creates an empty Watchlist.
func NewWatchlist() *Watchlist {
	w := &Watchlist{}
	w.lastBuildTime.Store(time.Time{})
	w.lastBuildDuration.Store(time.Duration(0))
	return w
}

// UpdateEntries replaces the entry list and rebuilds in the background.
// Until the rebuild finishes, NewMatcher keeps using the previous Set.
func (w *Watchlist) UpdateEntries(entries []Entry) {
	w.storeEntries(entries)
	go func() {
		_ = w.rebuild()
	}()
}

// UpdateEntriesSync replaces the entry list and waits for the rebuild.
// On error the previous Set stays active.
func (w *Watchlist) UpdateEntriesSync(entries []Entry) error {
	w.storeEntries(entries)
	return w.rebuild()
}

func (w *Watchlist) storeEntries(entries []Entry) {
	w.entriesMu.Lock()
	w.entries = make([]Entry, len(entries))
	copy(w.entries, entries)
	w.entriesMu.Unlock()
}

// rebuild compiles the current entries and swaps the result in atomically.
func (w *Watchlist) rebuild() error {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	w.building.Store(true)
	defer w.building.Store(false)

	w.entriesMu.RLock()
	entries := make([]Entry, len(w.entries))
	copy(entries, w.entries)
	w.entriesMu.RUnlock()

	if len(entries) == 0 {
		w.set.Store(nil)
		logger.Debug("Cleared wildcard set (no patterns)")
		return nil
	}

	startTime := time.Now()
	set, err := CompileSet(entries)
	if err != nil {
		logger.Error("Failed to build wildcard set", "error", err, "pattern_count", len(entries))
		return err
	}
	buildDuration := time.Since(startTime)

	w.set.Store(set)
	w.lastBuildTime.Store(time.Now())
	w.lastBuildDuration.Store(buildDuration)

	logger.Info("Wildcard set rebuilt",
		"pattern_count", len(entries),
		"build_duration", buildDuration,
		"state_count", set.StateCount())

	return nil
}

// Set returns the current compiled Set, or nil if none is available.
func (w *Watchlist) Set() *Set {
	return w.set.Load()
}

// NewMatcher returns a matcher over the current Set, or nil if none is
// available.
func (w *Watchlist) NewMatcher() *SetMatcher {
	set := w.set.Load()
	if set == nil {
		return nil
	}
	return set.NewMatcher()
}

// EntryCount returns the number of entries currently configured.
func (w *Watchlist) EntryCount() int {
	w.entriesMu.RLock()
	defer w.entriesMu.RUnlock()
	return len(w.entries)
}

// IsBuilding returns true if a rebuild is currently in progress.
func (w *Watchlist) IsBuilding() bool {
	return w.building.Load()
}

// HasSet returns true if a compiled Set is available.
func (w *Watchlist) HasSet() bool {
	return w.set.Load() != nil
}

// LastBuildTime returns when the Set was last built.
func (w *Watchlist) LastBuildTime() time.Time {
	if t := w.lastBuildTime.Load(); t != nil {
		return t.(time.Time)
	}
	return time.Time{}
}

// LastBuildDuration returns how long the last build took.
func (w *Watchlist) LastBuildDuration() time.Duration {
	if d := w.lastBuildDuration.Load(); d != nil {
		return d.(time.Duration)
	}
	return 0
}

// Stats describes the state of a Watchlist.
type Stats struct {
	EntryCount        int
	HasSet            bool
	IsBuilding        bool
	LastBuildTime     time.Time
	LastBuildDuration time.Duration
	StateCount        int
}

// GetStats returns current statistics.
func (w *Watchlist) GetStats() Stats {
	set := w.set.Load()
	stateCount := 0
	if set != nil {
		stateCount = set.StateCount()
	}

	return Stats{
		EntryCount:        w.EntryCount(),
		HasSet:            set != nil,
		IsBuilding:        w.IsBuilding(),
		LastBuildTime:     w.LastBuildTime(),
		LastBuildDuration: w.LastBuildDuration(),
		StateCount:        stateCount,
	}
}
