package timeline

import (
	"context"
	"sort"
	"time"

	"github.com/watchloop/observatory/internal/syncx"
	"github.com/watchloop/observatory/internal/trace"
)

// RetentionPolicy controls how aggressively old events are dropped from
// the timeline.
type RetentionPolicy struct {
	MaxTimelineDuration time.Duration
	MaxEventsPerType    int
	AutoCleanupEnabled  bool
	CleanupInterval     time.Duration
}

// DefaultRetentionPolicy matches the teacher's retained-history defaults.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MaxTimelineDuration: 24 * time.Hour,
		MaxEventsPerType:    10000,
		AutoCleanupEnabled:  true,
		CleanupInterval:     time.Hour,
	}
}

// CompactionConfig controls when nearby events get snapped into shared
// time buckets to bound memory growth.
type CompactionConfig struct {
	Enabled              bool
	CompactionThreshold  int
	PreserveCorrelations bool
	MinEventInterval     time.Duration
}

// DefaultCompactionConfig matches the teacher's compaction defaults.
func DefaultCompactionConfig() CompactionConfig {
	return CompactionConfig{
		Enabled:              true,
		CompactionThreshold:  5000,
		PreserveCorrelations: true,
		MinEventInterval:     100 * time.Millisecond,
	}
}

// timelineState is the guarded payload held inside the Manager's
// syncx.RWGuard: a time-ordered bucket map plus an id index, the Go
// analogue of the teacher's BTreeMap<DateTime<Utc>, Vec<TimelineEvent>>
// paired with an IndexMap<String, DateTime<Utc>>.
type timelineState struct {
	order          []int64
	buckets        map[int64][]TimelineEvent
	index          map[string]int64
	lastCompaction *time.Time
}

func newTimelineState() timelineState {
	return timelineState{
		buckets: make(map[int64][]TimelineEvent),
		index:   make(map[string]int64),
	}
}

// Manager is the fused, ordered history of timeline events with
// idempotent cleanup and compaction passes, the Go analogue of the
// teacher's TimelineManager.
type Manager struct {
	state      *syncx.RWGuard[timelineState]
	retention  RetentionPolicy
	compaction CompactionConfig
}

// NewManager builds a Manager with the teacher's default retention and
// compaction policy.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultRetentionPolicy(), DefaultCompactionConfig())
}

// NewManagerWithConfig builds a Manager with explicit policies.
func NewManagerWithConfig(retention RetentionPolicy, compaction CompactionConfig) *Manager {
	return &Manager{
		state:      syncx.NewGuard(newTimelineState()),
		retention:  retention,
		compaction: compaction,
	}
}

func bucketKey(t time.Time) int64 { return t.UnixNano() }

func insertSorted(order []int64, key int64) []int64 {
	i := sort.Search(len(order), func(i int) bool { return order[i] >= key })
	if i < len(order) && order[i] == key {
		return order
	}
	order = append(order, 0)
	copy(order[i+1:], order[i:])
	order[i] = key
	return order
}

// AddEvent inserts an event into the timeline, skipping it if its id has
// already been recorded, then runs the cleanup and compaction passes.
func (m *Manager) AddEvent(ctx context.Context, event TimelineEvent) {
	var duplicate bool
	m.state.Write(func(s *timelineState) {
		if _, exists := s.index[event.ID()]; exists {
			duplicate = true
			return
		}
		key := bucketKey(event.Timestamp())
		s.order = insertSorted(s.order, key)
		s.buckets[key] = append(s.buckets[key], event)
		s.index[event.ID()] = key
	})
	if duplicate {
		trace.Counts().IncDuplicateTimelineEvents(ctx)
		return
	}

	m.maybeCleanup(ctx)
	m.maybeCompact(ctx)
}

// AddVideoEvent is a typed convenience wrapper over AddEvent.
func (m *Manager) AddVideoEvent(ctx context.Context, event VideoEvent) {
	m.AddEvent(ctx, event)
}

// AddAudioEvent is a typed convenience wrapper over AddEvent.
func (m *Manager) AddAudioEvent(ctx context.Context, event AudioEvent) {
	m.AddEvent(ctx, event)
}

// AddSyncEvent is a typed convenience wrapper over AddEvent.
func (m *Manager) AddSyncEvent(ctx context.Context, event SyncEvent) {
	m.AddEvent(ctx, event)
}

// AddSystemEvent is a typed convenience wrapper over AddEvent.
func (m *Manager) AddSystemEvent(ctx context.Context, event SystemEvent) {
	m.AddEvent(ctx, event)
}

// EventsInWindow returns every event whose timestamp falls inside the
// window's inclusive bounds.
func (m *Manager) EventsInWindow(window SyncWindow) []TimelineEvent {
	startKey, endKey := bucketKey(window.StartTime), bucketKey(window.EndTime)
	result := m.state.Read(func(s timelineState) any {
		lo := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= startKey })
		var out []TimelineEvent
		for i := lo; i < len(s.order) && s.order[i] <= endKey; i++ {
			for _, e := range s.buckets[s.order[i]] {
				if window.ContainsTimestamp(e.Timestamp()) {
					out = append(out, e)
				}
			}
		}
		return out
	})
	events, _ := result.([]TimelineEvent)
	return events
}

// VideoEventsInWindow filters EventsInWindow down to video events.
func (m *Manager) VideoEventsInWindow(window SyncWindow) []VideoEvent {
	var out []VideoEvent
	for _, e := range m.EventsInWindow(window) {
		if v, ok := e.(VideoEvent); ok {
			out = append(out, v)
		}
	}
	return out
}

// AudioEventsInWindow filters EventsInWindow down to audio events.
func (m *Manager) AudioEventsInWindow(window SyncWindow) []AudioEvent {
	var out []AudioEvent
	for _, e := range m.EventsInWindow(window) {
		if a, ok := e.(AudioEvent); ok {
			out = append(out, a)
		}
	}
	return out
}

// EventsByKind returns every event of the given kind timestamped within
// [start, end].
func (m *Manager) EventsByKind(kind EventKind, start, end time.Time) []TimelineEvent {
	startKey, endKey := bucketKey(start), bucketKey(end)
	result := m.state.Read(func(s timelineState) any {
		lo := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= startKey })
		var out []TimelineEvent
		for i := lo; i < len(s.order) && s.order[i] <= endKey; i++ {
			for _, e := range s.buckets[s.order[i]] {
				if e.Kind() == kind {
					out = append(out, e)
				}
			}
		}
		return out
	})
	events, _ := result.([]TimelineEvent)
	return events
}

// EventByID looks up a single event by id via the index, the Go
// analogue of the teacher's IndexMap-backed get_event_by_id.
func (m *Manager) EventByID(id string) (TimelineEvent, bool) {
	result := m.state.Read(func(s timelineState) any {
		key, ok := s.index[id]
		if !ok {
			return nil
		}
		for _, e := range s.buckets[key] {
			if e.ID() == id {
				return e
			}
		}
		return nil
	})
	event, ok := result.(TimelineEvent)
	return event, ok
}

// RecentEventsCount counts events newer than now-since.
func (m *Manager) RecentEventsCount(since time.Duration) int {
	cutoff := bucketKey(time.Now().Add(-since))
	result := m.state.Read(func(s timelineState) any {
		lo := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= cutoff })
		count := 0
		for i := lo; i < len(s.order); i++ {
			count += len(s.buckets[s.order[i]])
		}
		return count
	})
	count, _ := result.(int)
	return count
}

// Stats summarizes the current contents of the timeline.
func (m *Manager) Stats() Stats {
	result := m.state.Read(func(s timelineState) any {
		var st Stats
		for _, key := range s.order {
			for _, e := range s.buckets[key] {
				st.TotalEvents++
				switch e.Kind() {
				case EventKindVideo:
					st.VideoEvents++
				case EventKindAudio:
					st.AudioEvents++
				case EventKindSync:
					st.SyncEvents++
				case EventKindSystem:
					st.SystemEvents++
				}
			}
		}
		if len(s.order) > 0 {
			earliest := time.Unix(0, s.order[0])
			latest := time.Unix(0, s.order[len(s.order)-1])
			st.EarliestTimestamp = &earliest
			st.LatestTimestamp = &latest
		}
		return st
	})
	stats, _ := result.(Stats)
	return stats
}

// maybeCleanup removes every event older than the retention horizon.
// Idempotent: once the cutoff has been applied, a repeat call finds
// nothing left to remove.
func (m *Manager) maybeCleanup(ctx context.Context) {
	if !m.retention.AutoCleanupEnabled {
		return
	}
	_, span := trace.StartSpan(ctx, "timeline_cleanup")
	defer span.End()

	cutoff := bucketKey(time.Now().Add(-m.retention.MaxTimelineDuration))
	removed := 0
	m.state.Write(func(s *timelineState) {
		i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= cutoff })
		for _, key := range s.order[:i] {
			for _, e := range s.buckets[key] {
				delete(s.index, e.ID())
			}
			delete(s.buckets, key)
			removed++
		}
		s.order = s.order[i:]
	})
	span.SetAttr("buckets_removed", removed)
}

// maybeCompact rounds each bucket key down to a multiple of the minimum
// inter-event interval once the event count reaches the threshold,
// coalescing nearby buckets; the events' own timestamps are left
// unchanged. Idempotent: re-running
// compaction on an already-compacted timeline maps every bucket key to
// itself.
func (m *Manager) maybeCompact(ctx context.Context) {
	if !m.compaction.Enabled {
		return
	}
	intervalNanos := m.compaction.MinEventInterval.Nanoseconds()
	if intervalNanos <= 0 {
		return
	}

	_, span := trace.StartSpan(ctx, "timeline_compact")
	defer span.End()

	now := time.Now()
	var finalCount int
	m.state.Write(func(s *timelineState) {
		if len(s.index) < m.compaction.CompactionThreshold {
			finalCount = len(s.index)
			return
		}

		newBuckets := make(map[int64][]TimelineEvent, len(s.buckets))
		newIndex := make(map[string]int64, len(s.index))
		var newOrder []int64

		for _, key := range s.order {
			bucketed := (key / intervalNanos) * intervalNanos
			if _, exists := newBuckets[bucketed]; !exists {
				newOrder = append(newOrder, bucketed)
			}
			newBuckets[bucketed] = append(newBuckets[bucketed], s.buckets[key]...)
			for _, e := range s.buckets[key] {
				newIndex[e.ID()] = bucketed
			}
		}
		sort.Slice(newOrder, func(i, j int) bool { return newOrder[i] < newOrder[j] })

		s.order = newOrder
		s.buckets = newBuckets
		s.index = newIndex
		s.lastCompaction = &now
		finalCount = len(newIndex)
	})
	span.SetAttr("event_count", finalCount)
}
