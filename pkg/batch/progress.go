package batch

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Tracker turns progress signals into rates and estimates. Pass its Observe
// method as Options.OnProgress. It is safe for concurrent use.
type Tracker struct {
	totalItems      int
	totalGroups     int
	batchSize       int
	processedGroups int
	processedItems  int
	startTime       time.Time
	lastUpdateTime  time.Time
	onUpdate        func(ProgressSnapshot)

	mu sync.RWMutex
}

// NewTracker creates a tracker for totalItems items run at batchSize.
// A non-positive batchSize is treated as DefaultBatchSize.
func NewTracker(totalItems, batchSize int) *Tracker {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	now := time.Now()
	return &Tracker{
		totalItems:     totalItems,
		totalGroups:    GroupCount(totalItems, batchSize),
		batchSize:      batchSize,
		startTime:      now,
		lastUpdateTime: now,
	}
}

// OnUpdate registers fn to receive a snapshot after every Observe call.
func (p *Tracker) OnUpdate(fn func(ProgressSnapshot)) *Tracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
	return p
}

// Observe records that completed of total groups have settled.
// It has the ProgressFunc signature.
func (p *Tracker) Observe(completed, total int) {
	p.mu.Lock()
	p.processedGroups = completed
	p.totalGroups = total
	p.processedItems = completed * p.batchSize
	if p.processedItems > p.totalItems {
		p.processedItems = p.totalItems
	}
	p.lastUpdateTime = time.Now()
	fn := p.onUpdate
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// PercentComplete returns the completion percentage (0-100).
func (p *Tracker) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.percentCompleteLocked()
}

// IsComplete returns true once every group has settled.
func (p *Tracker) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.processedGroups >= p.totalGroups
}

// ElapsedTime returns the time since the tracker was created or reset.
func (p *Tracker) ElapsedTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.startTime)
}

// EstimatedTimeRemaining extrapolates from the average group duration.
// Returns 0 before the first group settles.
func (p *Tracker) EstimatedTimeRemaining() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.processedGroups == 0 {
		return 0
	}

	elapsed := time.Since(p.startTime)
	avgPerGroup := elapsed / time.Duration(p.processedGroups)
	remaining := p.totalGroups - p.processedGroups
	if remaining < 0 {
		remaining = 0
	}
	return avgPerGroup * time.Duration(remaining)
}

// ItemsPerSecond returns the processing rate in items per second.
func (p *Tracker) ItemsPerSecond() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.itemsPerSecondLocked()
}

// GroupsPerSecond returns the processing rate in groups per second.
func (p *Tracker) GroupsPerSecond() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.processedGroups) / elapsed
}

// Snapshot returns a copy of the current state.
func (p *Tracker) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// ProgressSnapshot is an immutable view of a Tracker.
type ProgressSnapshot struct {
	TotalItems      int
	ProcessedItems  int
	TotalGroups     int
	ProcessedGroups int
	BatchSize       int
	StartTime       time.Time
	LastUpdateTime  time.Time
	PercentComplete float64
	ElapsedTime     time.Duration
	ItemsPerSecond  float64
}

// Reset returns the tracker to its initial state and restarts the clock.
func (p *Tracker) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.processedGroups = 0
	p.processedItems = 0
	p.startTime = now
	p.lastUpdateTime = now
}

// Must be called with mu held.
func (p *Tracker) snapshotLocked() ProgressSnapshot {
	return ProgressSnapshot{
		TotalItems:      p.totalItems,
		ProcessedItems:  p.processedItems,
		TotalGroups:     p.totalGroups,
		ProcessedGroups: p.processedGroups,
		BatchSize:       p.batchSize,
		StartTime:       p.startTime,
		LastUpdateTime:  p.lastUpdateTime,
		PercentComplete: p.percentCompleteLocked(),
		ElapsedTime:     time.Since(p.startTime),
		ItemsPerSecond:  p.itemsPerSecondLocked(),
	}
}

func (p *Tracker) percentCompleteLocked() float64 {
	if p.totalGroups == 0 {
		return 0
	}
	return (float64(p.processedGroups) / float64(p.totalGroups)) * percentMultiplier
}

func (p *Tracker) itemsPerSecondLocked() float64 {
	elapsed := time.Since(p.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.processedItems) / elapsed
}
