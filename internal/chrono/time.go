package chrono

import (
	"sync"
	"time"
)

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now()
}

// ManualTime is a TimeAPI whose time only moves when told to.
type ManualTime struct {
	mutex sync.Mutex
	now   time.Time
}

func NewManualTime(now time.Time) *ManualTime {
	return &ManualTime{now: now}
}

func (m *ManualTime) Now() time.Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.now
}

func (m *ManualTime) Advance(d time.Duration) {
	m.mutex.Lock()
	m.now = m.now.Add(d)
	m.mutex.Unlock()
}
