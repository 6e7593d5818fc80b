package models

import "time"

// Origin tells a store where a mutation came from.
//
// Writes made by the synchronization layer in reaction to an event carry
// OriginSync. Stores never publish events for OriginSync writes, which stops a
// goal <-> budget update from bouncing back to the store that started it.
type Origin int

const (
	// OriginUser is a direct call from the UI or RPC surface.
	OriginUser Origin = iota
	// OriginSync is a write performed while handling another store's event.
	OriginSync
)

// Propagate reports whether a write with this origin should publish events.
func (o Origin) Propagate() bool {
	return o == OriginUser
}

func (o Origin) String() string {
	if o == OriginSync {
		return "sync"
	}
	return "user"
}

// DateKeyLayout is the layout of day keys used by habits and check-ins.
const DateKeyLayout = "2006-01-02"

// DateKey returns the day key for t.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// Stamp sets CreatedAt (if unset) and UpdatedAt to now.
func Stamp(createdAt, updatedAt *int64, now time.Time) {
	if *createdAt == 0 {
		*createdAt = now.Unix()
	}
	*updatedAt = now.Unix()
}
