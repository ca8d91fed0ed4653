// Package quota counts plain-text messages per user, channel and calendar day.
package quota

import "sync"

// DailyLimit is the number of text messages a user may post per channel per day.
const DailyLimit = 3

// DateLayout is the layout of Key.Date.
const DateLayout = "2006-01-02"

type Decision int

const (
	Allow Decision = iota
	Deny
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Key is one day's counting bucket. Date is computed by the caller, once per event.
type Key struct {
	CommunityID int64
	ChannelID   int64
	UserID      int64
	Date        string
}

// Counter is volatile: counts are lost on restart and a new date starts a fresh bucket.
type Counter struct {
	mutex  sync.Mutex
	counts map[Key]int
}

func NewCounter() *Counter {
	return &Counter{counts: map[Key]int{}}
}

// RecordAndCheck counts the message and allows it while the bucket is below DailyLimit.
// A full bucket denies without counting further.
func (c *Counter) RecordAndCheck(key Key) Decision {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	current := c.counts[key]
	if current >= DailyLimit {
		return Deny
	}
	c.counts[key] = current + 1
	return Allow
}

func (c *Counter) Count(key Key) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.counts[key]
}

// Compact drops buckets whose date is not today and returns how many were dropped.
func (c *Counter) Compact(today string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key := range c.counts {
		if key.Date != today {
			delete(c.counts, key)
			removed++
		}
	}
	return removed
}

func (c *Counter) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.counts)
}
