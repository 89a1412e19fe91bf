package handlers

import (
	"sync"
	"time"
)

const floodWindow = 4 * time.Second

type floodKey struct {
	chatID int64
	userID int64
}

type floodBucket struct {
	mu     sync.Mutex
	stamps []time.Time
}

// FloodDetector keeps a sliding window of message timestamps per
// chat/user pair. The registry lock only guards bucket lookup, each
// bucket serializes its own updates so chats don't contend.
type FloodDetector struct {
	mu      sync.Mutex
	buckets map[floodKey]*floodBucket
}

func NewFloodDetector() *FloodDetector {
	return &FloodDetector{
		buckets: make(map[floodKey]*floodBucket),
	}
}

// Track records a message and reports whether it tripped the limit:
// more than sensitivity messages inside the window. On a trip the
// window is cleared, the user starts over after the mute.
func (d *FloodDetector) Track(chatID, userID int64, now time.Time, sensitivity int) bool {
	d.mu.Lock()
	key := floodKey{chatID: chatID, userID: userID}
	bucket, ok := d.buckets[key]
	if !ok {
		bucket = &floodBucket{}
		d.buckets[key] = bucket
	}
	d.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	cutoff := now.Add(-floodWindow)
	kept := bucket.stamps[:0]
	for _, stamp := range bucket.stamps {
		if stamp.After(cutoff) {
			kept = append(kept, stamp)
		}
	}
	bucket.stamps = append(kept, now)

	if len(bucket.stamps) > sensitivity {
		bucket.stamps = bucket.stamps[:0]
		return true
	}
	return false
}

// Forget drops all tracked state for the chat.
func (d *FloodDetector) Forget(chatID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.buckets {
		if key.chatID == chatID {
			delete(d.buckets, key)
		}
	}
}
