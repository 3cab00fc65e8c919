package utils

import (
	"trade-streamer/src/models"
)

// -----------------------------------------------------------------------------
// EventRing is a fixed-size circular buffer of order events.
// True ring buffer - no resizing allowed!
// -----------------------------------------------------------------------------

type EventRing struct {
	data     []models.MOrderEvent
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewEventRing creates a new ring with fixed capacity
func NewEventRing(capacity int) *EventRing {
	if capacity <= 0 {
		capacity = 100 // Default reasonable size
	}

	return &EventRing{
		data:     make([]models.MOrderEvent, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds an event, overwriting the oldest one once full
func (rb *EventRing) Append(event models.MOrderEvent) {
	rb.data[rb.index] = event
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent events, oldest first
func (rb *EventRing) GetLatest(n int) []models.MOrderEvent {
	if rb.size == 0 || n <= 0 {
		return []models.MOrderEvent{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MOrderEvent, count)

	// Latest data is at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		idx := (startIdx + i) % rb.capacity
		result[i] = rb.data[idx]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all events in insertion order (oldest to newest)
func (rb *EventRing) GetAll() []models.MOrderEvent {
	if rb.size == 0 {
		return []models.MOrderEvent{}
	}

	result := make([]models.MOrderEvent, rb.size)

	// Buffer full means oldest sits at the write index (wrap-around)
	var startIdx int
	if rb.size == rb.capacity {
		startIdx = rb.index
	} else {
		startIdx = 0
	}

	for i := 0; i < rb.size; i++ {
		idx := (startIdx + i) % rb.capacity
		result[i] = rb.data[idx]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *EventRing) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns ring capacity (fixed)
func (rb *EventRing) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether the ring is full
func (rb *EventRing) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the ring
func (rb *EventRing) Clear() {
	rb.index = 0
	rb.size = 0
}
