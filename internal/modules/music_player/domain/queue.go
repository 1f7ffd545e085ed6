package domain

// Queue is a strict FIFO queue of pending tracks. The currently playing track
// is never part of the queue; it is popped from the head when playback of the
// previous track ends.
type Queue struct {
	tracks []Track
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{tracks: make([]Track, 0)}
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no pending tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Append adds a track at the tail and returns its 1-based queue position.
func (q *Queue) Append(track Track) int {
	q.tracks = append(q.tracks, track)
	return len(q.tracks)
}

// Peek returns a copy of the head track without removing it, or nil if the
// queue is empty.
func (q *Queue) Peek() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	head := q.tracks[0]
	return &head
}

// PopHead removes and returns the head track, or nil if the queue is empty.
func (q *Queue) PopHead() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	head := q.tracks[0]
	q.tracks = q.tracks[1:]
	return &head
}

// List returns a copy of all pending tracks in order.
func (q *Queue) List() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Clear removes all pending tracks and returns how many were removed.
func (q *Queue) Clear() int {
	n := len(q.tracks)
	q.tracks = q.tracks[:0]
	return n
}
