package webtty

// PendingInputQueue is a first-in-first-out sequence of input chunks.
// Chunks are stored as delivered: never split, merged, or reordered.
// It is not safe for concurrent use; InputStream guards it.
type PendingInputQueue struct {
	chunks []string
}

// Push appends a chunk to the tail.
func (q *PendingInputQueue) Push(chunk string) {
	q.chunks = append(q.chunks, chunk)
}

// Pop removes and returns the oldest chunk.
// Returns false if the queue is empty.
func (q *PendingInputQueue) Pop() (string, bool) {
	if len(q.chunks) == 0 {
		return "", false
	}
	chunk := q.chunks[0]
	q.chunks[0] = ""
	q.chunks = q.chunks[1:]

	// Release the backing array once drained
	if len(q.chunks) == 0 {
		q.chunks = nil
	}
	return chunk, true
}

// Peek returns the oldest chunk without removing it.
func (q *PendingInputQueue) Peek() (string, bool) {
	if len(q.chunks) == 0 {
		return "", false
	}
	return q.chunks[0], true
}

// replaceHead swaps the oldest chunk with its unread remainder.
func (q *PendingInputQueue) replaceHead(rest string) {
	if len(q.chunks) > 0 {
		q.chunks[0] = rest
	}
}

// Len returns the number of buffered chunks.
func (q *PendingInputQueue) Len() int {
	return len(q.chunks)
}

// Clear drops every buffered chunk.
func (q *PendingInputQueue) Clear() {
	q.chunks = nil
}
