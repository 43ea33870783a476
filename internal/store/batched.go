package store

// Batch is the in-memory aggregation collection a scan drains its result
// channel into. Records keep arrival order, which is the order workers
// finished and not traversal order. A Batch is owned by a single goroutine
// until it is handed to CommitBatch.
type Batch struct {
	records  []FileRecord
	comments int
}

// NewBatch creates an empty Batch with room for sizeHint records.
func NewBatch(sizeHint int) *Batch {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Batch{records: make([]FileRecord, 0, sizeHint)}
}

// Add appends a record. The record is copied by value.
func (b *Batch) Add(rec FileRecord) {
	b.records = append(b.records, rec)
	b.comments += len(rec.Comments)
}

// Records returns the collected records in arrival order.
func (b *Batch) Records() []FileRecord {
	return b.records
}

// Len returns the number of file records.
func (b *Batch) Len() int {
	return len(b.records)
}

// CommentCount returns the total number of comment records across all files.
func (b *Batch) CommentCount() int {
	return b.comments
}
