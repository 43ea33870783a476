package store

// Scan domain types

// FileRecord is one scanned source file: where it was found, the
// fingerprint of its raw bytes, and the comments it contains in source order.
type FileRecord struct {
	Path        string
	ContentHash string
	Comments    []CommentRecord
}

// CommentRecord is a retained comment. FileHash is a lookup key back to
// the owning FileRecord's ContentHash, not an ownership link.
type CommentRecord struct {
	Text        string
	CommentHash string
	FileHash    string
}

// NewCommentRecord fingerprints text and stamps it with the owning file's hash.
func NewCommentRecord(text, fileHash string) CommentRecord {
	return CommentRecord{
		Text:        text,
		CommentHash: ComputeHash([]byte(text)),
		FileHash:    fileHash,
	}
}
