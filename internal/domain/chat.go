package domain

// Message is one conversation entry as the collaborators store it.
type Message struct {
	Role   string `json:"role"`
	Text   string `json:"text"`
	SentAt int64  `json:"sent_at"`
}

// MemoryRecord is one semantic-memory entry.
type MemoryRecord struct {
	Text     string `json:"text"`
	StoredAt int64  `json:"stored_at"`
}
