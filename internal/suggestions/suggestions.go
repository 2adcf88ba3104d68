// Package suggestions keeps the global suggestions document: free-form
// ideas submitted by players, appended and never edited.
package suggestions

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Gudu0/CountingBot/internal/docstore"
)

// Entry is one submitted suggestion.
type Entry struct {
	ID        string `json:"id"`
	GuildID   int64  `json:"guildId"`
	AuthorID  int64  `json:"authorId"`
	AuthorTag string `json:"authorTag,omitempty"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAtMillis"`
}

// Data is the global suggestions document.
type Data struct {
	Entries []Entry `json:"entries"`
}

// NewData returns an empty suggestions document.
func NewData() *Data {
	return &Data{}
}

// Store is the durable global suggestions document.
type Store = docstore.Store[Data]

// OpenStore loads (or defaults) the suggestions document at path.
func OpenStore(path string) *Store {
	return docstore.Open(path, NewData)
}

// Service appends and lists suggestions.
type Service struct {
	store *Store
	nowFn func() time.Time
}

// NewService wires the service to its document.
func NewService(store *Store) *Service {
	return &Service{store: store, nowFn: time.Now}
}

// WithNow overrides the service clock. Used by tests.
func (s *Service) WithNow(nowFn func() time.Time) *Service {
	s.nowFn = nowFn
	return s
}

// Add records a suggestion and returns the stored entry.
// Empty or whitespace-only text is dropped.
func (s *Service) Add(guildID, authorID int64, authorTag, text string) (Entry, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, false
	}

	e := Entry{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		AuthorID:  authorID,
		AuthorTag: authorTag,
		Text:      text,
		CreatedAt: s.nowFn().UnixMilli(),
	}
	s.store.Update(func(d *Data) {
		d.Entries = append(d.Entries, e)
	})
	return e, true
}

// All returns a copy of every entry, oldest first.
func (s *Service) All() []Entry {
	var out []Entry
	s.store.View(func(d *Data) {
		out = make([]Entry, len(d.Entries))
		copy(out, d.Entries)
	})
	return out
}
