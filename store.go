package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

var csvHeader = []string{
	"id", "parent_name", "student_name", "student_id", "title",
	"category", "department", "sentiment", "status", "submitted", "text",
}

// Store owns the feedback list, the id counter, and the backing JSON file.
// Requests run on parallel goroutines, so every mutation (id assignment
// included) is serialized behind one mutex. Persistence is whole-file
// rewrite on every mutation; a single writer process is assumed.
type Store struct {
	mu     sync.Mutex
	path   string
	items  []Feedback
	nextID int
}

func NewStore(path string) *Store {
	return &Store{path: path, nextID: 1}
}

// Load reads the backing file. A missing file is initialized to an empty
// list; an unreadable or corrupt file resets the store to empty rather
// than failing startup. The id counter becomes max(id)+1, or 1 when empty.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.nextID = 1

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		log.Printf("store mkdir failed path=%s err=%v", s.path, err)
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := os.WriteFile(s.path, []byte("[]"), 0644); writeErr != nil {
				log.Printf("store init failed path=%s err=%v", s.path, writeErr)
			}
		} else {
			log.Printf("store read failed path=%s err=%v, starting empty", s.path, err)
		}
		return
	}

	var items []Feedback
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("store parse failed path=%s err=%v, starting empty", s.path, err)
		return
	}

	s.items = items
	for _, fb := range items {
		if fb.ID >= s.nextID {
			s.nextID = fb.ID + 1
		}
	}
	log.Printf("store loaded path=%s records=%d next_id=%d", s.path, len(s.items), s.nextID)
}

// Add assigns an id when the record has none, fills defaults, appends the
// record, and persists. The counter advances on every call so ids are
// never reused.
func (s *Store) Add(fb Feedback) Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fb.ID == 0 {
		fb.ID = s.nextID
	}
	s.nextID++

	if fb.Status == "" {
		fb.Status = "pending"
	}
	if fb.Submitted == "" {
		fb.Submitted = utcNow()
	}
	if fb.History == nil {
		fb.History = []StatusChange{}
	}

	s.items = append(s.items, fb)
	s.persistLocked()
	return fb
}

// UpdateStatus overwrites the status of the matching record and appends a
// StatusChange carrying the full before/after pair. An unknown id is not
// an error: the second return value is false and nothing is mutated.
func (s *Store) UpdateStatus(id int, status, note, actor string) (Feedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor == "" {
		actor = "admin"
	}
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		change := StatusChange{
			When:  utcNow(),
			Actor: actor,
			From:  s.items[i].Status,
			To:    status,
			Note:  note,
		}
		s.items[i].Status = status
		s.items[i].History = append(s.items[i].History, change)
		s.persistLocked()
		return s.items[i], true
	}
	return Feedback{}, false
}

// List returns a copy of the records in insertion order, oldest first.
func (s *Store) List() []Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Feedback, len(s.items))
	copy(out, s.items)
	return out
}

// ExportCSV serializes the fixed column set for every record. Newlines
// inside the text field are flattened to spaces so each record stays on
// one row.
func (s *Store) ExportCSV() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	flatten := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(csvHeader)
	for _, fb := range s.items {
		_ = w.Write([]string{
			strconv.Itoa(fb.ID),
			fb.ParentName,
			fb.StudentName,
			fb.StudentID,
			fb.Title,
			string(fb.Category),
			fb.Department,
			string(fb.Sentiment),
			fb.Status,
			fb.Submitted,
			flatten.Replace(fb.Text),
		})
	}
	w.Flush()
	return buf.String()
}

// persistLocked rewrites the whole file pretty-printed. Caller holds the
// mutex. Write failures are logged, not raised.
func (s *Store) persistLocked() {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	items := s.items
	if items == nil {
		items = []Feedback{}
	}
	if err := enc.Encode(items); err != nil {
		log.Printf("store encode failed err=%v", err)
		return
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		log.Printf("store write failed path=%s err=%v", s.path, err)
	}
}
