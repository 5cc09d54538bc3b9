// Package status tracks in-flight document processing for client polling.
package status

import (
	"sync"
	"time"
)

// Processing states exposed to pollers
const (
	StateProcessing = "Processing"
	StateCompleted  = "Completed"
	StateError      = "Error"
)

// Update is the typed status payload produced by each pipeline phase. The
// optional fields are pointers so a phase only reports what it actually knows.
type Update struct {
	State            string    `json:"status"`
	Message          string    `json:"message"`
	UpdatedAt        time.Time `json:"updatedAt"`
	OCRTextLength    *int      `json:"ocrTextLength,omitempty"`
	ItemCount        *int      `json:"itemCount,omitempty"`
	TotalItems       *int      `json:"totalItems,omitempty"`
	CategorizedCount *int      `json:"categorizedCount,omitempty"`
	ReceiptID        string    `json:"receiptId,omitempty"`
}

// Terminal reports whether the update represents a finished run.
func (u Update) Terminal() bool {
	return u.State == StateCompleted || u.State == StateError
}

// Tracker is the process-wide concurrent map from document id to the latest
// processing status. One background task writes per document while polling
// handlers read. Entries stay in place after a terminal state until process
// restart; callers treat a missing entry as "check the persisted document",
// not as an error.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]Update
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]Update)}
}

// Set stores the latest status for documentID, stamping UpdatedAt.
func (t *Tracker) Set(documentID string, update Update) {
	update.UpdatedAt = time.Now().UTC()
	t.mu.Lock()
	t.entries[documentID] = update
	t.mu.Unlock()
}

// Get returns the latest status for documentID, if any.
func (t *Tracker) Get(documentID string) (Update, bool) {
	t.mu.RLock()
	update, ok := t.entries[documentID]
	t.mu.RUnlock()
	return update, ok
}

// Len returns the number of tracked documents.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
