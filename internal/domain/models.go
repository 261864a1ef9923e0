package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type Status string

// Wire values match what the extension popup has always written.
const (
	StatusInProgress Status = "inProgress"
	StatusGhosted    Status = "ghosted"
	StatusRejected   Status = "rejected"
	StatusInterview  Status = "interview"
	StatusOffers     Status = "offers"
)

// Statuses lists every status in tab order.
var Statuses = []Status{
	StatusInProgress,
	StatusGhosted,
	StatusRejected,
	StatusInterview,
	StatusOffers,
}

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusGhosted, StatusRejected, StatusInterview, StatusOffers:
		return true
	}
	return false
}

// ParseStatus accepts the wire values plus "in_progress".
func ParseStatus(raw string) (Status, error) {
	v := strings.TrimSpace(raw)
	if v == "in_progress" {
		return StatusInProgress, nil
	}
	s := Status(v)
	if !s.Valid() {
		return "", unknownStatus(raw)
	}
	return s, nil
}

// UnmarshalJSON normalizes stored spellings, so a blob written with
// "in_progress" loads as StatusInProgress.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type ApplicationRecord struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"companyName"`
	JobLink     string    `json:"jobLink"`
	Status      Status    `json:"status"`
	DateAdded   time.Time `json:"dateAdded"`
}

// ApplicationList is the whole persisted state, in add order.
type ApplicationList []ApplicationRecord

func (l ApplicationList) Clone() ApplicationList {
	if l == nil {
		return ApplicationList{}
	}
	out := make(ApplicationList, len(l))
	copy(out, l)
	return out
}

func (l ApplicationList) index(id int64) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the record with the given id.
func (l ApplicationList) Find(id int64) (ApplicationRecord, error) {
	i := l.index(id)
	if i < 0 {
		return ApplicationRecord{}, ErrRecordNotFound
	}
	return l[i], nil
}

// Validate checks the list-wide invariants: unique ids and known statuses.
func (l ApplicationList) Validate() error {
	seen := make(map[int64]struct{}, len(l))
	for _, r := range l {
		if _, dup := seen[r.ID]; dup {
			return &ValidationError{Field: "id", Reason: "duplicate id"}
		}
		seen[r.ID] = struct{}{}
		if !r.Status.Valid() {
			return unknownStatus(string(r.Status))
		}
	}
	return nil
}

// GroupByStatus buckets records by status, keeping add order inside each
// bucket. Every status has a key, even when empty.
func (l ApplicationList) GroupByStatus() map[Status]ApplicationList {
	out := make(map[Status]ApplicationList, len(Statuses))
	for _, s := range Statuses {
		out[s] = ApplicationList{}
	}
	for _, r := range l {
		out[r.Status] = append(out[r.Status], r)
	}
	return out
}
