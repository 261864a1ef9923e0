package domain

import (
	"net/url"
	"strings"
	"time"
)

// DefaultGhostThreshold is how long an application may sit in progress.
const DefaultGhostThreshold = 30 * 24 * time.Hour

// ApplyGhostingPolicy moves in-progress records added strictly more than
// threshold before now to ghosted. It mutates list in place and returns
// how many records changed.
func ApplyGhostingPolicy(list ApplicationList, now time.Time, threshold time.Duration) int {
	cutoff := now.Add(-threshold)
	changed := 0
	for i := range list {
		if list[i].Status != StatusInProgress {
			continue
		}
		if list[i].DateAdded.Before(cutoff) {
			list[i].Status = StatusGhosted
			changed++
		}
	}
	return changed
}

// SetStatus overwrites the status of the record with the given id. Any
// status may follow any other. The list is untouched on error.
func SetStatus(list ApplicationList, id int64, status Status) (ApplicationRecord, error) {
	if !status.Valid() {
		return ApplicationRecord{}, unknownStatus(string(status))
	}
	i := list.index(id)
	if i < 0 {
		return ApplicationRecord{}, ErrRecordNotFound
	}
	list[i].Status = status
	return list[i], nil
}

// NewRecord validates the form fields and builds a record stamped at now.
// The id is now in unix milliseconds, bumped past any id already in list.
func NewRecord(list ApplicationList, companyName, jobLink string, status Status, now time.Time) (ApplicationRecord, error) {
	companyName = strings.TrimSpace(companyName)
	jobLink = strings.TrimSpace(jobLink)

	if companyName == "" {
		return ApplicationRecord{}, &ValidationError{Field: "companyName", Reason: "required"}
	}
	if jobLink == "" {
		return ApplicationRecord{}, &ValidationError{Field: "jobLink", Reason: "required"}
	}
	u, err := url.Parse(jobLink)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ApplicationRecord{}, &ValidationError{Field: "jobLink", Reason: "must be an absolute URL"}
	}
	if !status.Valid() {
		return ApplicationRecord{}, unknownStatus(string(status))
	}

	id := now.UnixMilli()
	for list.index(id) >= 0 {
		id++
	}

	return ApplicationRecord{
		ID:          id,
		CompanyName: companyName,
		JobLink:     jobLink,
		Status:      status,
		DateAdded:   now.UTC(),
	}, nil
}
