package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}

func TestApplyGhostingPolicy_OldInProgressBecomesGhosted(t *testing.T) {
	list := ApplicationList{{ID: 1, Status: StatusInProgress, DateAdded: daysAgo(40)}}

	changed := ApplyGhostingPolicy(list, now, DefaultGhostThreshold)

	assert.Equal(t, 1, changed)
	assert.Equal(t, StatusGhosted, list[0].Status)
}

func TestApplyGhostingPolicy_OtherStatusesUntouched(t *testing.T) {
	list := ApplicationList{
		{ID: 2, Status: StatusInterview, DateAdded: daysAgo(100)},
		{ID: 3, Status: StatusRejected, DateAdded: daysAgo(100)},
		{ID: 4, Status: StatusOffers, DateAdded: daysAgo(31)},
		{ID: 5, Status: StatusGhosted, DateAdded: daysAgo(1)},
	}

	changed := ApplyGhostingPolicy(list, now, DefaultGhostThreshold)

	assert.Zero(t, changed)
	assert.Equal(t, StatusInterview, list[0].Status)
	assert.Equal(t, StatusRejected, list[1].Status)
	assert.Equal(t, StatusOffers, list[2].Status)
	assert.Equal(t, StatusGhosted, list[3].Status)
}

func TestApplyGhostingPolicy_Boundary(t *testing.T) {
	tests := []struct {
		name      string
		dateAdded time.Time
		want      Status
	}{
		{"fresh", daysAgo(1), StatusInProgress},
		{"exactly threshold", daysAgo(30), StatusInProgress},
		{"one second past threshold", daysAgo(30).Add(-time.Second), StatusGhosted},
		{"long past", daysAgo(365), StatusGhosted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := ApplicationList{{ID: 1, Status: StatusInProgress, DateAdded: tt.dateAdded}}
			ApplyGhostingPolicy(list, now, DefaultGhostThreshold)
			assert.Equal(t, tt.want, list[0].Status)
		})
	}
}

func TestApplyGhostingPolicy_Idempotent(t *testing.T) {
	list := ApplicationList{
		{ID: 1, Status: StatusInProgress, DateAdded: daysAgo(45)},
		{ID: 2, Status: StatusInProgress, DateAdded: daysAgo(3)},
		{ID: 3, Status: StatusInterview, DateAdded: daysAgo(90)},
	}

	first := ApplyGhostingPolicy(list, now, DefaultGhostThreshold)
	once := list.Clone()
	second := ApplyGhostingPolicy(list, now, DefaultGhostThreshold)

	assert.Equal(t, 1, first)
	assert.Zero(t, second)
	assert.Equal(t, once, list)
}

func TestSetStatus_AnyToAny(t *testing.T) {
	list := ApplicationList{
		{ID: 1, Status: StatusOffers},
		{ID: 2, Status: StatusInterview},
	}

	rec, err := SetStatus(list, 1, StatusRejected)
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, rec.Status)
	assert.Equal(t, StatusRejected, list[0].Status)
	assert.Equal(t, StatusInterview, list[1].Status)
}

func TestSetStatus_UnknownID(t *testing.T) {
	list := ApplicationList{{ID: 1, Status: StatusInProgress}}
	before := list.Clone()

	_, err := SetStatus(list, 999, StatusOffers)

	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, before, list)
}

func TestSetStatus_InvalidStatus(t *testing.T) {
	list := ApplicationList{{ID: 1, Status: StatusInProgress}}

	_, err := SetStatus(list, 1, Status("hired"))

	assert.True(t, IsValidation(err))
	assert.Equal(t, StatusInProgress, list[0].Status)
}

func TestNewRecord(t *testing.T) {
	rec, err := NewRecord(nil, "  Acme ", "http://x", StatusInProgress, now)
	require.NoError(t, err)

	assert.Equal(t, now.UnixMilli(), rec.ID)
	assert.Equal(t, "Acme", rec.CompanyName)
	assert.Equal(t, "http://x", rec.JobLink)
	assert.Equal(t, StatusInProgress, rec.Status)
	assert.Equal(t, now, rec.DateAdded)
}

func TestNewRecord_IDCollision(t *testing.T) {
	list := ApplicationList{
		{ID: now.UnixMilli()},
		{ID: now.UnixMilli() + 1},
	}

	rec, err := NewRecord(list, "Acme", "https://acme.example/jobs/1", StatusInProgress, now)
	require.NoError(t, err)

	assert.Equal(t, now.UnixMilli()+2, rec.ID)
}

func TestNewRecord_Validation(t *testing.T) {
	tests := []struct {
		name      string
		company   string
		link      string
		status    Status
		wantField string
	}{
		{"empty company", "", "http://x", StatusInProgress, "companyName"},
		{"blank company", "   ", "http://x", StatusInProgress, "companyName"},
		{"empty link", "Acme", "", StatusInProgress, "jobLink"},
		{"relative link", "Acme", "/jobs/1", StatusInProgress, "jobLink"},
		{"bad status", "Acme", "http://x", Status("nope"), "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecord(nil, tt.company, tt.link, tt.status, now)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	s, err = ParseStatus("offers")
	require.NoError(t, err)
	assert.Equal(t, StatusOffers, s)

	_, err = ParseStatus("hired")
	assert.True(t, IsValidation(err))
}

func TestApplicationList_Validate(t *testing.T) {
	assert.NoError(t, ApplicationList{{ID: 1, Status: StatusGhosted}, {ID: 2, Status: StatusOffers}}.Validate())
	assert.True(t, IsValidation(ApplicationList{{ID: 1, Status: StatusGhosted}, {ID: 1, Status: StatusOffers}}.Validate()))
	assert.True(t, IsValidation(ApplicationList{{ID: 1, Status: "weird"}}.Validate()))
}

func TestGroupByStatus(t *testing.T) {
	list := ApplicationList{
		{ID: 1, Status: StatusInterview},
		{ID: 2, Status: StatusInProgress},
		{ID: 3, Status: StatusInterview},
	}

	groups := list.GroupByStatus()

	assert.Len(t, groups, len(Statuses))
	assert.Empty(t, groups[StatusOffers])
	require.Len(t, groups[StatusInterview], 2)
	assert.Equal(t, int64(1), groups[StatusInterview][0].ID)
	assert.Equal(t, int64(3), groups[StatusInterview][1].ID)
}

func TestStatus_UnmarshalJSONNormalizes(t *testing.T) {
	var rec ApplicationRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":"in_progress"}`), &rec))
	assert.Equal(t, StatusInProgress, rec.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":"offers"}`), &rec))
	assert.Equal(t, StatusOffers, rec.Status)

	err := json.Unmarshal([]byte(`{"id":1,"status":"hired"}`), &rec)
	assert.True(t, IsValidation(err))
}
