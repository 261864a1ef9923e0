package notion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gnt "github.com/dstotijn/go-notion"

	"jobtracker.local/internal/domain"
)

// Property names in the Notion tracker database.
const (
	propCompany   = "Company"
	propJobLink   = "Job Link"
	propStatus    = "Status"
	propDateAdded = "Date Added"
	propID        = "Application ID"
)

// Mirror copies application records into a Notion database.
type Mirror struct {
	api        *gnt.Client
	databaseID string
}

func New(token, databaseID string, opts ...gnt.ClientOption) *Mirror {
	return &Mirror{
		api:        gnt.NewClient(token, opts...),
		databaseID: databaseID,
	}
}

// ErrUnavailable wraps every failed call to the Notion API.
var ErrUnavailable = errors.New("notion unavailable")

// searchLimit caps how many databases SearchDatabases collects.
const searchLimit = 100

// Ping fetches the mirror database and checks it has every property the
// mirror writes.
func (m *Mirror) Ping(ctx context.Context) error {
	db, err := m.api.FindDatabaseByID(ctx, m.databaseID)
	if err != nil {
		return fmt.Errorf("%w: find database %s: %w", ErrUnavailable, m.databaseID, err)
	}

	var missing []string
	for _, name := range []string{propCompany, propJobLink, propStatus, propDateAdded, propID} {
		if _, ok := db.Properties[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: database %s lacks properties %s", ErrUnavailable, m.databaseID, strings.Join(missing, ", "))
	}
	return nil
}

// SearchDatabases lists the databases shared with the integration.
func (m *Mirror) SearchDatabases(ctx context.Context) ([]gnt.Database, error) {
	opts := &gnt.SearchOpts{
		Filter:   &gnt.SearchFilter{Property: "object", Value: "database"},
		PageSize: 50,
	}

	var dbs []gnt.Database
	for len(dbs) < searchLimit {
		resp, err := m.api.Search(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: search databases: %w", ErrUnavailable, err)
		}
		for _, obj := range resp.Results {
			if db, ok := obj.(gnt.Database); ok {
				dbs = append(dbs, db)
			}
		}
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		opts.StartCursor = *resp.NextCursor
	}
	return dbs, nil
}

func title(s string) []gnt.RichText {
	return []gnt.RichText{{Text: &gnt.Text{Content: s}}}
}

func buildRecordProperties(rec domain.ApplicationRecord) gnt.DatabasePageProperties {
	id := float64(rec.ID)
	link := rec.JobLink

	return gnt.DatabasePageProperties{
		propCompany: gnt.DatabasePageProperty{
			Title: title(rec.CompanyName),
		},
		propJobLink: gnt.DatabasePageProperty{
			URL: &link,
		},
		propStatus: statusProperty(rec.Status),
		propDateAdded: gnt.DatabasePageProperty{
			Date: &gnt.Date{
				Start: gnt.NewDateTime(rec.DateAdded, true),
			},
		},
		propID: gnt.DatabasePageProperty{
			Number: &id,
		},
	}
}

func statusProperty(s domain.Status) gnt.DatabasePageProperty {
	return gnt.DatabasePageProperty{
		Select: &gnt.SelectOptions{
			Name: string(s),
		},
	}
}

// RecordAdded creates a row for a new application.
func (m *Mirror) RecordAdded(ctx context.Context, rec domain.ApplicationRecord) error {
	_, err := m.createPage(ctx, rec)
	return err
}

// StatusChanged updates the row's Status, creating the row if it is missing.
func (m *Mirror) StatusChanged(ctx context.Context, rec domain.ApplicationRecord) error {
	pageID, err := m.findPage(ctx, rec.ID)
	if err != nil {
		return err
	}
	if pageID == "" {
		_, err := m.createPage(ctx, rec)
		return err
	}

	_, err = m.api.UpdatePage(ctx, pageID, gnt.UpdatePageParams{
		DatabasePageProperties: gnt.DatabasePageProperties{
			propStatus: statusProperty(rec.Status),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: update page %s: %w", ErrUnavailable, pageID, err)
	}
	return nil
}

func (m *Mirror) createPage(ctx context.Context, rec domain.ApplicationRecord) (string, error) {
	props := buildRecordProperties(rec)

	page, err := m.api.CreatePage(ctx, gnt.CreatePageParams{
		ParentType:             gnt.ParentTypeDatabase,
		ParentID:               m.databaseID,
		DatabasePageProperties: &props,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create page for %d: %w", ErrUnavailable, rec.ID, err)
	}
	return page.ID, nil
}

// findPage pages through the database looking for the row with the given
// application id. It returns "" when there is none.
func (m *Mirror) findPage(ctx context.Context, id int64) (string, error) {
	query := &gnt.DatabaseQuery{PageSize: 100}
	for {
		resp, err := m.api.QueryDatabase(ctx, m.databaseID, query)
		if err != nil {
			return "", fmt.Errorf("%w: query database: %w", ErrUnavailable, err)
		}
		for _, page := range resp.Results {
			if pageApplicationID(page) == id {
				return page.ID, nil
			}
		}
		if !resp.HasMore || resp.NextCursor == nil {
			return "", nil
		}
		query.StartCursor = *resp.NextCursor
	}
}

func pageApplicationID(page gnt.Page) int64 {
	props, ok := page.Properties.(gnt.DatabasePageProperties)
	if !ok {
		return 0
	}
	prop, ok := props[propID]
	if !ok || prop.Number == nil {
		return 0
	}
	return int64(*prop.Number)
}
