package tickets_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/hbarros/changelog/tickets"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*tickets.Ticket)(nil), (*tickets.Entry)(nil)} {
		_, err = db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
		_, err = db.NewDelete().Model(model).Where("1 = 1").Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func newTestService(t *testing.T) *tickets.Service {
	t.Helper()
	return tickets.NewService(tickets.NewRepository(setupDB(t)))
}

func newTicketInput(slug string) tickets.CreateTicketInput {
	return tickets.CreateTicketInput{
		Slug:       slug,
		Title:      "Ticket " + slug,
		Status:     tickets.StatusActive,
		Visibility: tickets.VisibilityPublic,
		StartDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateAssignsNineDigitID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, newTicketInput("widget-rollout"))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, ticket.ID, int64(100_000_000))
	assert.LessOrEqual(t, ticket.ID, int64(999_999_999))
	assert.Equal(t, "widget-rollout", ticket.Slug)
}

func TestGetByIDAndSlug(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newTicketInput("widget-rollout"))
	require.NoError(t, err)

	byID, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Slug, byID.Slug)

	bySlug, err := svc.GetBySlug(ctx, "widget-rollout")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = svc.GetByID(ctx, 123_456_789)
	assert.ErrorIs(t, err, tickets.ErrTicketNotFound)

	_, err = svc.GetBySlug(ctx, "no-such-slug")
	assert.ErrorIs(t, err, tickets.ErrTicketNotFound)
}

func TestUpdateReplacesMutableFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newTicketInput("widget-rollout"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, tickets.UpdateTicketInput{
		Slug:       "widget-rollout",
		Status:     tickets.StatusCompleted,
		Visibility: tickets.VisibilityPrivate,
		StartDate:  created.StartDate,
		Learned:    "shipping weekly beats shipping monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusCompleted, updated.Status)
	assert.Equal(t, tickets.VisibilityPrivate, updated.Visibility)

	fetched, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "shipping weekly beats shipping monthly", fetched.Learned)
}

func TestArchiveKeepsTheRow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newTicketInput("widget-rollout"))
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, created.ID))

	fetched, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusArchived, fetched.Status)

	assert.ErrorIs(t, svc.Archive(ctx, 123_456_789), tickets.ErrTicketNotFound)
}

func TestListPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		input := newTicketInput(fmt.Sprintf("ticket-%d", i))
		input.StartDate = input.StartDate.AddDate(0, 0, i)
		_, err := svc.Create(ctx, input)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, tickets.Filters{}, 0, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	// newest start date first
	assert.Equal(t, "ticket-4", page.Items[0].Slug)

	last, err := svc.List(ctx, tickets.Filters{}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.Equal(t, "ticket-0", last.Items[0].Slug)
}

func TestListClampsPageSize(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	page, err := svc.List(ctx, tickets.Filters{}, -3, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, tickets.DefaultPageSize, page.Size)

	page, err = svc.List(ctx, tickets.Filters{}, 0, 100_000)
	require.NoError(t, err)
	assert.Equal(t, tickets.MaxPageSize, page.Size)
}

func TestEntriesLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, newTicketInput("widget-rollout"))
	require.NoError(t, err)

	entry, err := svc.CreateEntry(ctx, ticket.ID, tickets.CreateEntryInput{
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Title:      "kickoff",
		Body:       "wrote the first migration",
		Visibility: tickets.VisibilityPublic,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, entry.ID, int64(100_000_000))
	assert.Equal(t, ticket.ID, entry.TicketID)

	_, err = svc.CreateEntry(ctx, 123_456_789, tickets.CreateEntryInput{
		Date: time.Now(), Visibility: tickets.VisibilityPublic,
	})
	assert.ErrorIs(t, err, tickets.ErrTicketNotFound)

	updated, err := svc.UpdateEntry(ctx, entry.ID, tickets.CreateEntryInput{
		Date:       entry.Date,
		Title:      "kickoff",
		Body:       "wrote the first two migrations",
		Visibility: tickets.VisibilityPrivate,
	})
	require.NoError(t, err)
	assert.Equal(t, tickets.VisibilityPrivate, updated.Visibility)

	page, err := svc.ListEntries(ctx, ticket.ID, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalElements)

	publicOnly, err := svc.ListEntries(ctx, ticket.ID, tickets.VisibilityPublic, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, publicOnly.TotalElements)
}

func TestEntriesOrderedNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, newTicketInput("widget-rollout"))
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err = svc.CreateEntry(ctx, ticket.ID, tickets.CreateEntryInput{
			Date:       base.AddDate(0, 0, i),
			Title:      fmt.Sprintf("day %d", i),
			Visibility: tickets.VisibilityPublic,
		})
		require.NoError(t, err)
	}

	page, err := svc.ListEntries(ctx, ticket.ID, "", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "day 2", page.Items[0].Title)
	assert.Equal(t, "day 0", page.Items[2].Title)
}

func TestDashboard(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	db := setupDB(t)
	svc := tickets.NewService(tickets.NewRepository(db)).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	active, err := svc.Create(ctx, newTicketInput("active-one"))
	require.NoError(t, err)

	completedInput := newTicketInput("done-one")
	completedInput.Status = tickets.StatusCompleted
	_, err = svc.Create(ctx, completedInput)
	require.NoError(t, err)

	// one entry inside the trailing week, one before it
	_, err = svc.CreateEntry(ctx, active.ID, tickets.CreateEntryInput{
		Date: now.AddDate(0, 0, -2), Title: "recent", Visibility: tickets.VisibilityPublic,
	})
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, active.ID, tickets.CreateEntryInput{
		Date: now.AddDate(0, 0, -20), Title: "old", Visibility: tickets.VisibilityPublic,
	})
	require.NoError(t, err)

	home, err := svc.Dashboard(ctx, "")
	require.NoError(t, err)

	require.Len(t, home.ActiveTickets, 1)
	assert.Equal(t, "active-one", home.ActiveTickets[0].Slug)

	require.Len(t, home.RecentEntries, 2)
	assert.Equal(t, "recent", home.RecentEntries[0].Title)

	assert.Equal(t, 1, home.Metrics.ActiveTickets)
	assert.Equal(t, 1, home.Metrics.CompletedTickets)
	assert.Equal(t, 1, home.Metrics.LogsThisWeek)
	require.NotNil(t, home.Metrics.LastUpdate)
	assert.True(t, home.Metrics.LastUpdate.Equal(now.AddDate(0, 0, -2)))
}

func TestDashboardRestrictedToPublicVisibility(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	svc := tickets.NewService(tickets.NewRepository(setupDB(t))).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	public, err := svc.Create(ctx, newTicketInput("public-project"))
	require.NoError(t, err)

	privateInput := newTicketInput("secret-project")
	privateInput.Visibility = tickets.VisibilityPrivate
	private, err := svc.Create(ctx, privateInput)
	require.NoError(t, err)

	_, err = svc.CreateEntry(ctx, public.ID, tickets.CreateEntryInput{
		Date: now.AddDate(0, 0, -1), Title: "public entry", Visibility: tickets.VisibilityPublic,
	})
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, private.ID, tickets.CreateEntryInput{
		Date: now.AddDate(0, 0, -1), Title: "secret entry", Visibility: tickets.VisibilityPrivate,
	})
	require.NoError(t, err)

	home, err := svc.Dashboard(ctx, tickets.VisibilityPublic)
	require.NoError(t, err)

	require.Len(t, home.ActiveTickets, 1)
	assert.Equal(t, "public-project", home.ActiveTickets[0].Slug)

	require.Len(t, home.RecentEntries, 1)
	assert.Equal(t, "public entry", home.RecentEntries[0].Title)

	assert.Equal(t, 1, home.Metrics.ActiveTickets)
	assert.Equal(t, 1, home.Metrics.LogsThisWeek)

	full, err := svc.Dashboard(ctx, "")
	require.NoError(t, err)
	assert.Len(t, full.ActiveTickets, 2)
	assert.Len(t, full.RecentEntries, 2)
	assert.Equal(t, 2, full.Metrics.ActiveTickets)
	assert.Equal(t, 2, full.Metrics.LogsThisWeek)
}
