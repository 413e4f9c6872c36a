package tickets_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbarros/changelog/tickets"
)

func seedSearchFixtures(t *testing.T, svc *tickets.Service) {
	t.Helper()
	ctx := context.Background()

	rollout := newTicketInput("widget-rollout")
	rollout.Title = "Widget rollout"
	rollout.Background = "Replacing the legacy billing widget"
	_, err := svc.Create(ctx, rollout)
	require.NoError(t, err)

	migration := newTicketInput("db-migration")
	migration.Title = "Database migration"
	migration.Status = tickets.StatusCompleted
	migration.Visibility = tickets.VisibilityPrivate
	migration.StartDate = migration.StartDate.AddDate(0, 0, 1)
	_, err = svc.Create(ctx, migration)
	require.NoError(t, err)

	cleanup := newTicketInput("widget-cleanup")
	cleanup.Title = "Widget cleanup"
	cleanup.Status = tickets.StatusArchived
	cleanup.StartDate = cleanup.StartDate.AddDate(0, 0, 2)
	_, err = svc.Create(ctx, cleanup)
	require.NoError(t, err)
}

func slugs(page *tickets.Page[*tickets.Ticket]) []string {
	out := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		out = append(out, item.Slug)
	}
	return out
}

func TestFiltersEmptyMatchesEverything(t *testing.T) {
	assert.Empty(t, tickets.Filters{}.Criteria())

	svc := newTestService(t)
	seedSearchFixtures(t, svc)

	page, err := svc.List(context.Background(), tickets.Filters{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalElements)
}

func TestFiltersByStatus(t *testing.T) {
	svc := newTestService(t)
	seedSearchFixtures(t, svc)

	page, err := svc.List(context.Background(), tickets.Filters{Status: tickets.StatusActive}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"widget-rollout"}, slugs(page))
}

func TestFiltersByStatusNot(t *testing.T) {
	svc := newTestService(t)
	seedSearchFixtures(t, svc)

	page, err := svc.List(context.Background(), tickets.Filters{StatusNot: tickets.StatusArchived}, 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"widget-rollout", "db-migration"}, slugs(page))
}

func TestFiltersByVisibility(t *testing.T) {
	svc := newTestService(t)
	seedSearchFixtures(t, svc)

	page, err := svc.List(context.Background(), tickets.Filters{Visibility: tickets.VisibilityPrivate}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"db-migration"}, slugs(page))
}

func TestFiltersSearchIsCaseInsensitive(t *testing.T) {
	svc := newTestService(t)
	seedSearchFixtures(t, svc)

	page, err := svc.List(context.Background(), tickets.Filters{Search: "WIDGET"}, 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"widget-rollout", "widget-cleanup"}, slugs(page))
}

func TestFiltersSearchTokensAreConjunctive(t *testing.T) {
	svc := newTestService(t)
	seedSearchFixtures(t, svc)

	// "widget" matches two tickets, "billing" only appears in the rollout's
	// background; both tokens must match
	page, err := svc.List(context.Background(), tickets.Filters{Search: "widget billing"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"widget-rollout"}, slugs(page))
}

func TestFiltersSearchScansTextColumns(t *testing.T) {
	svc := newTestService(t)
	seedSearchFixtures(t, svc)
	ctx := context.Background()

	rollout, err := svc.GetBySlug(ctx, "widget-rollout")
	require.NoError(t, err)

	_, err = svc.Update(ctx, rollout.ID, tickets.UpdateTicketInput{
		Slug:       rollout.Slug,
		Status:     rollout.Status,
		Visibility: rollout.Visibility,
		StartDate:  rollout.StartDate,
		Background: rollout.Background,
		Learned:    "observability pays for itself",
	})
	require.NoError(t, err)

	page, err := svc.List(ctx, tickets.Filters{Search: "observability"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"widget-rollout"}, slugs(page))
}

func TestFiltersCompose(t *testing.T) {
	svc := newTestService(t)
	seedSearchFixtures(t, svc)

	page, err := svc.List(context.Background(), tickets.Filters{
		Status: tickets.StatusArchived,
		Search: "widget",
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"widget-cleanup"}, slugs(page))
}

func TestFiltersWhitespaceSearchIsIgnored(t *testing.T) {
	filters := tickets.Filters{Search: "   "}
	assert.Empty(t, filters.Criteria())

	svc := newTestService(t)
	seedSearchFixtures(t, svc)

	page, err := svc.List(context.Background(), filters, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalElements)
}
