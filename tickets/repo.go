package tickets

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Repository is the persistence surface for tickets and entries.
type Repository struct {
	db *bun.DB
}

// NewRepository creates a new repository.
func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of tickets matching the filters, newest start date
// first, plus the unpaged match count.
func (r *Repository) List(ctx context.Context, filters Filters, page, size int) ([]*Ticket, int, error) {
	var records []*Ticket

	q := r.db.NewSelect().Model(&records)
	for _, c := range filters.Criteria() {
		q.Apply(c)
	}

	total, err := q.
		Order("start_date DESC").
		Limit(size).
		Offset(page * size).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list tickets")
	}

	return records, total, nil
}

// GetByID fetches a single ticket without its entries.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Ticket, error) {
	record := &Ticket{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch ticket")
	}
	return record, nil
}

// GetBySlug fetches a ticket with its entries eagerly loaded.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Ticket, error) {
	record := &Ticket{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Entries", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("date DESC")
		}).
		Where("?TableAlias.slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch ticket by slug")
	}
	return record, nil
}

// ExistsByID reports whether a ticket ID is taken. The ID generator uses it
// as its collision predicate.
func (r *Repository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.db.NewSelect().
		Model((*Ticket)(nil)).
		Where("?TableAlias.id = ?", id).
		Exists(ctx)
}

// Create inserts a ticket.
func (r *Repository) Create(ctx context.Context, record *Ticket) (*Ticket, error) {
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create ticket")
	}
	return record, nil
}

// Update persists changes to an existing ticket.
func (r *Repository) Update(ctx context.Context, record *Ticket) (*Ticket, error) {
	now := time.Now()
	record.UpdatedAt = &now

	res, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update ticket")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrTicketNotFound
	}
	return record, nil
}

// CountByStatus counts tickets in a given status. A non-empty visibility
// restricts the count to rows with that visibility.
func (r *Repository) CountByStatus(ctx context.Context, status TicketStatus, visibility string) (int, error) {
	q := r.db.NewSelect().
		Model((*Ticket)(nil)).
		Where("?TableAlias.status = ?", status)
	if visibility != "" {
		q = q.Where("?TableAlias.visibility = ?", visibility)
	}
	return q.Count(ctx)
}

// ListByStatus returns up to limit tickets in status, newest start date
// first. A non-empty visibility restricts the rows to that visibility.
func (r *Repository) ListByStatus(ctx context.Context, status TicketStatus, visibility string, limit int) ([]*Ticket, error) {
	var records []*Ticket
	q := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", status)
	if visibility != "" {
		q = q.Where("?TableAlias.visibility = ?", visibility)
	}
	err := q.
		Order("start_date DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list tickets by status")
	}
	return records, nil
}

// ListEntries returns one page of a ticket's entries, newest date first,
// plus the unpaged count.
func (r *Repository) ListEntries(ctx context.Context, ticketID int64, visibility string, page, size int) ([]*Entry, int, error) {
	var records []*Entry

	q := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.ticket_id = ?", ticketID)

	if visibility != "" {
		q = q.Where("?TableAlias.visibility = ?", visibility)
	}

	total, err := q.
		Order("date DESC").
		Limit(size).
		Offset(page * size).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list entries")
	}

	return records, total, nil
}

// GetEntryByID fetches a single entry.
func (r *Repository) GetEntryByID(ctx context.Context, id int64) (*Entry, error) {
	record := &Entry{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch entry")
	}
	return record, nil
}

// EntryExistsByID is the entry ID generator's collision predicate.
func (r *Repository) EntryExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.db.NewSelect().
		Model((*Entry)(nil)).
		Where("?TableAlias.id = ?", id).
		Exists(ctx)
}

// CreateEntry inserts an entry.
func (r *Repository) CreateEntry(ctx context.Context, record *Entry) (*Entry, error) {
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create entry")
	}
	return record, nil
}

// UpdateEntry persists changes to an existing entry.
func (r *Repository) UpdateEntry(ctx context.Context, record *Entry) (*Entry, error) {
	now := time.Now()
	record.UpdatedAt = &now

	res, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrEntryNotFound
	}
	return record, nil
}

// RecentEntries returns the latest entries across every ticket. A non-empty
// visibility restricts the rows to that visibility.
func (r *Repository) RecentEntries(ctx context.Context, visibility string, limit int) ([]*Entry, error) {
	var records []*Entry
	q := r.db.NewSelect().Model(&records)
	if visibility != "" {
		q = q.Where("?TableAlias.visibility = ?", visibility)
	}
	err := q.
		Order("date DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list recent entries")
	}
	return records, nil
}

// CountEntriesSince counts entries dated strictly after the cutoff. A
// non-empty visibility restricts the count to rows with that visibility.
func (r *Repository) CountEntriesSince(ctx context.Context, cutoff time.Time, visibility string) (int, error) {
	q := r.db.NewSelect().
		Model((*Entry)(nil)).
		Where("?TableAlias.date > ?", cutoff)
	if visibility != "" {
		q = q.Where("?TableAlias.visibility = ?", visibility)
	}
	return q.Count(ctx)
}
