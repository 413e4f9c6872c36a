package tickets

import (
	"context"
	"time"

	"github.com/hbarros/changelog/ids"
)

const (
	idMin         = 100_000_000
	idMax         = 999_999_999
	idMaxAttempts = 10

	// DefaultPageSize bounds listings when the caller does not pick a size
	DefaultPageSize = 20
	// MaxPageSize is the hard ceiling for a single page
	MaxPageSize = 100

	dashboardActiveLimit  = 10
	dashboardRecentLimit  = 5
	dashboardMetricWindow = 7 * 24 * time.Hour
)

// Page is the envelope every listing returns
type Page[T any] struct {
	Items         []T `json:"items"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"total_elements"`
	TotalPages    int `json:"total_pages"`
}

// DashboardMetrics are the headline counts on the home dashboard
type DashboardMetrics struct {
	ActiveTickets    int        `json:"active_tickets"`
	CompletedTickets int        `json:"completed_tickets"`
	LogsThisWeek     int        `json:"logs_this_week"`
	LastUpdate       *time.Time `json:"last_update,omitempty"`
}

// DashboardHome is the aggregate payload for the dashboard endpoint
type DashboardHome struct {
	ActiveTickets []*Ticket        `json:"active_tickets"`
	RecentEntries []*Entry         `json:"recent_entries"`
	Metrics       DashboardMetrics `json:"metrics"`
}

// Service implements the ticket and entry operations on top of the
// repository, owning ID generation and status transitions.
type Service struct {
	repo      *Repository
	ticketIDs *ids.Generator
	entryIDs  *ids.Generator
	now       func() time.Time
}

// NewService wires a Service over the repository.
func NewService(repo *Repository) *Service {
	// constant range, cannot fail
	ticketIDs, _ := ids.NewGenerator(idMin, idMax, idMaxAttempts, repo.ExistsByID)
	entryIDs, _ := ids.NewGenerator(idMin, idMax, idMaxAttempts, repo.EntryExistsByID)

	return &Service{
		repo:      repo,
		ticketIDs: ticketIDs,
		entryIDs:  entryIDs,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func clampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func totalPages(total, size int) int {
	if total == 0 {
		return 0
	}
	return (total + size - 1) / size
}

// List returns one page of tickets matching the filters.
func (s *Service) List(ctx context.Context, filters Filters, page, size int) (*Page[*Ticket], error) {
	page, size = clampPage(page, size)

	records, total, err := s.repo.List(ctx, filters, page, size)
	if err != nil {
		return nil, err
	}

	return &Page[*Ticket]{
		Items:         records,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
	}, nil
}

// CreateTicketInput carries the writable ticket fields
type CreateTicketInput struct {
	Slug         string
	Title        string
	Status       string
	Visibility   string
	StartDate    time.Time
	EndDate      *time.Time
	Background   string
	Technologies []string
}

// Create assigns a fresh random ID and inserts the ticket.
func (s *Service) Create(ctx context.Context, input CreateTicketInput) (*Ticket, error) {
	id, err := s.ticketIDs.Generate(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &Ticket{
		ID:           id,
		Slug:         input.Slug,
		Title:        input.Title,
		Status:       input.Status,
		Visibility:   input.Visibility,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Background:   input.Background,
		Technologies: input.Technologies,
	}

	return s.repo.Create(ctx, ticket)
}

// GetByID fetches a ticket without entries.
func (s *Service) GetByID(ctx context.Context, id int64) (*Ticket, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug fetches a ticket with its entries.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Ticket, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// UpdateTicketInput carries the updatable ticket fields
type UpdateTicketInput struct {
	Slug         string
	Status       string
	Visibility   string
	StartDate    time.Time
	EndDate      *time.Time
	Background   string
	Technologies []string
	Learned      string
	Roadblocks   string
	Metrics      string
}

// Update replaces the mutable fields of a ticket.
func (s *Service) Update(ctx context.Context, id int64, input UpdateTicketInput) (*Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ticket.Slug = input.Slug
	ticket.Status = input.Status
	ticket.Visibility = input.Visibility
	ticket.StartDate = input.StartDate
	ticket.EndDate = input.EndDate
	ticket.Background = input.Background
	ticket.Technologies = input.Technologies
	ticket.Learned = input.Learned
	ticket.Roadblocks = input.Roadblocks
	ticket.Metrics = input.Metrics

	return s.repo.Update(ctx, ticket)
}

// Archive moves a ticket to ARCHIVED. Tickets are never deleted.
func (s *Service) Archive(ctx context.Context, id int64) error {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ticket.Status = StatusArchived
	_, err = s.repo.Update(ctx, ticket)
	return err
}

// ListEntries returns one page of a ticket's entries. A non-empty
// visibility restricts the page to rows with that visibility.
func (s *Service) ListEntries(ctx context.Context, ticketID int64, visibility string, page, size int) (*Page[*Entry], error) {
	if _, err := s.repo.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}

	page, size = clampPage(page, size)

	records, total, err := s.repo.ListEntries(ctx, ticketID, visibility, page, size)
	if err != nil {
		return nil, err
	}

	return &Page[*Entry]{
		Items:         records,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
	}, nil
}

// CreateEntryInput carries the writable entry fields
type CreateEntryInput struct {
	Date         time.Time
	Title        string
	Body         string
	Technologies []string
	Visibility   string
}

// CreateEntry assigns a fresh random ID and attaches the entry to a ticket.
func (s *Service) CreateEntry(ctx context.Context, ticketID int64, input CreateEntryInput) (*Entry, error) {
	if _, err := s.repo.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}

	id, err := s.entryIDs.Generate(ctx)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:           id,
		TicketID:     ticketID,
		Date:         input.Date,
		Title:        input.Title,
		Body:         input.Body,
		Technologies: input.Technologies,
		Visibility:   input.Visibility,
	}

	return s.repo.CreateEntry(ctx, entry)
}

// UpdateEntry replaces the mutable fields of an entry.
func (s *Service) UpdateEntry(ctx context.Context, id int64, input CreateEntryInput) (*Entry, error) {
	entry, err := s.repo.GetEntryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.Date = input.Date
	entry.Title = input.Title
	entry.Body = input.Body
	entry.Technologies = input.Technologies
	entry.Visibility = input.Visibility

	return s.repo.UpdateEntry(ctx, entry)
}

// Dashboard assembles the home view: bounded active-ticket and recent-entry
// lists plus headline counts over the trailing week. A non-empty visibility
// restricts every list and count to rows with that visibility, so anonymous
// callers never see private work.
func (s *Service) Dashboard(ctx context.Context, visibility string) (*DashboardHome, error) {
	active, err := s.repo.ListByStatus(ctx, StatusActive, visibility, dashboardActiveLimit)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentEntries(ctx, visibility, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	activeCount, err := s.repo.CountByStatus(ctx, StatusActive, visibility)
	if err != nil {
		return nil, err
	}

	completedCount, err := s.repo.CountByStatus(ctx, StatusCompleted, visibility)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-dashboardMetricWindow)
	logsThisWeek, err := s.repo.CountEntriesSince(ctx, cutoff, visibility)
	if err != nil {
		return nil, err
	}

	var lastUpdate *time.Time
	if len(recent) > 0 {
		lastUpdate = &recent[0].Date
	}

	return &DashboardHome{
		ActiveTickets: active,
		RecentEntries: recent,
		Metrics: DashboardMetrics{
			ActiveTickets:    activeCount,
			CompletedTickets: completedCount,
			LogsThisWeek:     logsThisWeek,
			LastUpdate:       lastUpdate,
		},
	}, nil
}
