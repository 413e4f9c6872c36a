package tickets

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketStatus is the ticket lifecycle state
type TicketStatus = string

const (
	// StatusActive is a ticket currently being worked
	StatusActive TicketStatus = "ACTIVE"
	// StatusCompleted is a finished ticket
	StatusCompleted TicketStatus = "COMPLETED"
	// StatusArchived is a ticket removed from circulation without deleting it
	StatusArchived TicketStatus = "ARCHIVED"
)

// Visibility controls who may read a row
type Visibility = string

const (
	// VisibilityPublic rows are readable without authentication
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate rows require an authenticated caller
	VisibilityPrivate Visibility = "private"
)

// Ticket is the ticket model. IDs are random nine digit numbers so URLs do
// not leak creation order.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:tkt"`
	ID            int64      `bun:"id,pk" json:"id"`
	Slug          string     `bun:"slug,notnull,unique" json:"slug"`
	Title         string     `bun:"title,notnull" json:"title"`
	Status        string     `bun:"status,notnull" json:"status"`
	Visibility    string     `bun:"visibility,notnull" json:"visibility"`
	StartDate     time.Time  `bun:"start_date,notnull" json:"start_date"`
	EndDate       *time.Time `bun:"end_date,nullzero" json:"end_date,omitempty"`
	Background    string     `bun:"background,type:text" json:"background,omitempty"`
	Technologies  []string   `bun:"technologies" json:"technologies,omitempty"`
	Learned       string     `bun:"learned,type:text" json:"learned,omitempty"`
	Roadblocks    string     `bun:"roadblocks_summary,type:text" json:"roadblocks_summary,omitempty"`
	Metrics       string     `bun:"metrics_summary,type:text" json:"metrics_summary,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	Entries       []*Entry   `bun:"rel:has-many,join:id=ticket_id" json:"entries,omitempty"`
}

// Entry is a dated log line inside a ticket
type Entry struct {
	bun.BaseModel `bun:"table:entries,alias:ent"`
	ID            int64      `bun:"id,pk" json:"id"`
	TicketID      int64      `bun:"ticket_id,notnull" json:"ticket_id"`
	Ticket        *Ticket    `bun:"rel:belongs-to,join:ticket_id=id" json:"-"`
	Date          time.Time  `bun:"date,notnull" json:"date"`
	Title         string     `bun:"title" json:"title,omitempty"`
	Body          string     `bun:"body,type:text" json:"body,omitempty"`
	Technologies  []string   `bun:"technologies" json:"technologies,omitempty"`
	Visibility    string     `bun:"visibility,notnull" json:"visibility"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
