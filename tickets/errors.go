package tickets

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrTicketNotFound is returned when an ID or slug resolves to nothing.
var ErrTicketNotFound = goerrors.New("ticket not found", goerrors.CategoryNotFound).
	WithTextCode("TICKET_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrEntryNotFound is returned when an entry ID resolves to nothing.
var ErrEntryNotFound = goerrors.New("entry not found", goerrors.CategoryNotFound).
	WithTextCode("ENTRY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)
