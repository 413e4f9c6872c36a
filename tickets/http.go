package tickets

import (
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/hbarros/changelog/auth"
	"github.com/hbarros/changelog/middleware/bearer"
)

// Controller exposes the ticket, entry and dashboard endpoints
type Controller struct {
	service *Service
}

// NewController builds the controller
func NewController(service *Service) *Controller {
	if service == nil {
		panic("tickets controller: missing service")
	}
	return &Controller{service: service}
}

// RegisterRoutes mounts the ticket endpoints. Reads are public but anonymous
// callers only see public rows; every mutation sits behind RequireAuth.
func (t *Controller) RegisterRoutes(app fiber.Router) {
	app.Get("/dashboard", t.DashboardGet)

	app.Get("/tickets", t.ListGet)
	app.Post("/tickets", bearer.RequireAuth(), t.CreatePost)
	app.Get("/tickets/:id<int>", t.DetailGet)
	app.Put("/tickets/:id<int>", bearer.RequireAuth(), t.UpdatePut)
	app.Post("/tickets/:id<int>/archive", bearer.RequireAuth(), t.ArchivePost)
	app.Get("/tickets/slug/:slug", t.SlugGet)

	app.Get("/tickets/:id<int>/entries", t.EntriesGet)
	app.Post("/tickets/:id<int>/entries", bearer.RequireAuth(), t.EntryCreatePost)
	app.Put("/entries/:id<int>", bearer.RequireAuth(), t.EntryUpdatePut)
}

func isAuthenticated(c *fiber.Ctx) bool {
	_, ok := auth.IdentityFromContext(c.UserContext())
	return ok
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (t *Controller) ListGet(c *fiber.Ctx) error {
	filters := Filters{}
	if err := c.QueryParser(&filters); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}

	// anonymous callers are pinned to the public slice
	if !isAuthenticated(c) {
		filters.Visibility = VisibilityPublic
	}

	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", DefaultPageSize)

	result, err := t.service.List(c.UserContext(), filters, page, size)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// TicketPayload is the writable ticket shape shared by create and update
type TicketPayload struct {
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	Visibility   string     `json:"visibility"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Background   string     `json:"background"`
	Technologies []string   `json:"technologies"`
	Learned      string     `json:"learned"`
	Roadblocks   string     `json:"roadblocks_summary"`
	Metrics      string     `json:"metrics_summary"`
}

// Validate will run validation rules
func (p TicketPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Slug, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&p.Status, validation.Required, validation.In(StatusActive, StatusCompleted, StatusArchived)),
		validation.Field(&p.Visibility, validation.Required, validation.In(VisibilityPublic, VisibilityPrivate)),
		validation.Field(&p.StartDate, validation.Required),
	)
}

func (t *Controller) CreatePost(c *fiber.Ctx) error {
	payload := new(TicketPayload)
	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ticket, err := t.service.Create(c.UserContext(), CreateTicketInput{
		Slug:         payload.Slug,
		Title:        payload.Title,
		Status:       payload.Status,
		Visibility:   payload.Visibility,
		StartDate:    payload.StartDate,
		EndDate:      payload.EndDate,
		Background:   payload.Background,
		Technologies: payload.Technologies,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(ticket)
}

func (t *Controller) DetailGet(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ticket, err := t.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	if ticket.Visibility != VisibilityPublic && !isAuthenticated(c) {
		// hide existence of private tickets from anonymous callers
		return ErrTicketNotFound
	}

	return c.JSON(ticket)
}

func (t *Controller) SlugGet(c *fiber.Ctx) error {
	ticket, err := t.service.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}

	if ticket.Visibility != VisibilityPublic && !isAuthenticated(c) {
		return ErrTicketNotFound
	}

	if !isAuthenticated(c) {
		ticket.Entries = filterPublicEntries(ticket.Entries)
	}

	return c.JSON(ticket)
}

func filterPublicEntries(entries []*Entry) []*Entry {
	out := entries[:0]
	for _, e := range entries {
		if e.Visibility == VisibilityPublic {
			out = append(out, e)
		}
	}
	return out
}

func (t *Controller) UpdatePut(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	payload := new(TicketPayload)
	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ticket, err := t.service.Update(c.UserContext(), id, UpdateTicketInput{
		Slug:         payload.Slug,
		Status:       payload.Status,
		Visibility:   payload.Visibility,
		StartDate:    payload.StartDate,
		EndDate:      payload.EndDate,
		Background:   payload.Background,
		Technologies: payload.Technologies,
		Learned:      payload.Learned,
		Roadblocks:   payload.Roadblocks,
		Metrics:      payload.Metrics,
	})
	if err != nil {
		return err
	}

	return c.JSON(ticket)
}

func (t *Controller) ArchivePost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := t.service.Archive(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// EntryPayload is the writable entry shape
type EntryPayload struct {
	Date         time.Time `json:"date"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Technologies []string  `json:"technologies"`
	Visibility   string    `json:"visibility"`
}

// Validate will run validation rules
func (p EntryPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Date, validation.Required),
		validation.Field(&p.Visibility, validation.Required, validation.In(VisibilityPublic, VisibilityPrivate)),
	)
}

func (t *Controller) EntriesGet(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ticket, err := t.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	visibility := ""
	if !isAuthenticated(c) {
		// same not-found as DetailGet so this route cannot confirm existence
		if ticket.Visibility != VisibilityPublic {
			return ErrTicketNotFound
		}
		visibility = VisibilityPublic
	}

	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", DefaultPageSize)

	result, err := t.service.ListEntries(c.UserContext(), id, visibility, page, size)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

func (t *Controller) EntryCreatePost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	payload := new(EntryPayload)
	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	entry, err := t.service.CreateEntry(c.UserContext(), id, CreateEntryInput{
		Date:         payload.Date,
		Title:        payload.Title,
		Body:         payload.Body,
		Technologies: payload.Technologies,
		Visibility:   payload.Visibility,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (t *Controller) EntryUpdatePut(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	payload := new(EntryPayload)
	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	entry, err := t.service.UpdateEntry(c.UserContext(), id, CreateEntryInput{
		Date:         payload.Date,
		Title:        payload.Title,
		Body:         payload.Body,
		Technologies: payload.Technologies,
		Visibility:   payload.Visibility,
	})
	if err != nil {
		return err
	}

	return c.JSON(entry)
}

// DashboardGet serves the aggregate home view. Anonymous callers get it too,
// restricted to the public slice of tickets, entries and counts.
func (t *Controller) DashboardGet(c *fiber.Ctx) error {
	visibility := ""
	if !isAuthenticated(c) {
		visibility = VisibilityPublic
	}

	home, err := t.service.Dashboard(c.UserContext(), visibility)
	if err != nil {
		return err
	}

	return c.JSON(home)
}
