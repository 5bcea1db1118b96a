package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/njoroofficial/dev-events/internal/delivery/http/helpers"
	"github.com/njoroofficial/dev-events/internal/delivery/http/middleware"
	"github.com/njoroofficial/dev-events/internal/domain"
)

// maxImageBytes caps the size of an uploaded cover image.
const maxImageBytes = 5 << 20

// eventDateLayouts are the accepted formats for the date form field: RFC 3339,
// the datetime-local input format, and a bare date.
var eventDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseEventDate tries each accepted layout in order. Layouts without a zone
// are read as UTC.
func parseEventDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var err error
	for _, layout := range eventDateLayouts {
		var t time.Time
		t, err = time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// parseListField flattens repeated form fields into one list, additionally
// splitting each value on sep. Entries are trimmed, empties dropped, and
// duplicates removed case-insensitively while keeping first-seen order.
func parseListField(values []string, sep string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, sep) {
			item := strings.TrimSpace(part)
			if item == "" {
				continue
			}
			key := strings.ToLower(item)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// EventCacheInvalidator drops cached event responses after a mutation. Wired to
// the Redis response cache in production; a nil invalidator disables it.
type EventCacheInvalidator interface {
	InvalidateEvents(ctx context.Context)
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
	Cache   EventCacheInvalidator
}

func NewEventController(logger *slog.Logger, svc domain.EventService, cache EventCacheInvalidator) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
		Cache:   cache,
	}
}

func (c *EventController) invalidateCache(ctx context.Context) {
	if c.Cache != nil {
		c.Cache.InvalidateEvents(ctx)
	}
}

// ListEventsResponse is the data payload for GET /events (200).
type ListEventsResponse struct {
	Items      []*domain.Event        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListEvents godoc
// @Summary List events
// @Description Returns a paginated list of events sorted by date. Use page and page_size query params. Optional tag filters to events carrying that tag. Public.
// @Tags events
// @Produce json
// @Param tag query string false "Only events tagged with this value"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains items and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), domain.EventFilter{Tag: tag}, params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{Items: events, Pagination: meta})
}

// GetEventSuccessResponse is the success response envelope for GET /events/{slug} (200).
type GetEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetEventBySlug godoc
// @Summary Get an event by slug
// @Description Returns a single event addressed by its URL slug. Public.
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} controllers.GetEventSuccessResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{slug} [get]
func (c *EventController) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slug")
		return
	}
	event, err := c.Service.GetEventBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEventRequest carries the multipart form fields for POST /events. Tags
// arrive as repeated fields or one comma-separated field; agenda entries as
// repeated fields or one newline-separated field.
type CreateEventRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Description string   `json:"description" validate:"required"`
	Overview    string   `json:"overview" validate:"required"`
	Date        string   `json:"date" validate:"required"`
	Location    string   `json:"location" validate:"required"`
	Mode        string   `json:"mode" validate:"required,oneof=online in-person hybrid"`
	Organizer   string   `json:"organizer" validate:"required"`
	Tags        []string `json:"tags"`
	Agenda      []string `json:"agenda"`
}

// Validate implements Validator. Covers the rules struct tags cannot express:
// date format and non-empty tag and agenda lists.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if c.Date != "" {
		if _, err := parseEventDate(c.Date); err != nil {
			errs = append(errs, "date must be an RFC 3339 timestamp or YYYY-MM-DD")
		}
	}
	if len(c.Tags) == 0 {
		errs = append(errs, "at least one tag is required")
	}
	if len(c.Agenda) == 0 {
		errs = append(errs, "at least one agenda item is required")
	}
	return errs
}

// CreateEventSuccessResponse is the success response envelope for POST /events (201).
type CreateEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Create an event from a multipart form. Fields: title, description, overview, date, location, mode (online, in-person, hybrid), organizer, tags, agenda, plus an image file. The slug is derived from the title; a title whose slug is already taken yields a conflict. The authenticated user becomes the event owner.
// @Tags events
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Event title"
// @Param description formData string true "Short description"
// @Param overview formData string true "Long-form overview"
// @Param date formData string true "Event date (RFC 3339 or YYYY-MM-DD)"
// @Param location formData string true "Venue or city"
// @Param mode formData string true "online, in-person, or hybrid"
// @Param organizer formData string true "Organizer name"
// @Param tags formData string true "Tags (repeat the field or comma-separate)"
// @Param agenda formData string true "Agenda items (repeat the field or newline-separate)"
// @Param image formData file true "Cover image (max 5 MB)"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (slug already taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes + 512*1024); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid multipart form")
		return
	}
	req := CreateEventRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Overview:    strings.TrimSpace(r.FormValue("overview")),
		Date:        strings.TrimSpace(r.FormValue("date")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		Mode:        strings.TrimSpace(r.FormValue("mode")),
		Organizer:   strings.TrimSpace(r.FormValue("organizer")),
		Tags:        parseListField(r.MultipartForm.Value["tags"], ","),
		Agenda:      parseListField(r.MultipartForm.Value["agenda"], "\n"),
	}
	if !helpers.ValidateStruct(w, &req) {
		return
	}
	image, ok := c.readEventImage(w, r)
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	date, err := parseEventDate(req.Date)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date must be an RFC 3339 timestamp or YYYY-MM-DD")
		return
	}
	input := domain.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Overview:    req.Overview,
		Date:        date,
		Location:    req.Location,
		Mode:        req.Mode,
		Organizer:   req.Organizer,
		Tags:        req.Tags,
		Agenda:      req.Agenda,
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, input, image)
	if err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "an event with this title already exists")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	c.invalidateCache(r.Context())
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// readEventImage pulls the image file from the multipart form, enforces the
// size cap, and sniffs the content type from the bytes rather than trusting
// the client header. Writes the 400 itself so handlers can bail with a bare
// return.
func (c *EventController) readEventImage(w http.ResponseWriter, r *http.Request) (domain.ImageUpload, bool) {
	file, header, err := r.FormFile("image")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "image file is required")
		return domain.ImageUpload{}, false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "could not read image file")
		return domain.ImageUpload{}, false
	}
	if len(data) == 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "image file is empty")
		return domain.ImageUpload{}, false
	}
	if len(data) > maxImageBytes {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "image must be at most 5 MB")
		return domain.ImageUpload{}, false
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "image must be an image file")
		return domain.ImageUpload{}, false
	}
	return domain.ImageUpload{Filename: header.Filename, ContentType: contentType, Data: data}, true
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All
// fields optional; omitted fields are unchanged. The slug never changes, even
// when the title does.
type UpdateEventRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Overview    *string  `json:"overview"`
	Date        *string  `json:"date"`
	Location    *string  `json:"location"`
	Mode        *string  `json:"mode"`
	Organizer   *string  `json:"organizer"`
	Tags        []string `json:"tags"`
	Agenda      []string `json:"agenda"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Mode != nil && !domain.ValidMode(*u.Mode) {
		errs = append(errs, "mode must be one of online, in-person, hybrid")
	}
	if u.Date != nil {
		if _, err := parseEventDate(*u.Date); err != nil {
			errs = append(errs, "date must be an RFC 3339 timestamp or YYYY-MM-DD")
		}
	}
	if u.Tags != nil && len(u.Tags) == 0 {
		errs = append(errs, "tags cannot be empty")
	}
	if u.Agenda != nil && len(u.Agenda) == 0 {
		errs = append(errs, "agenda cannot be empty")
	}
	return errs
}

// UpdateEventSuccessResponse is the success response envelope for PATCH /events/{eventID} (200).
type UpdateEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UpdateEvent godoc
// @Summary Update event details
// @Description Updates event fields. Only the event owner can update. Optional fields omitted from the body are unchanged; the slug is immutable. Requires authentication.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.UpdateEventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	input := domain.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Overview:    req.Overview,
		Location:    req.Location,
		Mode:        req.Mode,
		Organizer:   req.Organizer,
		Tags:        req.Tags,
		Agenda:      req.Agenda,
	}
	if req.Date != nil {
		date, err := parseEventDate(*req.Date)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date must be an RFC 3339 timestamp or YYYY-MM-DD")
			return
		}
		input.Date = &date
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, ownerID, input)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	c.invalidateCache(r.Context())
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEventResponse is the data payload for DELETE /events/{eventID} (200).
type DeleteEventResponse struct {
	Status string `json:"status"`
}

// DeleteEventSuccessResponse is the success response envelope for DELETE /events/{eventID} (200).
type DeleteEventSuccessResponse struct {
	Data  DeleteEventResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Delete an event. Only the event owner can delete. Bookings referencing the event are kept for the organizer's records. Requires authentication.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.DeleteEventSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	c.invalidateCache(r.Context())
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteEventResponse{Status: "deleted"})
}
