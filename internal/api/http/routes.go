package httpapi

import (
	"bytes"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/export"
	"github.com/i474232898/weather-dashboard/internal/places"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/summary"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Deps are the services the routes are served from.
type Deps struct {
	Weather  *weather.Service
	Places   *places.Resolver
	Sessions *store.MemoryStore
	Summary  *summary.Service
	Chart    weather.ChartOptions
	Now      func() time.Time // defaults to time.Now
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &handlers{deps: deps}

	v1 := app.Group("/api/v1")

	v1.Get("/fields", h.fields)
	v1.Get("/countries", h.countries)
	v1.Get("/cities", h.cities)
	v1.Get("/model", h.model)

	v1.Post("/sessions", h.createSession)
	v1.Get("/sessions/:id", h.getSession)
	v1.Delete("/sessions/:id", h.deleteSession)
	v1.Post("/sessions/:id/refresh", h.refresh)
	v1.Get("/sessions/:id/chart", h.chart)
	v1.Get("/sessions/:id/export.xlsx", h.exportXLSX)
	v1.Post("/sessions/:id/summary", h.summarize)
}

type handlers struct {
	deps Deps
}

func (h *handlers) fields(c *fiber.Ctx) error {
	mode, err := weather.ParseMode(c.Query("mode", string(weather.ModeCurrent)))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{
		"mode":   mode,
		"fields": h.deps.Weather.Mapping().Options(mode),
	})
}

func (h *handlers) countries(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"countries": h.deps.Places.Directory().Countries()})
}

func (h *handlers) cities(c *fiber.Ctx) error {
	country := c.Query("country")
	if country == "" {
		return fiber.NewError(fiber.StatusBadRequest, "country query parameter is required")
	}
	cities, err := h.deps.Places.Directory().CitiesFor(country)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.JSON(fiber.Map{"country": country, "cities": cities})
}

func (h *handlers) model(c *fiber.Ctx) error {
	sel := h.deps.Summary.Selector()
	return c.JSON(fiber.Map{
		"model": sel.Current(),
		"state": sel.State().String(),
	})
}

func (h *handlers) createSession(c *fiber.Ctx) error {
	sess := h.deps.Sessions.Create()
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (h *handlers) getSession(c *fiber.Ctx) error {
	sess, err := h.deps.Sessions.Get(c.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(sess)
}

func (h *handlers) deleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.deps.Sessions.Get(id); err != nil {
		return toHTTPError(err)
	}
	h.deps.Sessions.Delete(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) refresh(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.deps.Sessions.Get(id); err != nil {
		return toHTTPError(err)
	}

	var req refreshRequest
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	mode, err := weather.ParseMode(req.Mode)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	bounds, err := parseBounds(mode, req.Start, req.End, h.deps.Now())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	loc, err := h.deps.Places.Resolve(req.City, req.Country)
	if err != nil {
		return toHTTPError(err)
	}

	// An empty selection means every option of the mode.
	fields := req.Fields
	if len(fields) == 0 {
		fields = h.deps.Weather.Mapping().Options(mode)
	}

	table, err := h.deps.Weather.Query(c.UserContext(), weather.Request{
		Mode:     mode,
		Location: loc,
		Fields:   fields,
		Bounds:   bounds,
	})
	if err != nil {
		return toHTTPError(err)
	}

	// Last write wins when refreshes overlap.
	_, err = h.deps.Sessions.Update(id, func(s *session.Session) error {
		s.Location = loc
		s.Mode = mode
		s.Fields = fields
		s.Table = table
		return nil
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(weather.Adapt(table, h.deps.Chart))
}

func (h *handlers) chart(c *fiber.Ctx) error {
	sess, err := h.deps.Sessions.Get(c.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if sess.Table == nil {
		return fiber.NewError(fiber.StatusConflict, "no weather data loaded; refresh first")
	}
	return c.JSON(weather.Adapt(sess.Table, h.deps.Chart))
}

func (h *handlers) exportXLSX(c *fiber.Ctx) error {
	sess, err := h.deps.Sessions.Get(c.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if sess.Table == nil {
		return fiber.NewError(fiber.StatusConflict, "no weather data loaded; refresh first")
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sess.Table, h.deps.Chart.UnitFor); err != nil {
		log.Printf("ERROR: export for session %s failed: %v", sess.ID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to export weather data")
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(sess.Location.City + "-" + string(sess.Mode) + ".xlsx")
	return c.Send(buf.Bytes())
}

func (h *handlers) summarize(c *fiber.Ctx) error {
	id := c.Params("id")
	sess, err := h.deps.Sessions.Get(id)
	if err != nil {
		return toHTTPError(err)
	}

	var req summaryRequest
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if sess.Table == nil {
		return fiber.NewError(fiber.StatusConflict, "no weather data loaded; refresh first")
	}

	res := h.deps.Summary.Summarize(c.UserContext(), req.Text, sess.Location.City, sess.Location.Country, sess.Table)

	now := h.deps.Now()
	updated, err := h.deps.Sessions.Update(id, func(s *session.Session) error {
		s.Chat.Append(session.RoleUser, req.Text, now)
		s.Chat.Append(session.RoleAssistant, res.Text, now)
		return nil
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{
		"summary": res.Text,
		"model":   res.Model,
		"outcome": res.Outcome,
		"chat":    updated.Chat.Turns,
	})
}

// toHTTPError maps domain errors onto HTTP statuses.
func toHTTPError(err error) error {
	var (
		unknownField *weather.UnknownFieldError
		invalidRange *weather.InvalidRangeError
		decodeErr    *weather.DecodeError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, places.ErrUnknownPlace):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &invalidRange),
		errors.Is(err, weather.ErrBoundsMismatch),
		errors.Is(err, weather.ErrNoFields),
		errors.Is(err, weather.ErrDuplicateField):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &unknownField):
		return fiber.NewError(fiber.StatusInternalServerError, "field mapping is incomplete")
	case errors.As(err, &decodeErr), errors.Is(err, weather.ErrProviderUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "weather data unavailable")
	default:
		log.Printf("ERROR: unexpected request failure: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
