package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// App holds the HTTP handlers.
type App struct {
	Svc    *Service
	Google *GoogleCalendarConfig
	Log    zerolog.Logger
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidInterval):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrTypeInactive):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error()}
	if errors.Is(err, ErrSlotUnavailable) {
		body["retry"] = "re-fetch availability and choose another time"
	}
	c.JSON(status, body)
}

func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, key string) (Date, bool) {
	v := c.Query(key)
	if v == "" {
		return Date{}, true
	}
	d, err := ParseDate(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + ": " + err.Error()})
		return Date{}, false
	}
	return d, true
}

func typeIDQuery(c *gin.Context) (*uuid.UUID, bool) {
	v := c.Query("type_id")
	if v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type_id"})
		return nil, false
	}
	return &id, true
}

// GET /healthz
func (a *App) HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := a.Svc.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GET /api/appointment-types
func (a *App) ListPublicTypesHandler(c *gin.Context) {
	types, err := a.Svc.ListAppointmentTypes(c.Request.Context(), true)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

// GET /api/availability?date=YYYY-MM-DD&type_id=
func (a *App) GetAvailabilityHandler(c *gin.Context) {
	date, ok := dateQuery(c, "date")
	if !ok {
		return
	}
	if date.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date required (YYYY-MM-DD)"})
		return
	}
	typeID, ok := typeIDQuery(c)
	if !ok {
		return
	}
	day, err := a.Svc.Availability(c.Request.Context(), date, typeID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// GET /api/availability/range?from=&to=&type_id=
func (a *App) GetAvailabilityRangeHandler(c *gin.Context) {
	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}
	typeID, ok := typeIDQuery(c)
	if !ok {
		return
	}
	days, err := a.Svc.AvailabilityRange(c.Request.Context(), from, to, typeID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// POST /api/bookings
// CreateBookingHandler is the public booking endpoint. Customers always book
// a specific appointment type.
func (a *App) CreateBookingHandler(c *gin.Context) {
	var req BookingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AppointmentTypeID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "appointment_type_id is required"})
		return
	}
	a.book(c, req)
}

// CreateStaffBookingHandler lets staff book with or without a type.
func (a *App) CreateStaffBookingHandler(c *gin.Context) {
	var req BookingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.book(c, req)
}

func (a *App) book(c *gin.Context, req BookingRequest) {
	appt, err := a.Svc.Book(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// -- admin: appointment types --

type appointmentTypeReq struct {
	AppointmentType
	Active *bool `json:"active"`
}

func (a *App) ListTypesHandler(c *gin.Context) {
	types, err := a.Svc.ListAppointmentTypes(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (a *App) CreateTypeHandler(c *gin.Context) {
	var req appointmentTypeReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t := req.AppointmentType
	t.Active = req.Active == nil || *req.Active
	if err := a.Svc.CreateAppointmentType(c.Request.Context(), &t); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (a *App) GetTypeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	t, err := a.Svc.GetAppointmentType(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *App) UpdateTypeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch AppointmentTypePatch
	if err := c.BindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := a.Svc.UpdateAppointmentType(c.Request.Context(), id, patch)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *App) DeleteTypeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.Svc.DeleteAppointmentType(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -- admin: recurring rules --

type ruleReq struct {
	RecurringAvailabilityRule
	Active *bool `json:"active"`
}

func (a *App) ListRulesHandler(c *gin.Context) {
	rules, err := a.Svc.ListRules(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// POST /api/admin/rules accepts one rule or a list of rules.
func (a *App) CreateRuleHandler(c *gin.Context) {
	var payload []ruleReq
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raw = bytes.TrimSpace(raw)
	single := len(raw) > 0 && raw[0] == '{'
	if err := decodeOneOrMany(raw, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one rule is required"})
		return
	}

	saved := make([]RecurringAvailabilityRule, 0, len(payload))
	for _, req := range payload {
		r := req.RecurringAvailabilityRule
		r.Active = req.Active == nil || *req.Active
		saved = append(saved, r)
	}
	if err := a.Svc.CreateRules(c.Request.Context(), saved); err != nil {
		a.fail(c, err)
		return
	}
	if single {
		c.JSON(http.StatusCreated, saved[0])
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func decodeOneOrMany(raw []byte, out *[]ruleReq) error {
	if len(raw) > 0 && raw[0] == '{' {
		var one ruleReq
		if err := json.Unmarshal(raw, &one); err != nil {
			return err
		}
		*out = []ruleReq{one}
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (a *App) GetRuleHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	r, err := a.Svc.GetRule(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (a *App) UpdateRuleHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch RulePatch
	if err := c.BindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := a.Svc.UpdateRule(c.Request.Context(), id, patch)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (a *App) DeleteRuleHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.Svc.DeleteRule(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -- admin: date overrides --

// GET /api/admin/overrides?from=&to=
func (a *App) ListOverridesHandler(c *gin.Context) {
	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}
	overrides, err := a.Svc.ListOverrides(c.Request.Context(), from, to)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overrides)
}

func (a *App) CreateOverrideHandler(c *gin.Context) {
	var o DateOverride
	if err := c.BindJSON(&o); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.Svc.CreateOverride(c.Request.Context(), &o); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (a *App) GetOverrideHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	o, err := a.Svc.GetOverride(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *App) UpdateOverrideHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch OverridePatch
	if err := c.BindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := a.Svc.UpdateOverride(c.Request.Context(), id, patch)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *App) DeleteOverrideHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.Svc.DeleteOverride(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -- admin: bookings --

// GET /api/admin/bookings?from=&to=&status=&limit=
func (a *App) ListBookingsHandler(c *gin.Context) {
	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}
	f := AppointmentFilter{From: from, To: to, Status: AppointmentStatus(c.Query("status"))}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		f.Limit = limit
	}
	bookings, err := a.Svc.ListAppointments(c.Request.Context(), f)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (a *App) GetBookingHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b, err := a.Svc.GetAppointment(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// TransitionBookingHandler returns a handler moving a booking to status to.
func (a *App) TransitionBookingHandler(to AppointmentStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		b, err := a.Svc.TransitionAppointment(c.Request.Context(), id, to)
		if err != nil {
			a.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func (a *App) DeleteBookingHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := a.Svc.DeleteAppointment(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/calendar/summary?from=&to=
func (a *App) CalendarSummaryHandler(c *gin.Context) {
	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}
	days, err := a.Svc.CalendarSummary(c.Request.Context(), from, to)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}
