package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarSync mirrors confirmed appointments into the staff calendar.
type CalendarSync interface {
	// PushAppointment creates an event for appt and returns its id.
	PushAppointment(ctx context.Context, appt BookedAppointment, apptType *AppointmentType) (string, error)
	RemoveAppointment(ctx context.Context, eventID string) error
}

type noopCalendarSync struct{}

func (noopCalendarSync) PushAppointment(context.Context, BookedAppointment, *AppointmentType) (string, error) {
	return "", nil
}

func (noopCalendarSync) RemoveAppointment(context.Context, string) error { return nil }

// GoogleCalendarConfig holds OAuth2 configuration
type GoogleCalendarConfig struct {
	Config *oauth2.Config
}

// CalendarEvent represents a Google Calendar event
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	Creator     string    `json:"creator,omitempty"`
}

// NewGoogleCalendarConfig returns nil when any of the OAuth2 settings is
// missing.
func NewGoogleCalendarConfig(clientID, clientSecret, redirectURL string) *GoogleCalendarConfig {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			calendar.CalendarEventsScope,
			calendar.CalendarReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}

	return &GoogleCalendarConfig{Config: config}
}

func (g *GoogleCalendarConfig) service(ctx context.Context, token *oauth2.Token) (*calendar.Service, error) {
	client := g.Config.Client(ctx, token)
	return calendar.NewService(ctx, option.WithHTTPClient(client))
}

// GoogleCalendarSync writes appointments to one Google calendar using a
// stored offline token.
type GoogleCalendarSync struct {
	srv        *calendar.Service
	calendarID string
	loc        *time.Location
}

func NewGoogleCalendarSync(ctx context.Context, cfg *GoogleCalendarConfig, tokenJSON, calendarID string, loc *time.Location) (*GoogleCalendarSync, error) {
	if cfg == nil {
		return nil, fmt.Errorf("google calendar oauth2 is not configured")
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("parse google calendar token: %w", err)
	}
	srv, err := cfg.service(ctx, &token)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GoogleCalendarSync{srv: srv, calendarID: calendarID, loc: loc}, nil
}

func (g *GoogleCalendarSync) PushAppointment(ctx context.Context, appt BookedAppointment, apptType *AppointmentType) (string, error) {
	if appt.CalendarEventID != "" {
		return appt.CalendarEventID, nil
	}
	event := &calendar.Event{
		Summary:     appointmentSummary(appt, apptType),
		Description: appointmentDescription(appt),
		Start: &calendar.EventDateTime{
			DateTime: appt.Date.At(appt.StartTime, g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: appt.Date.At(appt.EndTime, g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
	}
	created, err := g.srv.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

func (g *GoogleCalendarSync) RemoveAppointment(ctx context.Context, eventID string) error {
	if err := g.srv.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", eventID, err)
	}
	return nil
}

func appointmentSummary(appt BookedAppointment, apptType *AppointmentType) string {
	if apptType != nil {
		return fmt.Sprintf("%s: %s", apptType.Name, appt.CustomerName)
	}
	return "Appointment: " + appt.CustomerName
}

func appointmentDescription(appt BookedAppointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Email: %s\n", appt.CustomerEmail)
	if appt.CustomerPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", appt.CustomerPhone)
	}
	if appt.Purpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", appt.Purpose)
	}
	if appt.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", appt.Notes)
	}
	return b.String()
}

// GoogleAuthHandler initiates OAuth2 flow
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state := fmt.Sprintf("staff_%d", time.Now().Unix())
	url := a.Google.Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GoogleOAuth2CallbackHandler exchanges the authorization code. The returned
// token is what GOOGLE_CALENDAR_TOKEN expects.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}

	token, err := a.Google.Config.Exchange(c.Request.Context(), code)
	if err != nil {
		a.Log.Warn().Err(err).Msg("google oauth2 code exchange failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}

	tokenJSON, err := json.Marshal(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"state":   c.Query("state"),
		"token":   string(tokenJSON),
	})
}

func (a *App) googleService(c *gin.Context) (*calendar.Service, bool) {
	if a.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return nil, false
	}
	tokenStr := c.GetHeader("X-Google-Token")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google token required in X-Google-Token header"})
		return nil, false
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token format"})
		return nil, false
	}
	srv, err := a.Google.service(c.Request.Context(), &token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create calendar service"})
		return nil, false
	}
	return srv, true
}

// GetGoogleCalendarEvents fetches events from the staff calendar
func (a *App) GetGoogleCalendarEvents(c *gin.Context) {
	srv, ok := a.googleService(c)
	if !ok {
		return
	}

	calendarID := c.DefaultQuery("calendar_id", "primary")
	eventsCall := srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Context(c.Request.Context())

	if timeMin := c.Query("time_min"); timeMin != "" {
		eventsCall = eventsCall.TimeMin(timeMin)
	}
	if timeMax := c.Query("time_max"); timeMax != "" {
		eventsCall = eventsCall.TimeMax(timeMax)
	}

	events, err := eventsCall.Do()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("failed to retrieve events: %v", err)})
		return
	}

	calendarEvents := make([]CalendarEvent, 0, len(events.Items))
	for _, item := range events.Items {
		event := CalendarEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Status:      item.Status,
		}
		if item.Creator != nil {
			event.Creator = item.Creator.Email
		}
		event.StartTime = parseEventTime(item.Start)
		event.EndTime = parseEventTime(item.End)
		calendarEvents = append(calendarEvents, event)
	}

	c.JSON(http.StatusOK, gin.H{
		"events": calendarEvents,
		"count":  len(calendarEvents),
	})
}

func parseEventTime(t *calendar.EventDateTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse(DateLayout, t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// GetGoogleCalendarList fetches available calendars
func (a *App) GetGoogleCalendarList(c *gin.Context) {
	srv, ok := a.googleService(c)
	if !ok {
		return
	}

	calendarList, err := srv.CalendarList.List().Context(c.Request.Context()).Do()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("failed to retrieve calendars: %v", err)})
		return
	}

	type CalendarInfo struct {
		ID          string `json:"id"`
		Summary     string `json:"summary"`
		Description string `json:"description,omitempty"`
		Primary     bool   `json:"primary"`
		AccessRole  string `json:"access_role"`
	}

	calendars := make([]CalendarInfo, 0, len(calendarList.Items))
	for _, item := range calendarList.Items {
		calendars = append(calendars, CalendarInfo{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Primary:     item.Primary,
			AccessRole:  item.AccessRole,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"calendars": calendars,
		"count":     len(calendars),
	})
}
