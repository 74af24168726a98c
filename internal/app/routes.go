package app

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public, staff and Google Calendar routes.
// bookingLimit throttles the public booking endpoint; it may be nil.
func (a *App) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc, bookingLimit gin.HandlerFunc) {
	router.GET("/healthz", a.HealthHandler)

	// OAuth2 callback (must be outside auth middleware)
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	{
		api.GET("/appointment-types", a.ListPublicTypesHandler)
		api.GET("/availability", a.GetAvailabilityHandler)
		api.GET("/availability/range", a.GetAvailabilityRangeHandler)

		booking := []gin.HandlerFunc{a.CreateBookingHandler}
		if bookingLimit != nil {
			booking = append([]gin.HandlerFunc{bookingLimit}, booking...)
		}
		api.POST("/bookings", booking...)

		api.GET("/calendar/summary", auth, a.CalendarSummaryHandler)

		admin := api.Group("/admin", auth)
		{
			types := admin.Group("/appointment-types")
			{
				types.GET("", a.ListTypesHandler)
				types.POST("", a.CreateTypeHandler)
				types.GET("/:id", a.GetTypeHandler)
				types.PATCH("/:id", a.UpdateTypeHandler)
				types.DELETE("/:id", a.DeleteTypeHandler)
			}

			rules := admin.Group("/rules")
			{
				rules.GET("", a.ListRulesHandler)
				rules.POST("", a.CreateRuleHandler)
				rules.GET("/:id", a.GetRuleHandler)
				rules.PATCH("/:id", a.UpdateRuleHandler)
				rules.DELETE("/:id", a.DeleteRuleHandler)
			}

			overrides := admin.Group("/overrides")
			{
				overrides.GET("", a.ListOverridesHandler)
				overrides.POST("", a.CreateOverrideHandler)
				overrides.GET("/:id", a.GetOverrideHandler)
				overrides.PATCH("/:id", a.UpdateOverrideHandler)
				overrides.DELETE("/:id", a.DeleteOverrideHandler)
			}

			bookings := admin.Group("/bookings")
			{
				bookings.GET("", a.ListBookingsHandler)
				bookings.POST("", a.CreateStaffBookingHandler)
				bookings.GET("/:id", a.GetBookingHandler)
				bookings.POST("/:id/confirm", a.TransitionBookingHandler(StatusConfirmed))
				bookings.POST("/:id/cancel", a.TransitionBookingHandler(StatusCancelled))
				bookings.POST("/:id/complete", a.TransitionBookingHandler(StatusCompleted))
				bookings.DELETE("/:id", a.DeleteBookingHandler)
			}

			google := admin.Group("/google")
			{
				google.GET("/auth", a.GoogleAuthHandler)
				google.GET("/events", a.GetGoogleCalendarEvents)
				google.GET("/calendars", a.GetGoogleCalendarList)
			}
		}
	}
}
