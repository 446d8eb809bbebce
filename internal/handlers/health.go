package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	serviceName    = "c2w-go-api"
	serviceVersion = "1.0.0"
)

type HealthHandler struct {
	startTime          time.Time
	firestoreEnabled   bool
	firestoreConnected bool
}

// NewHealthHandler takes whether Firestore was requested and whether a client
// was actually created for it
func NewHealthHandler(firestoreEnabled, firestoreConnected bool) *HealthHandler {
	return &HealthHandler{
		startTime:          time.Now(),
		firestoreEnabled:   firestoreEnabled,
		firestoreConnected: firestoreConnected,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
		"uptime":  time.Since(h.startTime).String(),
		"time":    time.Now(),
	})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	status, firestore := "ready", "disabled"
	switch {
	case h.firestoreEnabled && h.firestoreConnected:
		firestore = "ok"
	case h.firestoreEnabled:
		// serving from memory only
		status, firestore = "degraded", "unavailable"
	}

	return c.JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"api":       "ok",
			"firestore": firestore,
		},
	})
}
