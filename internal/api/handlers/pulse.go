/**
 * @description
 * Pulse API Handlers.
 * Dashboard reads (history, metrics, last 7 days, details), the manual
 * trigger and the SSE stream of pulse updates.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/middleware
 * - backend/internal/services
 */

package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daily-pulse/backend/internal/api/middleware"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
	"github.com/daily-pulse/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	invalidDateMessage = "Invalid date format. Use YYYY-MM-DD"
	streamHeartbeat    = 25 * time.Second
)

type PulseHandler struct {
	Pulse   *services.PulseService
	History *services.HistoryService
	Hub     *services.PulseStreamHub
}

func NewPulseHandler(pulse *services.PulseService, history *services.HistoryService, hub *services.PulseStreamHub) *PulseHandler {
	return &PulseHandler{
		Pulse:   pulse,
		History: history,
		Hub:     hub,
	}
}

type triggerRequest struct {
	Date string `json:"date"`
}

// GetHistory returns date/status/score/sp500 summaries, ascending
// GET /api/pulse/history?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *PulseHandler) GetHistory(c *fiber.Ctx) error {
	start, err := optionalDate(c.Query("start"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidDateMessage})
	}
	end, err := optionalDate(c.Query("end"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidDateMessage})
	}

	history, err := h.History.History(c.Context(), start, end)
	if err != nil {
		logger.Error("Failed to fetch history: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch history",
		})
	}
	return c.JSON(history)
}

// GetMetrics returns steady/distressed counts for the last 7 and 30 days
// GET /api/pulse/metrics
func (h *PulseHandler) GetMetrics(c *fiber.Ctx) error {
	metrics, err := h.History.Metrics(c.Context())
	if err != nil {
		logger.Error("Failed to calculate metrics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to calculate metrics",
		})
	}
	return c.JSON(metrics)
}

// GetLastSevenDays returns full records of the trailing week
// GET /api/pulse/last-7-days
func (h *PulseHandler) GetLastSevenDays(c *fiber.Ctx) error {
	pulses, err := h.History.LastDays(c.Context(), 7)
	if err != nil {
		logger.Error("Failed to fetch last 7 days: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch last 7 days data",
		})
	}
	return c.JSON(pulses)
}

// GetDetails returns the full record of one date
// GET /api/pulse/details/:date
func (h *PulseHandler) GetDetails(c *fiber.Ctx) error {
	date, err := models.ParseDate(c.Params("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidDateMessage})
	}

	pulse, err := h.History.Details(c.Context(), date)
	if err != nil {
		if errors.Is(err, services.ErrPulseNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pulse not found"})
		}
		logger.Error("Failed to fetch pulse details: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch pulse details",
		})
	}
	return c.JSON(pulse)
}

// TriggerCheck runs the daily check for the given date, or today
// POST /api/pulse/trigger-check
func (h *PulseHandler) TriggerCheck(c *fiber.Ctx) error {
	var req triggerRequest
	if body := c.Body(); len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := models.ParseDate(req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidDateMessage})
		}
		date = parsed
	}

	triggeredBy, err := middleware.TriggeredBy(c)
	if err != nil {
		triggeredBy = "anonymous"
	}
	log := logger.With("triggered_by", triggeredBy, "date", req.Date)
	log.Infof("Manual pulse check requested")

	result, err := h.Pulse.RunDailyCheck(c.Context(), date)
	if err != nil {
		log.Errorf("Manual pulse check failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// StreamUpdates streams pulse writes over SSE
// GET /api/pulse/stream
func (h *PulseHandler) StreamUpdates(c *fiber.Ctx) error {
	if h.Hub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Stream unavailable"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	updates, unsubscribe := h.Hub.Subscribe()
	requestDone := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		// Flush headers right away so clients see the stream open
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-requestDone:
				return
			case payload, ok := <-updates:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

func optionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	date, err := models.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
