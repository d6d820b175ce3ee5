package vmsync

import (
	"context"
	"errors"

	"infra-inventory/core/logger"
	"infra-inventory/feature/vmsync/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the VM inventory.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the VM inventory routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/vms")
	group.Get("/", h.HandleListVMs)
	group.Post("/sync", h.HandleTriggerSync)
	group.Get("/sync/status", h.HandleSyncStatus)
	group.Get("/sync/runs", h.HandleSyncRuns)
	group.Get("/sync/runs/:id/report", h.HandleSyncReport)
}

// HandleTriggerSync runs a manual VM sync and waits for it to finish.
// @Summary Trigger VM Sync
// @Description Pulls the current VM list from the discovery service and reconciles the inventory. Rejected with 409 while another sync runs.
// @Tags vms
// @Produce json
// @Success 200 {object} models.TriggerResult "Sync Result"
// @Failure 409 {object} models.TriggerResult "Sync already in progress"
// @Failure 500 {object} models.TriggerResult "Sync Failed"
// @Router /vms/sync [post]
func (h *Handler) HandleTriggerSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Manual VM sync requested")

	// The run completes even if the client disconnects.
	ctx := context.WithoutCancel(c.UserContext())
	result, err := h.service.Trigger(ctx)
	if errors.Is(err, ErrAlreadyRunning) {
		return c.Status(fiber.StatusConflict).JSON(result)
	}
	if !result.Success {
		l.Error("Manual VM sync failed", zap.String("message", result.Message))
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}

	return c.JSON(result)
}

// HandleSyncStatus reports whether a sync is running and the last outcome.
// @Summary VM Sync Status
// @Tags vms
// @Produce json
// @Success 200 {object} models.Status "Status"
// @Router /vms/sync/status [get]
func (h *Handler) HandleSyncStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleSyncRuns lists recent sync runs.
// @Summary List VM Sync Runs
// @Tags vms
// @Produce json
// @Param limit query int false "Maximum number of runs (default 50)"
// @Success 200 {array} models.SyncRun "Runs"
// @Failure 404 {object} map[string]string "History disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /vms/sync/runs [get]
func (h *Handler) HandleSyncRuns(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	runs, err := h.service.Runs(c.UserContext(), c.QueryInt("limit", 50))
	if errors.Is(err, ErrHistoryDisabled) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Failed to list sync runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	return c.JSON(runs)
}

// HandleSyncReport returns the archived report of one run.
// @Summary Get VM Sync Report
// @Tags vms
// @Produce json
// @Param id path string true "Run id"
// @Success 200 {object} models.RunReport "Report"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /vms/sync/runs/{id}/report [get]
func (h *Handler) HandleSyncReport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.Report(c.UserContext(), c.Params("id"))
	switch {
	case errors.Is(err, ErrRunNotFound), errors.Is(err, ErrArchiveDisabled), errors.Is(err, ErrHistoryDisabled):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		l.Error("Failed to load sync report", zap.String("run_id", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleListVMs lists inventoried virtual machines.
// @Summary List Virtual Machines
// @Tags vms
// @Produce json
// @Param server query string false "Parent server id"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.VirtualMachine "Virtual Machines"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /vms [get]
func (h *Handler) HandleListVMs(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	vms, err := h.service.ListVMs(c.UserContext(), ListOptions{
		ParentID: c.Query("server"),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		l.Error("Failed to list virtual machines", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if vms == nil {
		vms = []models.VirtualMachine{}
	}
	return c.JSON(vms)
}
