package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"freightflow/internal/invoice"
	"freightflow/internal/repository"
	"freightflow/internal/service"
)

// OwnerHeader identifies the broker on every owner-scoped route.
// Authenticating that identity is an upstream concern (gateway/session);
// this service only scopes reads and writes by it.
const OwnerHeader = "X-Broker-Email"

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, ingestSvc service.IngestService, invSvc service.InvoiceService, rec *service.Reconciler) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/invoices/upload", UploadCSV(ingestSvc))
	app.Get("/invoices", ListInvoices(invSvc))
	app.Patch("/invoices/:id/paid", SetPaid(invSvc))
	app.Post("/invoices/paid", BulkSetPaid(invSvc))
	app.Get("/kpis", KPIs(invSvc))
	app.Get("/report.csv", ReportCSV(invSvc))
	app.Post("/reconcile", Reconcile(rec))
}

// HealthCheck verifies DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadCSV ingests one broker CSV file (multipart/form-data, field "file").
func UploadCSV(svc service.IngestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(OwnerHeader)
		if owner == "" {
			return writeError(c, fiber.StatusBadRequest, "OWNER_REQUIRED", "broker email header is required")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		summary, err := svc.Upload(c.UserContext(), owner, f, fh.Filename, fh.Size)
		if err != nil {
			if errors.Is(err, invoice.ErrEmptyCSV) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_CSV", "csv is empty or invalid")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(summary)
	}
}

// ListInvoices returns one cursor page of the broker's records.
func ListInvoices(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(OwnerHeader)
		if owner == "" {
			return writeError(c, fiber.StatusBadRequest, "OWNER_REQUIRED", "broker email header is required")
		}
		limit := 0
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			}
			limit = n
		}
		res, err := svc.List(c.UserContext(), owner, c.Query("cursor"), limit)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

type paidRequest struct {
	Field string `json:"field"`
	Value bool   `json:"value"`
}

type bulkPaidRequest struct {
	IDs   []string `json:"ids"`
	Field string   `json:"field"`
	Value bool     `json:"value"`
}

func validPaidField(field string) bool {
	return field == repository.FieldShipperPaid || field == repository.FieldCarrierPaid
}

// SetPaid toggles one paid flag on one record.
func SetPaid(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(OwnerHeader)
		if owner == "" {
			return writeError(c, fiber.StatusBadRequest, "OWNER_REQUIRED", "broker email header is required")
		}
		var req paidRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if !validPaidField(req.Field) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FIELD", "field must be shipper_paid or carrier_paid")
		}
		if err := svc.SetPaid(c.UserContext(), owner, c.Params("id"), req.Field, req.Value); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "invoice not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// BulkSetPaid applies one paid-flag value across a set of record ids.
func BulkSetPaid(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(OwnerHeader)
		if owner == "" {
			return writeError(c, fiber.StatusBadRequest, "OWNER_REQUIRED", "broker email header is required")
		}
		var req bulkPaidRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if !validPaidField(req.Field) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FIELD", "field must be shipper_paid or carrier_paid")
		}
		if len(req.IDs) == 0 {
			return writeError(c, fiber.StatusBadRequest, "IDS_REQUIRED", "at least one id is required")
		}
		updated, err := svc.BulkSetPaid(c.UserContext(), owner, req.IDs, req.Field, req.Value)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"updated": updated})
	}
}

// KPIs returns the broker's cash-flow metrics.
func KPIs(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(OwnerHeader)
		if owner == "" {
			return writeError(c, fiber.StatusBadRequest, "OWNER_REQUIRED", "broker email header is required")
		}
		kpis, err := svc.KPIs(c.UserContext(), owner)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(kpis)
	}
}

// ReportCSV streams the broker's CSV report.
func ReportCSV(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(OwnerHeader)
		if owner == "" {
			return writeError(c, fiber.StatusBadRequest, "OWNER_REQUIRED", "broker email header is required")
		}
		data, err := svc.Report(c.UserContext(), owner)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="freightflow_report.csv"`)
		return c.Send(data)
	}
}

// Reconcile triggers an on-demand reconciliation run for the broker.
func Reconcile(rec *service.Reconciler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(OwnerHeader)
		if owner == "" {
			return writeError(c, fiber.StatusBadRequest, "OWNER_REQUIRED", "broker email header is required")
		}
		stats, err := rec.Run(c.UserContext(), owner)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(stats)
	}
}
