// Package api serves the ledger aggregates as JSON over HTTP
package api

import (
	"context"
	"strings"

	"dispatch-ledger/export"
	"dispatch-ledger/metrics"
	"dispatch-ledger/models"
	"dispatch-ledger/services"
	"dispatch-ledger/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server exposes one frozen LoadSet. Every request recomputes its aggregates from the
// request's filter; the set itself is only read.
type Server struct {
	app      *fiber.App
	set      *models.LoadSet
	refs     *models.ReferenceData
	insights *services.InsightService
	printer  *export.PDFPrinter // nil disables /dashboard.pdf
	logger   *utils.Logger
}

// NewServer creates a new Server and registers its routes. refs and printer may be nil.
func NewServer(set *models.LoadSet, refs *models.ReferenceData, insights *services.InsightService,
	printer *export.PDFPrinter, logger *utils.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Dispatch Ledger",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.Error("%s %s: %v", c.Method(), c.Path(), err)
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	s := &Server{
		app:      app,
		set:      set,
		refs:     refs,
		insights: insights,
		printer:  printer,
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := s.app.Group("/api")
	api.Get("/summaries", s.summaries)
	api.Get("/idle", s.idleGaps)
	api.Get("/dashboard", s.dashboard)
	api.Get("/diagnostics", s.diagnostics)

	s.app.Get("/dashboard", s.dashboardHTML)
	s.app.Get("/dashboard.pdf", s.dashboardPDF)
}

// App returns the underlying Fiber app
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info("Serving %d loads on %s", len(s.set.Records), addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":               "OK",
		"service":              "dispatch-ledger",
		"loads":                len(s.set.Records),
		"loads_with_cancelled": len(s.set.AllRecords),
		"market_rates":         s.refs.HasMarketRates(),
		"dead_zones":           s.refs.HasDeadZones(),
		"driver_fc_map":        s.refs.HasDriverDispatcher(),
	})
}

func (s *Server) summaries(c *fiber.Ctx) error {
	return c.JSON(services.AggregateWeekly(s.set.Records, filterFromQuery(c)))
}

func (s *Server) idleGaps(c *fiber.Ctx) error {
	return c.JSON(services.IdleGaps(filterFromQuery(c).Apply(s.set.Records)))
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	return c.JSON(s.report(c))
}

func (s *Server) diagnostics(c *fiber.Ctx) error {
	return c.JSON(s.set.Diagnostics.Sorted())
}

func (s *Server) dashboardHTML(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return export.RenderHTML(c, s.report(c))
}

func (s *Server) dashboardPDF(c *fiber.Ctx) error {
	if s.printer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "pdf export is disabled")
	}
	pdf, err := s.printer.Render(c.UserContext(), s.report(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(pdf)
}

func (s *Server) report(c *fiber.Ctx) *models.DashboardReport {
	report := s.insights.Generate(s.set, filterFromQuery(c), s.refs)
	metrics.ObserveReport()
	return report
}

// filterFromQuery builds the selection from the comma-separated drivers and
// dispatchers query parameters
func filterFromQuery(c *fiber.Ctx) models.FilterSelection {
	return models.NewFilterSelection(splitList(c.Query("drivers")), splitList(c.Query("dispatchers")))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
