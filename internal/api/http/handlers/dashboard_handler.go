package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trackdesk/trackdesk/internal/auth"
)

// DashboardHandler routes an authenticated caller to the canonical
// dashboard for their role.
type DashboardHandler struct{}

// NewDashboardHandler constructs handler.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Resolve handles GET /dashboard.
func (h *DashboardHandler) Resolve(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.Redirect(auth.LoginPath, fiber.StatusSeeOther)
	}
	return c.Redirect(auth.HomePath(actor.Role), fiber.StatusSeeOther)
}
