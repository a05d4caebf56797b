package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/inkpress/backoffice/internal/logging"
)

// actorFromCtx builds the audit actor from the identity the JWT
// middleware stored in Locals. Returns nil on unauthenticated routes,
// which the facade records as an anonymous event.
func actorFromCtx(c *fiber.Ctx) *logging.Actor {
	id, _ := c.Locals("actor_id").(string)
	email, _ := c.Locals("email").(string)
	if id == "" && email == "" {
		return nil
	}
	return &logging.Actor{ID: id, Email: email}
}

// reqMeta captures the server-observed request metadata for an audit
// entry's context. Client-claimed values are never consulted.
func reqMeta(c *fiber.Ctx) *logging.RequestMeta {
	return &logging.RequestMeta{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

// parseDateParam accepts RFC3339 or a bare date. Bare dates used as a
// range end resolve to the end of that day so the bound stays inclusive.
func parseDateParam(s string, endOfDay bool) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
