package middleware

import "github.com/gofiber/fiber/v2"

const (
	// RequesterHeader carries the member ID of the caller on
	// membership-gated endpoints.
	RequesterHeader = "X-Member-ID"
	// RequesterLocalKey is the key used to store the requester's member ID
	// in Fiber's context locals.
	RequesterLocalKey = "requester_id"
)

// Requester extracts the caller's member identity from X-Member-ID and
// stores it in context locals. The header is optional here; endpoints that
// require membership reject requests whose identity fails the membership
// check downstream.
func Requester() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := c.Get(RequesterHeader); id != "" {
			c.Locals(RequesterLocalKey, id)
		}
		return c.Next()
	}
}
