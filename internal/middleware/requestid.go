package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// LocalRequestID is the locals key holding the request ID.
const LocalRequestID = "request_id"

// RequestIDHandler tags every request with an ID, reusing the caller's X-Request-ID
// when present.
func RequestIDHandler() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: LocalRequestID,
	})
}

// RequestID returns the ID assigned by RequestIDHandler.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalRequestID).(string)
	return id
}
