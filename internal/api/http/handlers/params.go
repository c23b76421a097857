package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sukritx/roommatebase/internal/auth"
	"github.com/sukritx/roommatebase/internal/service"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, apperrors.NewUnauthenticated("authentication required")
	}
	return service.Actor{UserID: principal.UserID, Role: principal.Role}, nil
}

// pathID reads a UUID path parameter. Malformed ids cannot name a record.
func pathID(c *fiber.Ctx, key, resource string) (string, error) {
	raw := c.Params(key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.NewNotFound(resource, nil)
	}
	return id.String(), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return 0, apperrors.NewValidationError("invalid query", map[string]any{key: "must be a non-negative integer"})
	}
	return parsed, nil
}

func parseOptionalInt(c *fiber.Ctx, key string) (*int, error) {
	if c.Query(key) == "" {
		return nil, nil
	}
	v, err := parseIntQuery(c, key, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	val := c.Query(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid query", map[string]any{key: "must be a number"})
	}
	return &parsed, nil
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
