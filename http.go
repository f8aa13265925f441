package pathwise

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// GetSession recovers the SessionObject the JWT middleware stored in the
// request context under key.
func GetSession(c *fiber.Ctx, key string) (*SessionObject, error) {
	val := c.Locals(key)
	if val == nil {
		return nil, ErrUnableToFindSession
	}

	token, ok := val.(*jwt.Token)
	if token == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToMapClaims
	}

	return sessionFromMapClaims(claims)
}

func sessionFromMapClaims(claims jwt.MapClaims) (*SessionObject, error) {
	session := &SessionObject{}

	if v, ok := claims["uid"].(string); ok {
		session.UserID = v
	}

	if session.UserID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			session.UserID = sub
		}
	}

	if v, ok := claims["email"].(string); ok {
		session.Email = v
	}

	if v, ok := claims["role"].(string); ok {
		session.Role = UserRole(v)
	}

	if iss, err := claims.GetIssuer(); err == nil {
		session.Issuer = iss
	}

	if aud, err := claims.GetAudience(); err == nil {
		session.Audience = aud
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		session.IssuedAt = &t
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		session.ExpirationDate = &t
	}

	if session.UserID == "" {
		return nil, ErrUnableToMapClaims
	}

	return session, nil
}

// APIError is the JSON shape every failed request returns. Message and code
// are safe for clients; the underlying detail only goes to the logs.
type APIError struct {
	Message  string `json:"message"`
	TextCode string `json:"code,omitempty"`
}

type errorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

// RenderError maps a rich error onto an HTTP status and a generic JSON body.
// Conflict errors intentionally render as plain validation failures so the
// API never confirms whether an email is registered.
func RenderError(c *fiber.Ctx, logger Logger, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	logger.Error("request failed %s %s: %s category=%s details=%s",
		c.Method(), c.Path(), richErr.Message, richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata))

	status := fiber.StatusInternalServerError
	body := APIError{Message: "An unexpected error occurred"}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		status = fiber.StatusBadRequest
		body = APIError{Message: richErr.Message, TextCode: richErr.TextCode}
	case errors.CategoryAuth:
		status = fiber.StatusUnauthorized
		body = APIError{Message: "Authentication failed", TextCode: richErr.TextCode}
	case errors.CategoryAuthz:
		status = fiber.StatusForbidden
		body = APIError{Message: "Forbidden", TextCode: richErr.TextCode}
	case errors.CategoryNotFound:
		status = fiber.StatusNotFound
		body = APIError{Message: "Not found", TextCode: richErr.TextCode}
	case errors.CategoryConflict:
		status = fiber.StatusBadRequest
		body = APIError{Message: "Unable to process request"}
	}

	return c.Status(status).JSON(errorResponse{Success: false, Error: body})
}

// IsTokenExpiredError reports whether err (at any wrap depth) is the expired
// token sentinel.
func IsTokenExpiredError(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == ErrTokenExpired.TextCode
	}
	return errors.Is(err, jwt.ErrTokenExpired)
}

// IsMalformedError reports whether err is a structurally invalid token.
func IsMalformedError(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == ErrTokenMalformed.TextCode
	}
	return errors.Is(err, jwt.ErrTokenMalformed)
}

// TokenDuration converts the configured expiration hours to a duration,
// falling back to 24h when unset.
func TokenDuration(cfg Config) time.Duration {
	if cfg.GetTokenExpiration() > 0 {
		return time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}
	return 24 * time.Hour
}
