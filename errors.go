package pathwise

import (
	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials covers both "no such account" and "wrong password".
// Keeping a single error prevents account enumeration through the login
// endpoint.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned by the credential hasher when the
// plaintext does not match the stored digest.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_VALUE").
	WithCode(errors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned once an account exceeds the attempt
// budget inside the cool-down window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode("TOO_MANY_LOGIN_ATTEMPTS").
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned by the token codec for expired tokens.
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned by the token codec for any token that fails
// signature or structural validation. Callers treat it as "no session".
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrEmailTaken signals a registration against an existing email. The HTTP
// layer renders it with the same generic body as a validation failure so the
// endpoint does not confirm account existence.
var ErrEmailTaken = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN").
	WithCode(errors.CodeConflict)

// ErrConfirmationMismatch rejects GDPR deletion requests whose confirmation
// phrase is not the exact literal.
var ErrConfirmationMismatch = errors.New("confirmation phrase does not match", errors.CategoryValidation).
	WithTextCode("GDPR_CONFIRMATION_MISMATCH").
	WithCode(errors.CodeBadRequest)

// ErrIdentityNotFound is used internally when an account lookup comes back
// empty. It must never surface through the login endpoint.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrUnableToFindSession is returned when a protected handler runs without
// the middleware having stored a token in the request context.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode("SESSION_MISSING").
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession is returned when request-scoped claims cannot be
// recovered from the middleware context.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE").
	WithCode(errors.CodeUnauthorized)

// ErrUnableToMapClaims is returned when the stored token carries claims in an
// unexpected shape.
var ErrUnableToMapClaims = errors.New("unable to map session claims", errors.CategoryAuth).
	WithTextCode("SESSION_CLAIMS").
	WithCode(errors.CodeUnauthorized)
