package pathwise

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
)

// LoginResult bundles the issued token with the resolved identity and its
// claims snapshot.
type LoginResult struct {
	Identity Identity
	Claims   *JWTClaims
	Token    string
}

// Auther resolves credentials into sessions and sessions back into
// identities.
type Auther struct {
	provider     IdentityProvider
	logger       Logger
	tokenService TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token codec, mainly for tests.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and issues a session. An unknown email and
// a wrong password both surface as ErrInvalidCredentials; callers cannot
// tell the two apart.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Info("login verification failed for %s: %v", email, err)

		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryInternal {
			return nil, richErr
		}
		return nil, ErrInvalidCredentials
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("login identity is nil or zero value")
		return nil, ErrInvalidCredentials
	}

	claims, token, err := s.issueSession(identity)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Identity: identity, Claims: claims, Token: token}, nil
}

// IssueSession mints a token for an already verified identity. Registration
// uses it so a fresh account gets a session exactly as login would.
func (s *Auther) IssueSession(identity Identity) (*LoginResult, error) {
	claims, token, err := s.issueSession(identity)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Identity: identity, Claims: claims, Token: token}, nil
}

// SessionFromToken verifies the raw token and decodes it into a session.
func (s *Auther) SessionFromToken(raw string) (*SessionObject, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed: %v", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %v", err)
		return nil, err
	}

	return session, nil
}

// IdentityFromSession reloads the identity behind a resolved session.
func (s *Auther) IdentityFromSession(ctx context.Context, session *SessionObject) (Identity, error) {
	identity, err := s.provider.FindIdentityByEmail(ctx, session.GetEmail())
	if err != nil {
		s.logger.Error("IdentityFromSession lookup failed: %v", err)
		return nil, err
	}

	return identity, nil
}

func (s *Auther) issueSession(identity Identity) (*JWTClaims, string, error) {
	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("failed to sign session token: %v", err)
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to issue session")
	}

	claims, err := s.tokenService.Validate(token)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "issued token failed validation")
	}

	jwtClaims, ok := claims.(*JWTClaims)
	if !ok {
		return nil, "", errors.New("unexpected claims type", errors.CategoryInternal)
	}

	return jwtClaims, token, nil
}

var _ Authenticator = (*Auther)(nil)
