package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradedesk/dashboard/internal/api/metrics"
	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

// refreshSkew refreshes access tokens slightly before they expire.
const refreshSkew = 30 * time.Second

// SessionService resolves request credentials against the identity provider,
// refreshing the access token when it is expired or about to expire.
type SessionService struct {
	idp    ports.IdentityProvider
	log    zerolog.Logger
	now    func() time.Time
	parser *jwt.Parser
}

func NewSessionService(idp ports.IdentityProvider, log zerolog.Logger) *SessionService {
	return &SessionService{
		idp:    idp,
		log:    log,
		now:    time.Now,
		parser: jwt.NewParser(),
	}
}

// Resolve never reports an anonymous request as an error; an error means the
// provider could not be asked and the caller must treat the request as
// unauthenticated.
func (s *SessionService) Resolve(ctx context.Context, accessToken, refreshToken string) (ports.SessionResolution, error) {
	var res ports.SessionResolution
	if accessToken == "" && refreshToken == "" {
		return res, nil
	}

	ctx, span := tracer.Start(ctx, "session.resolve")
	defer span.End()

	if refreshToken != "" && (accessToken == "" || s.expiring(accessToken)) {
		if err := s.refresh(ctx, refreshToken, &res); err != nil || res.Cleared {
			return res, err
		}
		accessToken = res.Refreshed.AccessToken
	}

	if accessToken == "" {
		return res, nil
	}

	user, err := s.idp.GetUser(ctx, accessToken)
	// A rejected token still gets one refresh when it was not refreshed above.
	if err != nil && isDeadCredential(err) && res.Refreshed == nil && refreshToken != "" {
		if rerr := s.refresh(ctx, refreshToken, &res); rerr != nil || res.Cleared {
			return res, rerr
		}
		user, err = s.idp.GetUser(ctx, res.Refreshed.AccessToken)
	}
	if err != nil {
		if isDeadCredential(err) {
			res.Refreshed = nil
			res.Cleared = true
			return res, nil
		}
		span.RecordError(err)
		return res, fmt.Errorf("get user: %w", err)
	}
	res.User = user
	return res, nil
}

// refresh exchanges refreshToken and stores the outcome in res. A dead
// refresh token sets res.Cleared and is not an error.
func (s *SessionService) refresh(ctx context.Context, refreshToken string, res *ports.SessionResolution) error {
	sess, err := s.idp.RefreshSession(ctx, refreshToken)
	if err != nil {
		metrics.SessionRefreshesTotal.WithLabelValues("error").Inc()
		if isDeadCredential(err) {
			res.Cleared = true
			return nil
		}
		trace.SpanFromContext(ctx).RecordError(err)
		return fmt.Errorf("refresh session: %w", err)
	}
	metrics.SessionRefreshesTotal.WithLabelValues("ok").Inc()
	res.Refreshed = sess
	return nil
}

// expiring decodes the token without verifying it; verification is the
// provider's job. Tokens that cannot be decoded are left to the provider.
func (s *SessionService) expiring(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(s.now().Add(refreshSkew))
}

func isDeadCredential(err error) bool {
	return errors.Is(err, domain.ErrSessionExpired) ||
		errors.Is(err, domain.ErrInvalidCredentials) ||
		errors.Is(err, domain.ErrUnauthenticated) ||
		errors.Is(err, domain.ErrUserNotFound)
}
