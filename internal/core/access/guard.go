package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

// Guard gates operations on verified token claims and, where the caller's
// stored identity matters, on a live stored session.
type Guard struct {
	tokens ports.TokenVerifier
}

func NewGuard(tokens ports.TokenVerifier) *Guard {
	return &Guard{tokens: tokens}
}

// RequireRole verifies token and checks its role against allowed. It never
// touches storage.
func (g *Guard) RequireRole(token string, allowed ...domain.Role) (*domain.Claims, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	for _, r := range allowed {
		if claims.Role == r {
			return claims, nil
		}
	}
	return nil, fmt.Errorf("%w: role %s", domain.ErrAccessDenied, claims.Role)
}

// Authorize is RequireRole with the role set registered for op.
func (g *Guard) Authorize(token string, op Operation) (*domain.Claims, error) {
	roles := RolesFor(op)
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: unknown operation %s", domain.ErrAccessDenied, op)
	}
	return g.RequireRole(token, roles...)
}

// RequireSession authorizes op and then requires resolver to hold token as
// the live session of a principal whose subject matches the claims. A token
// that verifies but is no longer on record yields domain.ErrSessionNotFound.
func (g *Guard) RequireSession(ctx context.Context, resolver ports.SessionResolver, token string, op Operation) (*domain.Principal, error) {
	claims, err := g.Authorize(token, op)
	if err != nil {
		return nil, err
	}
	principal, err := resolver.ResolveByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if principal.Subject() != claims.Subject || principal.Role != claims.Role {
		return nil, domain.ErrSessionNotFound
	}
	return principal, nil
}
