package shared

import "context"

// Principal describes the authenticated actor resolved from a bearer token.
// Role carries the snapshot taken at token issuance, not the live value.
type Principal struct {
	UserID string
	Role   Role
}

// CanActFor reports whether the principal may operate on the given subject's
// records: the subject themselves, or one of the privileged roles.
func (p Principal) CanActFor(subjectID string, privileged ...Role) bool {
	return p.UserID == subjectID || p.Role.In(privileged...)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
