package driven

import "context"

// AccessDirectory is the boundary to the external auth/RBAC layer. The
// core never evaluates membership itself; it consumes the resolved set of
// spaces a user may read (public spaces plus private spaces where the
// user is a member).
type AccessDirectory interface {
	// VisibleSpaces returns the IDs of all spaces the user may read.
	// An unknown user sees only public spaces.
	VisibleSpaces(ctx context.Context, userID string) ([]string, error)
}
