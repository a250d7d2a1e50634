package leave

import "context"

// CredentialStore holds username/password pairs, one disjoint set per role.
type CredentialStore interface {
	Write(ctx context.Context, username, password string, role Role) error
	Verify(ctx context.Context, username, password string, role Role) (bool, error)
}

// ApplicationStore holds leave applications in creation order.
type ApplicationStore interface {
	Save(ctx context.Context, app Application) (Application, error)
	List(ctx context.Context) ([]Application, error)
	SetDecision(ctx context.Context, index int, d Decision) error
}

// Initializer prepares a backend on first run.
type Initializer interface {
	Init(ctx context.Context) error
}

// Backend is everything the service needs from persistence.
type Backend interface {
	CredentialStore
	ApplicationStore
	Initializer
	Close() error
}
