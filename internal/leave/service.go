package leave

import (
	"context"
	"errors"
	"strconv"

	"leaveportal/internal/metrics"
)

// IndexedApplication pairs an application with its position in the full
// listing, which is what reviewers submit back.
type IndexedApplication struct {
	Index int
	Application
}

// Service coordinates account and leave operations over a backend.
type Service struct {
	creds   CredentialStore
	apps    ApplicationStore
	metrics *metrics.Collectors
}

// NewService creates a service. A nil collector set gets unregistered
// collectors so callers never have to nil-check.
func NewService(creds CredentialStore, apps ApplicationStore, m *metrics.Collectors) *Service {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Service{creds: creds, apps: apps, metrics: m}
}

// Register appends a credential for role.
func (s *Service) Register(ctx context.Context, username, password string, role Role) error {
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	if err := s.creds.Write(ctx, username, password, role); err != nil {
		return err
	}
	s.metrics.Registrations.WithLabelValues(string(role)).Inc()
	return nil
}

// Login checks a username/password pair against role's store.
func (s *Service) Login(ctx context.Context, username, password string, role Role) (bool, error) {
	if username == "" || password == "" {
		s.metrics.Logins.WithLabelValues(string(role), "failure").Inc()
		return false, nil
	}
	ok, err := s.creds.Verify(ctx, username, password, role)
	if err != nil {
		s.metrics.Logins.WithLabelValues(string(role), "error").Inc()
		return false, err
	}
	result := "failure"
	if ok {
		result = "success"
	}
	s.metrics.Logins.WithLabelValues(string(role), result).Inc()
	return ok, nil
}

// Apply records a new pending application.
func (s *Service) Apply(ctx context.Context, app Application) (Application, error) {
	if app.Username == "" {
		return Application{}, errors.New("username required")
	}
	saved, err := s.apps.Save(ctx, app)
	if err != nil {
		return Application{}, err
	}
	s.metrics.Applications.WithLabelValues(strconv.FormatBool(saved.HasAttachment())).Inc()
	return saved, nil
}

// ListFor returns only the applications submitted by username, in order.
func (s *Service) ListFor(ctx context.Context, username string) ([]Application, error) {
	all, err := s.apps.List(ctx)
	if err != nil {
		return nil, err
	}
	var own []Application
	for _, app := range all {
		if app.Username == username {
			own = append(own, app)
		}
	}
	return own, nil
}

// ListAll returns every application with its positional index.
func (s *Service) ListAll(ctx context.Context) ([]IndexedApplication, error) {
	all, err := s.apps.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]IndexedApplication, len(all))
	for i, app := range all {
		out[i] = IndexedApplication{Index: i, Application: app}
	}
	return out, nil
}

// Review records a decision on the application at index.
func (s *Service) Review(ctx context.Context, index int, d Decision) error {
	if err := s.apps.SetDecision(ctx, index, d); err != nil {
		return err
	}
	s.metrics.Reviews.WithLabelValues(string(d)).Inc()
	return nil
}
