package terms

import (
	"context"
	"fmt"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// Service renders templates for forms.
type Service struct {
	repo   Repository
	policy *bluemonday.Policy
}

// NewService builds the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, policy: bluemonday.UGCPolicy()}
}

// Terms renders the named template with the document in context as doc and
// returns sanitised HTML.
func (s *Service) Terms(ctx context.Context, name string, doc map[string]any) (string, error) {
	t, err := s.repo.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if t.Disabled {
		return "", fmt.Errorf("%w: %s", ErrDisabled, name)
	}
	tpl, err := pongo2.FromString(t.Terms)
	if err != nil {
		return "", fmt.Errorf("terms: parse %s: %w", name, err)
	}
	out, err := tpl.Execute(pongo2.Context{"doc": doc})
	if err != nil {
		return "", fmt.Errorf("terms: render %s: %w", name, err)
	}
	return s.policy.Sanitize(out), nil
}

// List returns the enabled templates matching filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Template, error) {
	return s.repo.List(ctx, filter)
}
