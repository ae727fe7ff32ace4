package validation

import (
	"context"

	"detector/internal/domain"
)

type PersonRegistry = Registry[domain.Person]

// PersonValidator checks that people are in good standing with the person
// registry.
type PersonValidator struct {
	checker *checker[domain.Person]
}

func NewPersonValidator(registry PersonRegistry, opts ...Option) (*PersonValidator, error) {
	c, err := newChecker("person", registry, opts)
	if err != nil {
		return nil, err
	}
	return &PersonValidator{checker: c}, nil
}

// IsValid looks up a single person. An unknown person is invalid.
func (v *PersonValidator) IsValid(ctx context.Context, code string) bool {
	return v.checker.isValid(ctx, code, domain.Person.InGoodStanding)
}

// AreValid resolves all codes in one bulk lookup and reports a verdict for
// every requested code.
func (v *PersonValidator) AreValid(ctx context.Context, codes []string) map[string]bool {
	return v.checker.areValid(ctx, codes, domain.Person.InGoodStanding)
}

// AreValidAsync is AreValid on its own goroutine. If the check does not
// finish within the validator timeout every code is reported invalid.
func (v *PersonValidator) AreValidAsync(ctx context.Context, codes []string) <-chan map[string]bool {
	return v.checker.areValidAsync(ctx, codes, domain.Person.InGoodStanding)
}
