package optimize

import "fmt"

// SanityViolation describes one failed invariant check found by Sanity.
type SanityViolation struct {
	Signal  string
	Message string
}

func (v SanityViolation) Error() string {
	return fmt.Sprintf("%s: %s", v.Signal, v.Message)
}

// SanityError aggregates every violation found by a single Sanity run, so
// that (per spec.md §7) "every violation is reported before abort".
type SanityError struct {
	Violations []SanityViolation
}

func (e *SanityError) Error() string {
	return fmt.Sprintf("sanity check failed with %d violation(s); first: %s",
		len(e.Violations), e.Violations[0].Error())
}
