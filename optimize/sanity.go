package optimize

import (
	"fmt"

	"github.com/nexusfab/nexus/signal"
)

// Sanity walks every live signal in module and checks dual-edge symmetry
// (with the flop clock/reset exception) and, when forbidConstInputs is true,
// that no gate has a constant input. Every violation is collected and
// reported together via a *SanityError; nothing is reported as soon as it is
// found (mirrors nxopt_sanity.cpp's all_ok accumulator).
func Sanity(m *signal.Module, forbidConstInputs bool) error {
	var violations []SanityViolation

	hasOutput := func(s *signal.Signal, h signal.Handle) bool {
		for _, o := range s.Outputs {
			if o == h {
				return true
			}
		}
		return false
	}
	hasInput := func(s *signal.Signal, h signal.Handle) bool {
		for _, i := range s.Inputs {
			if i == h {
				return true
			}
		}
		return false
	}

	for _, h := range m.AllSignals() {
		s := m.Get(h)

		for _, inH := range s.Inputs {
			if inH == h {
				continue
			}
			in := m.Get(inH)
			if !hasOutput(in, h) {
				violations = append(violations, SanityViolation{
					Signal:  in.Name,
					Message: fmt.Sprintf("missing output edge to %q", s.Name),
				})
			}
		}

		for _, outH := range s.Outputs {
			if outH == h {
				continue
			}
			out := m.Get(outH)
			if out.Kind == signal.KindFlop && (out.Clock == h || out.Reset == h) {
				continue
			}
			if !hasInput(out, h) {
				violations = append(violations, SanityViolation{
					Signal:  out.Name,
					Message: fmt.Sprintf("missing input edge from %q", s.Name),
				})
			}
		}

		if !forbidConstInputs || s.Kind != signal.KindGate {
			continue
		}
		for _, inH := range s.Inputs {
			in := m.Get(inH)
			if in.IsConstant() {
				violations = append(violations, SanityViolation{
					Signal: s.Name,
					Message: fmt.Sprintf("gate with operation %s is driven by constant %q",
						s.Op, in.Name),
				})
			}
		}
	}

	if len(violations) > 0 {
		return &SanityError{Violations: violations}
	}
	return nil
}
