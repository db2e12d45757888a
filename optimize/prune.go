package optimize

import "github.com/nexusfab/nexus/signal"

// Prune removes every signal whose input and output lists are both empty,
// in a single sweep, and returns the number dropped. Running it twice must
// drop zero signals the second time (spec.md §8 idempotence property):
// since Prune only looks at Inputs/Outputs (never Tags or Kind-specific
// state), a second pass over an already-pruned module trivially finds
// nothing new to drop.
func Prune(m *signal.Module) int {
	candidates := m.AllSignals()
	dropped := 0
	for _, h := range candidates {
		s := m.Get(h)
		if len(s.Inputs) == 0 && len(s.Outputs) == 0 {
			m.DropSignal(h)
			dropped++
		}
	}
	return dropped
}
