package stage

import "strings"

// FindStage matches name case-insensitively against s and all transitive
// inputs. Hits are ordered: s itself first, then each direct input that
// matches, with that input's own recursive hits appended immediately
// after it.
func FindStage(s Stage, name string) []Stage {
	var out []Stage

	if strings.EqualFold(s.Name(), name) {
		out = append(out, s)
	}
	for _, in := range s.base().inputs {
		if strings.EqualFold(in.Name(), name) {
			out = append(out, in)
		}
		if len(in.base().inputs) > 0 {
			hits := FindStage(in, name)
			// The input itself was already considered above.
			for _, h := range hits {
				if h != in {
					out = append(out, h)
				}
			}
		}
	}
	return out
}
