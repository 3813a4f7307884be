package stage

import "github.com/vk/pointpipe/internal/options"

// Helpers for assemblers that hold stages behind the Stage interface,
// where the embedded Base methods are not part of the method set.

// Connect makes upstream an input of downstream.
func Connect(downstream, upstream Stage) {
	downstream.base().SetInput(upstream)
}

// SetOptions replaces a stage's option set.
func SetOptions(s Stage, opts *options.Set) {
	s.base().SetOptions(opts)
}

// AddConditionalOptions merges opts into a stage's options without
// clobbering same-named options already present.
func AddConditionalOptions(s Stage, opts *options.Set) {
	s.base().AddConditionalOptions(opts)
}

// OptionsOf returns a stage's option set.
func OptionsOf(s Stage) *options.Set {
	return s.base().Options()
}
