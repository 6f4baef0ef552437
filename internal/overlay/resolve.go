package overlay

// PostFor returns the post-script entry attached to dst. Post-scripts
// are resolved by their own priority independent of which group
// supplied the chosen content for dst, so a higher-priority script
// from a different overlay subtree always wins (spec.md §3 "Chosen
// map" invariants); the walk's priority-indexed insert already picked
// the single highest-priority candidate per destination.
func (r *Result) PostFor(dst string) (Entry, bool) {
	post, ok := r.Posts[dst]
	return post, ok
}

// AmbiguityError renders all ambiguities as the "print all candidates"
// message spec.md §7 requires before a nonzero exit.
type AmbiguityError struct {
	Ambiguities []Ambiguity
}

func (e *AmbiguityError) Error() string {
	s := "ambiguous overlay entries:\n"
	for _, a := range e.Ambiguities {
		s += "  " + a.DstPath + ":\n"
		for _, ent := range a.Entries {
			s += "    " + ent.SrcPath + "\n"
		}
	}
	return s
}

// Validate returns an *AmbiguityError if the walk produced any
// ambiguous destination, nil otherwise. Callers run this immediately
// after Walk and before consuming Chosen/Posts for anything but
// diagnostics, per spec.md §4.2's "the run aborts ... refuses to guess".
func (r *Result) Validate() error {
	if len(r.Ambiguous) == 0 {
		return nil
	}
	return &AmbiguityError{Ambiguities: r.Ambiguous}
}
