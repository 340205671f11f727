package simdrive

// rule is one guarded branch of a control policy. Rules in a table are tried
// in rank order and the first whose guard holds decides the value; a nil
// guard always holds and must come last.
type rule struct {
	rank int
	name string
	when func(s *SimDrive, i int) bool
	then func(s *SimDrive, i int) float64
}

// decide evaluates table at step i and returns the value and the rank of the
// rule that fired.
func decide(table []rule, s *SimDrive, i int) (float64, int) {
	for _, r := range table {
		if r.when == nil || r.when(s, i) {
			return r.then(s, i), r.rank
		}
	}
	// Tables end with an unconditional rule; reaching this is a programming error.
	panic("simdrive: rule table without fallback")
}
