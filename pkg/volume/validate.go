package volume

import (
	"errors"
	"fmt"
)

// Severity indicates whether a finding blocks placement.
type Severity int

const (
	SeverityError   Severity = iota // blocks placement
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding is one validation result.
type Finding struct {
	Volume   string
	Err      error
	Severity Severity
}

func (f Finding) Error() string {
	return fmt.Sprintf("[%s] %v", f.Severity, f.Err)
}

func (f Finding) Unwrap() error { return f.Err }

// Findings is the output of Validate.
type Findings []Finding

// Err joins every error-severity finding, or returns nil.
func (fs Findings) Err() error {
	var errs []error
	for _, f := range fs {
		if f.Severity == SeverityError {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Warnings returns the warning-severity findings.
func (fs Findings) Warnings() []Finding {
	var out []Finding
	for _, f := range fs {
		if f.Severity == SeverityWarning {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks the tree for placement below root: dangling mothers,
// mother cycles, unresolvable or cyclic boolean operands, and dimension
// arity and units. Every volume is checked, including those outside the
// subtree under root, so one bad record fails the whole tree. Only
// reachability depends on root. It is read-only.
func Validate(t *Tree, root string) Findings {
	var fs Findings
	fs = append(fs, validateMothers(t, root)...)
	fs = append(fs, validateOperands(t)...)
	fs = append(fs, validateDimensions(t)...)
	fs = append(fs, validateReachable(t, root)...)
	return fs
}

// motherChain returns the mother chain of v, outermost first, stopping
// at root, a missing mother, or a repeat.
func motherChain(t *Tree, v *Volume, root string) []string {
	chain := []string{v.Name}
	seen := map[string]bool{v.Name: true}
	for m := v.Mother; !isTop(m, root) && m != "" && !seen[m]; {
		chain = append(chain, m)
		seen[m] = true
		mv := t.Lookup(m)
		if mv == nil {
			break
		}
		m = mv.Mother
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// isTop reports whether m ends a mother chain.
func isTop(m, root string) bool {
	return m == root || m == RootMother
}

// validateMothers reports missing mothers and mother cycles. A volume's
// mother links form a chain, so cycle detection walks each chain with
// 3-colour marking.
func validateMothers(t *Tree, root string) []Finding {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)
	var fs []Finding

	for _, v := range t.Volumes() {
		if v.Mother == "" {
			fs = append(fs, Finding{Volume: v.Name, Severity: SeverityError,
				Err: &ConfigurationError{Volume: v.Name, Reason: "empty mother"}})
			continue
		}
		if !isTop(v.Mother, root) && t.Lookup(v.Mother) == nil {
			fs = append(fs, Finding{Volume: v.Name, Severity: SeverityError,
				Err: &ConfigurationError{Volume: v.Name, Ref: v.Mother, Reason: "mother not found",
					Chain: motherChain(t, v, root)}})
		}
	}

	for _, start := range t.Volumes() {
		if color[start.Name] != white {
			continue
		}
		var path []*Volume
		cur := start
		for cur != nil && color[cur.Name] == white {
			color[cur.Name] = gray
			path = append(path, cur)
			if isTop(cur.Mother, root) {
				break
			}
			cur = t.Lookup(cur.Mother)
		}
		if cur != nil && color[cur.Name] == gray && !isTop(cur.Mother, root) {
			var cycle []string
			for i := len(path) - 1; i >= 0; i-- {
				cycle = append(cycle, path[i].Name)
				if path[i] == cur {
					break
				}
			}
			cycle = append(cycle, cycle[0])
			fs = append(fs, Finding{Volume: cur.Name, Severity: SeverityError,
				Err: &ConfigurationError{Volume: cur.Name, Reason: "mother cycle", Chain: cycle}})
		}
		for _, p := range path {
			color[p.Name] = black
		}
	}
	return fs
}

// validateOperands reports boolean operands that do not exist and
// operand cycles.
func validateOperands(t *Tree) []Finding {
	var fs []Finding
	for _, v := range t.Volumes() {
		op, ok := v.Operation()
		if !ok {
			continue
		}
		for _, name := range []string{op.Left, op.Right} {
			if name == v.Name {
				fs = append(fs, Finding{Volume: v.Name, Severity: SeverityError,
					Err: &ConfigurationError{Volume: v.Name, Ref: name, Reason: "operation uses itself as operand"}})
				continue
			}
			if t.Lookup(name) == nil {
				fs = append(fs, Finding{Volume: v.Name, Severity: SeverityError,
					Err: &ConfigurationError{Volume: v.Name, Ref: name, Reason: "operand not found",
						Chain: []string{v.Mother, v.Name}}})
			}
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)
	var stack []string
	var visit func(v *Volume) bool
	visit = func(v *Volume) bool {
		switch color[v.Name] {
		case black:
			return false
		case gray:
			fs = append(fs, Finding{Volume: v.Name, Severity: SeverityError,
				Err: &ConfigurationError{Volume: v.Name, Reason: "operand cycle",
					Chain: append(append([]string(nil), stack...), v.Name)}})
			return true
		}
		color[v.Name] = gray
		stack = append(stack, v.Name)
		if op, ok := v.Operation(); ok {
			for _, name := range []string{op.Left, op.Right} {
				if o := t.Lookup(name); o != nil && o != v && visit(o) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[v.Name] = black
		return false
	}
	for _, v := range t.Volumes() {
		if color[v.Name] == white && visit(v) {
			// One cycle error is sufficient.
			break
		}
	}
	return fs
}

// validateDimensions checks arity and unit categories of primitives.
// Placeholders (exist=false) are never built and are skipped.
func validateDimensions(t *Tree) []Finding {
	var fs []Finding
	for _, v := range t.Volumes() {
		if _, err := v.Position(); err != nil {
			fs = append(fs, Finding{Volume: v.Name, Err: err, Severity: SeverityError})
		}
		if _, err := v.Rotation(); err != nil {
			fs = append(fs, Finding{Volume: v.Name, Err: err, Severity: SeverityError})
		}
		if _, ok := v.Kind.(Primitive); !ok || !v.Exist {
			continue
		}
		if _, err := v.BaseDims(); err != nil {
			fs = append(fs, Finding{Volume: v.Name, Err: err, Severity: SeverityError})
		}
	}
	return fs
}

// validateReachable warns about volumes that no walk from root visits.
func validateReachable(t *Tree, root string) []Finding {
	reached := make(map[string]bool)
	queue := []string{root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, c := range t.Children(name) {
			if !reached[c.Name] {
				reached[c.Name] = true
				queue = append(queue, c.Name)
			}
		}
	}
	var fs []Finding
	for _, v := range t.Volumes() {
		if !reached[v.Name] {
			fs = append(fs, Finding{Volume: v.Name, Severity: SeverityWarning,
				Err: fmt.Errorf("volume %q is not reachable from %q", v.Name, root)})
		}
	}
	return fs
}
