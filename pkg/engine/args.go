package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// kwArgs is a builtin's argument list split into keyword and positional
// parts. order records keywords in first-seen order for error messages.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// keywordName reports whether s is a preprocessed keyword and returns its
// bare name.
func keywordName(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// parseArgs splits args. A keyword takes the following argument as its
// value; a trailing keyword gets SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := keywordName(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		if _, seen := pa.kw[name]; !seen {
			pa.order = append(pa.order, name)
		}
		var val zygo.Sexp = zygo.SexpNull
		if i+1 < len(args) {
			i++
			val = args[i]
		}
		pa.kw[name] = val
	}
	return pa
}

func describe(s zygo.Sexp) string {
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

// toInt accepts integers and whole floats.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %s", describe(s))
	}
	return int(f), nil
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", describe(s))
}

// toField renders a value in catalog text form. Numbers print in shortest
// form, booleans as 1 or 0, and lists as space-separated items.
func toField(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return v.S, nil
	case *zygo.SexpInt:
		return strconv.FormatInt(v.Val, 10), nil
	case *zygo.SexpFloat:
		return strconv.FormatFloat(v.Val, 'g', -1, 64), nil
	case *zygo.SexpBool:
		if v.Val {
			return "1", nil
		}
		return "0", nil
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := listItems(s)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(items))
		for i, it := range items {
			if parts[i], err = toField(it); err != nil {
				return "", fmt.Errorf("item %d: %w", i, err)
			}
		}
		return strings.Join(parts, " "), nil
	}
	return "", fmt.Errorf("expected string, number or list, got %s", describe(s))
}

// listItems returns the elements of a list or array; nil is empty.
func listItems(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}
