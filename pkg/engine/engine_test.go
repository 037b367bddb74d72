package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEvaluateWithoutVolumes(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"blank lines", "   \n\t  \n  "},
		{"comment only", "; drift chamber, region 1\n"},
		{"plain arithmetic", "(+ 1 2)"},
		{"definitions", "(def paddles 48)\n(def width (/ 30.0 paddles))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if len(evalErrs) > 0 {
				t.Fatalf("eval errors: %v", evalErrs)
			}
			if d == nil {
				t.Fatal("nil detector")
			}
			if d.Tree.Len() != 0 || len(d.Sensitive) != 0 {
				t.Errorf("detector not empty: %d volumes, %d sensitive", d.Tree.Len(), len(d.Sensitive))
			}
		})
	}
}

func TestEvaluateScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unbalanced paren", `(detector "dc"`},
		{"unbalanced on second line", "(detector \"dc\")\n(volume \"a\""},
		{"undefined symbol", `(detector "dc") (volume "a" :type "Box" :dims (list w w w))`},
		{"volume without detector", `(volume "a" :type "Box" :dims "1*cm 1*cm 1*cm")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("script errors must not be fatal: %v", err)
			}
			if d != nil {
				t.Errorf("expected no detector, got %s", d.Name)
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			for _, e := range evalErrs {
				if e.Message == "" {
					t.Error("empty eval error message")
				}
			}
		})
	}
}

func TestEvaluateUsesFreshSandbox(t *testing.T) {
	eng := NewEngine()
	if _, evalErrs, err := eng.Evaluate("(def half 5)"); err != nil || len(evalErrs) > 0 {
		t.Fatalf("first evaluation: %v %v", err, evalErrs)
	}

	// half must not leak into the next evaluation.
	_, evalErrs, err := eng.Evaluate(`(detector "x") (volume "v" :type "Box" :material "G4_AIR" :dims (list half half half))`)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("definition from a previous evaluation was visible")
	}
}

func TestEvaluateRepeatable(t *testing.T) {
	eng := NewEngine()
	source := `(detector "ftof") (volume "panel" :type "Box" :dims "1*cm 1*cm 1*cm" :material "G4_AIR")`
	for i := 0; i < 3; i++ {
		d, evalErrs, err := eng.Evaluate(source)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("run %d: %v %v", i, err, evalErrs)
		}
		if d.Tree.Len() != 1 || d.Tree.Lookup("panel") == nil {
			t.Errorf("run %d: volumes = %d", i, d.Tree.Len())
		}
	}
}

func TestEvaluateLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	eng := NewEngine(WithLogger(zap.New(core)))

	if _, _, err := eng.Evaluate(`(detector "htcc")`); err != nil {
		t.Fatal(err)
	}
	entries := logs.FilterMessage("evaluated").All()
	if len(entries) != 1 {
		t.Fatalf("expected one evaluated entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["detector"]; got != "htcc" {
		t.Errorf("detector field = %v, want htcc", got)
	}

	if _, _, err := eng.Evaluate(`(detector "htcc"`); err != nil {
		t.Fatal(err)
	}
	if n := logs.FilterMessage("script errors").Len(); n != 1 {
		t.Errorf("script errors entries = %d, want 1", n)
	}
}

func TestEvalErrorString(t *testing.T) {
	tests := []struct {
		err  EvalError
		want string
	}{
		{EvalError{Line: 5, Message: "volume a: :type is required"}, "line 5: volume a: :type is required"},
		{EvalError{Message: "volumes declared without a (detector ...) form"}, "volumes declared without a (detector ...) form"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWaitWithTimeout(t *testing.T) {
	t.Run("stale generation", func(t *testing.T) {
		var mu sync.Mutex
		current := uint64(2)
		ch := make(chan evalResult, 1)
		ch <- evalResult{}

		_, _, err := waitWithTimeout(ch, 1, time.Second, &mu, &current)
		if err == nil || !strings.Contains(err.Error(), "superseded") {
			t.Fatalf("expected superseded error, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		// A channel that never delivers stands in for a runaway script.
		var mu sync.Mutex
		current := uint64(1)
		ch := make(chan evalResult)

		done := make(chan error, 1)
		go func() {
			_, _, err := waitWithTimeout(ch, 1, 20*time.Millisecond, &mu, &current)
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil || !strings.Contains(err.Error(), "timed out") {
				t.Fatalf("expected timeout error, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("waitWithTimeout did not give up")
		}
	})
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short form", "line 3: volume paddle: :type is required", 3, ":type is required"},
		{"no line", "volume mirror: unknown keyword :colour", 0, "unknown keyword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("no errors parsed")
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if !strings.Contains(errs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
