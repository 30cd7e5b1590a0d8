// Package harness executes declarative YAML scenarios against a real
// state cache. Each scenario opens a fresh store in a scratch directory,
// applies its steps in order, then evaluates every assertion against the
// final state. Assertion failures are collected, not fail-fast, so one
// run reports everything that diverged.
package harness

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mirrorfs/statecache/internal/statecache"
	"github.com/mirrorfs/statecache/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// Result holds the outcome of a scenario run.
type Result struct {
	ScenarioName string
	Failures     []error
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes a scenario against a fresh store and returns the result.
//
// Steps are applied in order; a step error aborts the run, since later
// assertions would be evaluated against an unintended state. Assertions
// are evaluated to completion and failures collected into the result.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "statecache-harness-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := statecache.Open(dir, testutil.ScratchAccount(), testutil.NopCipher{})
	if err != nil {
		return nil, fmt.Errorf("failed to open scratch store: %w", err)
	}
	defer st.Close()

	for i, step := range scenario.Steps {
		if err := applyStep(st, step); err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}
	}

	result := &Result{ScenarioName: scenario.Name}
	for _, assertion := range scenario.Assertions {
		if err := evaluateAssertion(st, assertion); err != nil {
			result.Failures = append(result.Failures, err)
		}
	}
	return result, nil
}

func applyStep(st *statecache.Store, step Step) error {
	switch step.Op {
	case "put_scalar":
		return st.PutScalar(*step.Slot, []byte(step.Payload))
	case "put_node":
		var fp []byte
		if step.Fingerprint != "" {
			fp = []byte(step.Fingerprint)
		}
		return st.PutNode(statecache.NodeRecord{
			Handle:       step.Handle,
			ParentHandle: step.Parent,
			Fingerprint:  fp,
			AttrString:   step.Attr,
			Shared:       statecache.SharedState(step.Shared),
			Payload:      []byte(step.Payload),
		})
	case "put_user":
		return st.PutUser(step.Handle, []byte(step.Payload))
	case "put_pcr":
		return st.PutPendingRequest(step.Handle, []byte(step.Payload))
	case "delete_node":
		return st.DeleteNode(step.Handle)
	case "delete_user":
		return st.DeleteUser(step.Handle)
	case "delete_pcr":
		return st.DeletePendingRequest(step.Handle)
	case "begin":
		return st.Begin()
	case "commit":
		return st.Commit()
	case "abort":
		return st.Abort()
	case "truncate":
		return st.Truncate()
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func evaluateAssertion(st *statecache.Store, a Assertion) error {
	switch a.Type {
	case AssertScalarEquals:
		got, err := st.GetScalar(*a.Slot)
		if statecache.IsNotFound(err) {
			return failed(a.Type, fmt.Sprintf("slot %d = %q", *a.Slot, a.Payload), "slot is empty")
		}
		if err != nil {
			return err
		}
		if string(got) != a.Payload {
			return failed(a.Type, fmt.Sprintf("slot %d = %q", *a.Slot, a.Payload), fmt.Sprintf("%q", got))
		}
	case AssertScalarAbsent:
		_, err := st.GetScalar(*a.Slot)
		if err == nil {
			return failed(a.Type, fmt.Sprintf("slot %d empty", *a.Slot), "slot holds content")
		}
		if !statecache.IsNotFound(err) {
			return err
		}
	case AssertNodePayload:
		got, err := st.GetNode(a.Handle)
		if statecache.IsNotFound(err) {
			return failed(a.Type, fmt.Sprintf("node %d = %q", a.Handle, a.Payload), "node absent")
		}
		if err != nil {
			return err
		}
		if string(got) != a.Payload {
			return failed(a.Type, fmt.Sprintf("node %d = %q", a.Handle, a.Payload), fmt.Sprintf("%q", got))
		}
	case AssertNodeAbsent:
		_, err := st.GetNode(a.Handle)
		if err == nil {
			return failed(a.Type, fmt.Sprintf("node %d absent", a.Handle), "node exists")
		}
		if !statecache.IsNotFound(err) {
			return err
		}
	case AssertChildrenCount:
		return checkCount(a, st.CountChildren)
	case AssertChildFilesCount:
		return checkCount(a, st.CountChildFiles)
	case AssertChildFolders:
		return checkCount(a, st.CountChildFolders)
	case AssertChildrenSet:
		c, err := st.Children(a.Parent)
		if err != nil {
			return err
		}
		return checkHandleSet(a, c)
	case AssertOutsharesSet:
		c, err := outsharesCursor(st, a)
		if err != nil {
			return err
		}
		return checkHandleSet(a, c)
	case AssertPendingSharesSet:
		c, err := pendingSharesCursor(st, a)
		if err != nil {
			return err
		}
		return checkHandleSet(a, c)
	case AssertUsersCount:
		return checkStatsCount(st, a, func(s statecache.Stats) int64 { return s.Users })
	case AssertPCRsCount:
		return checkStatsCount(st, a, func(s statecache.Stats) int64 { return s.PendingRequests })
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// outsharesCursor scopes to a.Parent when one is given.
func outsharesCursor(st *statecache.Store, a Assertion) (*statecache.HandleCursor, error) {
	if a.Parent != 0 {
		return st.OutsharesOf(a.Parent)
	}
	return st.Outshares()
}

func pendingSharesCursor(st *statecache.Store, a Assertion) (*statecache.HandleCursor, error) {
	if a.Parent != 0 {
		return st.PendingSharesOf(a.Parent)
	}
	return st.PendingShares()
}

func checkCount(a Assertion, count func(int64) (int, error)) error {
	got, err := count(a.Parent)
	if err != nil {
		return err
	}
	if got != a.Count {
		return failed(a.Type, fmt.Sprintf("%d under parent %d", a.Count, a.Parent), fmt.Sprintf("%d", got))
	}
	return nil
}

func checkStatsCount(st *statecache.Store, a Assertion, pick func(statecache.Stats) int64) error {
	stats, err := st.Stats()
	if err != nil {
		return err
	}
	if got := pick(stats); got != int64(a.Count) {
		return failed(a.Type, fmt.Sprintf("%d rows", a.Count), fmt.Sprintf("%d rows", got))
	}
	return nil
}

// checkHandleSet drains the cursor and compares as a set. Enumeration
// order is unspecified, so both sides are sorted before comparison.
func checkHandleSet(a Assertion, c *statecache.HandleCursor) error {
	defer c.Close()

	var got []int64
	for {
		h, ok, err := c.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		got = append(got, h)
	}

	want := append([]int64(nil), a.Handles...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	if !equalHandles(got, want) {
		return failed(a.Type, fmt.Sprintf("handles %v", want), fmt.Sprintf("handles %v", got))
	}
	return nil
}

func equalHandles(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func failed(typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual}
}
