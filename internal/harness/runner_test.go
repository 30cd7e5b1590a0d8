package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario file under testdata.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)

			for _, failure := range result.Failures {
				t.Error(failure)
			}
			assert.True(t, result.Passed())
		})
	}
}

func TestRunner_ReportsAllFailures(t *testing.T) {
	slot := 0
	scenario := &Scenario{
		Name:        "failing",
		Description: "both assertions diverge",
		Steps: []Step{
			{Op: "put_user", Handle: 1, Payload: "alice"},
		},
		Assertions: []Assertion{
			{Type: AssertUsersCount, Count: 5},
			{Type: AssertScalarEquals, Slot: &slot, Payload: "never-written"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Passed())
	require.Len(t, result.Failures, 2, "failures are collected, not fail-fast")

	var assertErr *AssertionError
	require.ErrorAs(t, result.Failures[0], &assertErr)
	assert.Equal(t, AssertUsersCount, assertErr.Type)
}

func TestRunner_StepErrorAbortsRun(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad-step",
		Description: "commit without begin",
		Steps: []Step{
			{Op: "commit"},
		},
		Assertions: []Assertion{
			{Type: AssertUsersCount, Count: 0},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")
}

func TestAssertionError_Message(t *testing.T) {
	err := &AssertionError{
		Type:     AssertNodePayload,
		Expected: `node 10 = "FOLDER"`,
		Actual:   "node absent",
	}

	msg := err.Error()
	assert.Contains(t, msg, "node_payload")
	assert.Contains(t, msg, "Expected")
	assert.Contains(t, msg, "node absent")
}
