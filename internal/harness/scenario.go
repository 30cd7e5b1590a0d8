package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario for the state cache.
// Scenarios execute a sequence of cache operations and assert on the
// resulting state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps contains the cache operations to execute, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final cache state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step represents a single cache operation.
type Step struct {
	// Op names the operation: put_scalar, put_node, put_user, put_pcr,
	// delete_node, delete_user, delete_pcr, begin, commit, abort, truncate.
	Op string `yaml:"op"`

	// Slot is the scalar slot id (put_scalar).
	Slot *int `yaml:"slot,omitempty"`

	// Handle identifies the record (put_node, put_user, put_pcr, deletes).
	Handle int64 `yaml:"handle,omitempty"`

	// Parent is the containing folder's handle (put_node).
	Parent int64 `yaml:"parent,omitempty"`

	// Fingerprint marks a node as a file when non-empty (put_node).
	Fingerprint string `yaml:"fingerprint,omitempty"`

	// Attr is the undecryptable attribute blob, if any (put_node).
	Attr *string `yaml:"attr,omitempty"`

	// Shared is the node's share-state discriminator (put_node).
	Shared int `yaml:"shared,omitempty"`

	// Payload is the serialized record content (puts).
	Payload string `yaml:"payload,omitempty"`
}

// Assertion validates final cache state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "scalar_equals": slot content matches payload
	// - "scalar_absent": slot holds no content
	// - "node_payload": node payload matches
	// - "node_absent": node does not exist
	// - "children_count" / "child_files_count" / "child_folders_count"
	// - "children_set": set of child handles under parent
	// - "outshares_set" / "pending_shares_set": share enumeration results
	// - "users_count" / "pcrs_count": table populations
	Type string `yaml:"type"`

	Slot    *int    `yaml:"slot,omitempty"`
	Handle  int64   `yaml:"handle,omitempty"`
	Parent  int64   `yaml:"parent,omitempty"`
	Payload string  `yaml:"payload,omitempty"`
	Count   int     `yaml:"count,omitempty"`
	Handles []int64 `yaml:"handles,omitempty"`
}

// Assertion type constants.
const (
	AssertScalarEquals     = "scalar_equals"
	AssertScalarAbsent     = "scalar_absent"
	AssertNodePayload      = "node_payload"
	AssertNodeAbsent       = "node_absent"
	AssertChildrenCount    = "children_count"
	AssertChildFilesCount  = "child_files_count"
	AssertChildFolders     = "child_folders_count"
	AssertChildrenSet      = "children_set"
	AssertOutsharesSet     = "outshares_set"
	AssertPendingSharesSet = "pending_shares_set"
	AssertUsersCount       = "users_count"
	AssertPCRsCount        = "pcrs_count"
)

// knownOps lists the step operations the runner understands.
var knownOps = map[string]bool{
	"put_scalar": true, "put_node": true, "put_user": true, "put_pcr": true,
	"delete_node": true, "delete_user": true, "delete_pcr": true,
	"begin": true, "commit": true, "abort": true, "truncate": true,
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as load errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Op == "put_scalar" && step.Slot == nil {
			return fmt.Errorf("steps[%d]: slot is required for put_scalar", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertScalarEquals, AssertScalarAbsent:
		if a.Slot == nil {
			return fmt.Errorf("assertions[%d]: slot is required for %s", index, a.Type)
		}
	case AssertNodePayload, AssertNodeAbsent:
		if a.Handle == 0 {
			return fmt.Errorf("assertions[%d]: handle is required for %s", index, a.Type)
		}
	case AssertChildrenCount, AssertChildFilesCount, AssertChildFolders:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertChildrenSet, AssertOutsharesSet, AssertPendingSharesSet:
		// An empty handles list is a valid expectation.
	case AssertUsersCount, AssertPCRsCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
