// Package harness runs routing test manifests against an agent and scores
// the results.
//
// # Manifest Format
//
// Manifests are YAML files with the following structure:
//
//	skill: demo:foo          # optional target skill
//	agent: code-reviewer     # optional target subagent
//	model: sonnet            # default "sonnet"
//	tests:
//	  - id: t1
//	    prompt: "create a thing"
//	    should_trigger: true
//	    expected_tools: [Read]   # optional
//	    notes: "why this case exists"
//
// Unknown fields are rejected. The structure is additionally checked against
// an embedded CUE schema, so a missing should_trigger or an empty tests list
// is reported before any test runs.
//
// # Verdicts
//
// Each test is scored on three independent axes:
//
//   - skill: the target skill was invoked iff should_trigger. Passes when no
//     skill is targeted.
//   - agent: the target subagent was dispatched iff should_trigger. Passes
//     when no agent is targeted.
//   - tools: when should_trigger is true, every expected tool was used.
//     Extra tools are not a failure.
//
// A test passes when all three axes pass.
//
// A run whose process failed (non-zero exit, timeout, start failure) is
// scored the same way against whatever output was captured; the failure is
// attached to the result as Error and does not by itself fail the test.
//
// # Execution
//
// Tests run strictly one at a time, in manifest order, and manifests run in
// the order given. Each test's process terminates before the next starts.
package harness
