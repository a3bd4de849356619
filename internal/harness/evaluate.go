package harness

import (
	"github.com/roach88/routecheck/internal/invocation"
)

// Target names what a manifest expects the agent to route to.
// An empty field disables that axis.
type Target struct {
	Skill string
	Agent string
}

// Verdict holds the per-axis evaluation of one test case.
type Verdict struct {
	Triggered      bool
	AgentTriggered bool
	SkillPass      bool
	AgentPass      bool
	ToolsPass      bool
	Pass           bool

	// MissingTools lists expected tools that were not used.
	MissingTools []string
}

// Evaluate scores the invocations observed for tc against target.
//
// The skill and agent axes compare "was the target invoked" with
// tc.ShouldTrigger; an untargeted axis always passes. The tools axis is a
// subset check that only applies when tc.ShouldTrigger is true.
func Evaluate(tc TestCase, target Target, inv *invocation.Invocations) Verdict {
	var v Verdict

	v.SkillPass = true
	if target.Skill != "" {
		v.Triggered = inv.Skills.Contains(target.Skill)
		v.SkillPass = v.Triggered == tc.ShouldTrigger
	}

	v.AgentPass = true
	if target.Agent != "" {
		v.AgentTriggered = inv.Subagents.Contains(target.Agent)
		v.AgentPass = v.AgentTriggered == tc.ShouldTrigger
	}

	v.ToolsPass = true
	if tc.ShouldTrigger && len(tc.ExpectedTools) > 0 {
		v.MissingTools = inv.Tools.Missing(tc.ExpectedTools)
		v.ToolsPass = len(v.MissingTools) == 0
	}

	v.Pass = v.SkillPass && v.AgentPass && v.ToolsPass
	return v
}
