// Package invocation finds tool, skill and subagent invocations anywhere in
// a decoded event stream.
package invocation

import (
	"github.com/roach88/routecheck/internal/ir"
)

// Reserved tool names that carry a secondary invocation in their input.
const (
	// SkillTool activates a skill named by input.skill.
	SkillTool = "Skill"

	// TaskTool dispatches a subagent named by input.subagent_type.
	TaskTool = "Task"
)

// Kind distinguishes the three invocation namespaces.
type Kind string

// Invocation kinds.
const (
	KindTool     Kind = "tool"
	KindSkill    Kind = "skill"
	KindSubagent Kind = "subagent"
)

// Invocations holds the deduplicated names discovered per kind.
type Invocations struct {
	Tools     *Set `json:"tools"`
	Skills    *Set `json:"skills"`
	Subagents *Set `json:"subagents"`
}

// New returns an empty Invocations.
func New() *Invocations {
	return &Invocations{
		Tools:     NewSet(),
		Skills:    NewSet(),
		Subagents: NewSet(),
	}
}

// Extract walks every value and returns the invocations found.
func Extract(values []ir.Value) *Invocations {
	inv := New()
	for _, v := range values {
		inv.Visit(v)
	}
	return inv
}

// Visit walks v at any depth and records every tool_use block it contains.
// Recursion continues below a match so nested and parallel calls are all seen.
func (inv *Invocations) Visit(v ir.Value) {
	ir.Walk(v, func(node ir.Value) {
		obj, ok := node.(ir.Object)
		if !ok {
			return
		}
		inv.record(obj)
	})
}

// Add records name under kind. Empty names are ignored.
func (inv *Invocations) Add(kind Kind, name string) {
	if name == "" {
		return
	}
	switch kind {
	case KindTool:
		inv.Tools.Add(name)
	case KindSkill:
		inv.Skills.Add(name)
	case KindSubagent:
		inv.Subagents.Add(name)
	}
}

func (inv *Invocations) record(obj ir.Object) {
	if obj.Type() != "tool_use" {
		return
	}
	name, ok := obj.GetString("name")
	if !ok || name == "" {
		return
	}
	inv.Add(KindTool, name)

	input, ok := obj.GetObject("input")
	if !ok {
		return
	}
	switch name {
	case SkillTool:
		if skill, ok := input.GetString("skill"); ok {
			inv.Add(KindSkill, skill)
		}
	case TaskTool:
		if agent, ok := input.GetString("subagent_type"); ok {
			inv.Add(KindSubagent, agent)
		}
	}
}
