// Package pm provides the project-management domain vocabulary for keyword
// extraction. Importing the package registers the extractor.
package pm

import "github.com/c360studio/catchfish/vocabulary"

// Domain is the registry name for this vocabulary.
const Domain = "pm"

// terms is the project-management vocabulary set.
var terms = []string{
	"approval", "backlog", "blocker", "branch", "budget", "burndown",
	"capacity", "changelog", "checklist", "deadline", "dependency",
	"deploy", "deployment", "downtime", "environment", "epic", "escalation",
	"feature", "gate", "handoff", "incident", "kanban", "maintenance",
	"merge", "migration", "milestone", "outage", "pipeline", "playbook",
	"postmortem", "procedure", "release", "retrospective", "review",
	"risk", "roadmap", "rollback", "rollout", "runbook", "scope",
	"snapshot", "sprint", "stakeholder", "standup", "staging", "story",
	"velocity", "workflow",
}

// suffixes covers process-noun morphology common in PM prose.
var suffixes = []string{"ment", "tion", "sion", "ility"}

func init() {
	vocabulary.Register(vocabulary.New(vocabulary.Config{
		Domain:   Domain,
		Terms:    terms,
		Suffixes: suffixes,
	}))
}
