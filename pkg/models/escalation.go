package models

// EscalationType represents the team an escalated ticket is routed to
type EscalationType string

const (
	EscalationTechnical  EscalationType = "technical"
	EscalationBilling    EscalationType = "billing"
	EscalationManagement EscalationType = "management"
	EscalationLegal      EscalationType = "legal"
	EscalationSecurity   EscalationType = "security"
	EscalationGeneral    EscalationType = "general"
)

// PriorityLevel represents the urgency of an escalation, ordered
// standard < urgent.
type PriorityLevel string

const (
	LevelStandard PriorityLevel = "standard"
	LevelUrgent   PriorityLevel = "urgent"
)

// Rank returns the numeric rank of the level for comparisons. Unknown
// levels rank as standard.
func (l PriorityLevel) Rank() int {
	if l == LevelUrgent {
		return 2
	}
	return 1
}

// EscalationDecision represents the outcome of the escalation
// evaluation, merging the advisory judgment with the deterministic rule
// set. Reason is a "; "-joined audit trail of every source that fired.
type EscalationDecision struct {
	ShouldEscalate bool           `json:"should_escalate"`
	Reason         string         `json:"reason"`
	EscalationType EscalationType `json:"escalation_type,omitempty"`
	PriorityLevel  PriorityLevel  `json:"priority_level"`
	Confidence     float64        `json:"confidence"`
	Routing        *Routing       `json:"routing,omitempty"`
}

// Routing describes where an escalated ticket is handed off, or the AI
// resolution path when no escalation is needed.
type Routing struct {
	Target         string         `json:"routing"`
	Department     string         `json:"department,omitempty"`
	SkillLevel     string         `json:"skill_level,omitempty"`
	EstimatedWait  string         `json:"estimated_wait,omitempty"`
	EscalationType EscalationType `json:"escalation_type,omitempty"`
	Priority       PriorityLevel  `json:"priority,omitempty"`
}

// Routing targets
const (
	RoutingAIResolution = "ai_resolution"
	RoutingHumanAgent   = "human_agent"
)
