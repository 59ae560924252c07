package escalation

import (
	"github.com/prompt-general/ticketflow/pkg/models"
)

// teamRoute describes a human team's routing entry
type teamRoute struct {
	department      string
	skillLevel      string
	urgentSkill     string
	estimatedWait   string
	urgentWait      string
}

// routingTable maps escalation types to their destination teams.
// Unknown types fall back to the technical entry.
var routingTable = map[models.EscalationType]teamRoute{
	models.EscalationTechnical: {
		department:    "Technical Support",
		skillLevel:    "standard",
		urgentSkill:   "senior",
		estimatedWait: "1-2 hours",
		urgentWait:    "15-30 minutes",
	},
	models.EscalationBilling: {
		department:    "Billing Support",
		skillLevel:    "standard",
		urgentSkill:   "standard",
		estimatedWait: "30-45 minutes",
		urgentWait:    "30-45 minutes",
	},
	models.EscalationManagement: {
		department:    "Customer Success",
		skillLevel:    "manager",
		urgentSkill:   "manager",
		estimatedWait: "45-60 minutes",
		urgentWait:    "45-60 minutes",
	},
	models.EscalationLegal: {
		department:    "Legal Affairs",
		skillLevel:    "specialist",
		urgentSkill:   "specialist",
		estimatedWait: "2-4 hours",
		urgentWait:    "2-4 hours",
	},
	models.EscalationSecurity: {
		department:    "Security Team",
		skillLevel:    "specialist",
		urgentSkill:   "specialist",
		estimatedWait: "30-60 minutes",
		urgentWait:    "Immediate",
	},
}

// deriveRouting maps a decision to its hand-off destination. Tickets
// that stay on the AI path route to automated resolution.
func deriveRouting(decision models.EscalationDecision) *models.Routing {
	if !decision.ShouldEscalate {
		return &models.Routing{Target: models.RoutingAIResolution}
	}

	route, ok := routingTable[decision.EscalationType]
	if !ok {
		route = routingTable[models.EscalationTechnical]
	}

	skillLevel := route.skillLevel
	estimatedWait := route.estimatedWait
	if decision.PriorityLevel == models.LevelUrgent {
		skillLevel = route.urgentSkill
		estimatedWait = route.urgentWait
	}

	return &models.Routing{
		Target:         models.RoutingHumanAgent,
		Department:     route.department,
		SkillLevel:     skillLevel,
		EstimatedWait:  estimatedWait,
		EscalationType: decision.EscalationType,
		Priority:       decision.PriorityLevel,
	}
}
