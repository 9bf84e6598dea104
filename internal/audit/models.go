package audit

import (
	"time"

	id "patrimonio/pkg/domain"
)

// Action labels the lifecycle step an event records.
type Action string

const (
	ActionReportSubmitted     Action = "report_submitted"
	ActionReportAdvanced      Action = "report_advanced_to_review"
	ActionAccessConditionsSet Action = "access_conditions_set"
	ActionReportPublished     Action = "report_published"
)

// Event is emitted from domain logic to capture key actions on a report.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	ReportID  id.ReportID `json:"report_id"`
	ActorID   id.UserID   `json:"actor_id"`
	ActorRole id.Role     `json:"actor_role"`
	Action    Action      `json:"action"`
	// Detail carries action-specific context, e.g. the sensitivity code
	// assigned at publication. Never put coordinates here.
	Detail string `json:"detail,omitempty"`
}
