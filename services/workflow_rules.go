package services

import "logbook-api/models"

// Event is a workflow action attempted by an actor against a logbook.
type Event string

const (
	EventSubmit         Event = "submit"
	EventMarkReady      Event = "mark_ready"
	EventApprove        Event = "approve"
	EventReject         Event = "reject"
	EventReturnForEdits Event = "return_for_edits"
	EventRegenerate     Event = "regenerate"
	EventRequestUnlock  Event = "request_unlock"
	EventUnlockApprove  Event = "unlock_approve"
	EventUnlockDeny     Event = "unlock_deny"
	EventUnlockExpire   Event = "unlock_expire"
)

// transitionRule describes one row of the workflow table: which statuses the
// event may fire from, where it lands, who may fire it, and whether a reason
// is mandatory. A zero To means the status is preserved.
type transitionRule struct {
	from        []models.LogbookStatus
	to          models.LogbookStatus
	roles       []string
	needsReason bool
}

// transitionTable is the single source of truth for status dispatch. Keeping
// it closed and table-driven means an unknown event or status cannot be
// silently ignored.
var transitionTable = map[Event]transitionRule{
	EventSubmit: {
		from:  []models.LogbookStatus{models.StatusDraft, models.StatusReady, models.StatusReturnedForEdits, models.StatusRejected},
		to:    models.StatusSubmitted,
		roles: []string{models.RoleTrainee},
	},
	EventMarkReady: {
		from:  []models.LogbookStatus{models.StatusDraft},
		to:    models.StatusReady,
		roles: []string{models.RoleTrainee},
	},
	EventApprove: {
		from:  []models.LogbookStatus{models.StatusSubmitted},
		to:    models.StatusApproved,
		roles: []string{models.RoleSupervisor, models.RoleAdmin},
	},
	EventReject: {
		from:        []models.LogbookStatus{models.StatusSubmitted},
		to:          models.StatusRejected,
		roles:       []string{models.RoleSupervisor, models.RoleAdmin},
		needsReason: true,
	},
	EventReturnForEdits: {
		from:        []models.LogbookStatus{models.StatusSubmitted},
		to:          models.StatusReturnedForEdits,
		roles:       []string{models.RoleSupervisor, models.RoleAdmin},
		needsReason: true,
	},
	EventRegenerate: {
		from:  []models.LogbookStatus{models.StatusDraft, models.StatusRejected},
		roles: []string{models.RoleTrainee},
	},
	EventRequestUnlock: {
		from:  []models.LogbookStatus{models.StatusApproved, models.StatusLocked},
		roles: []string{models.RoleTrainee},
	},
	EventUnlockApprove: {
		from:  []models.LogbookStatus{models.StatusApproved, models.StatusLocked},
		to:    models.StatusUnlockedForEdits,
		roles: []string{models.RoleSupervisor, models.RoleAdmin},
	},
	EventUnlockDeny: {
		from:        []models.LogbookStatus{models.StatusApproved, models.StatusLocked},
		roles:       []string{models.RoleSupervisor, models.RoleAdmin},
		needsReason: true,
	},
	EventUnlockExpire: {
		from:  []models.LogbookStatus{models.StatusUnlockedForEdits},
		to:    models.StatusLocked,
		roles: []string{models.RoleSystem},
	},
}

// PlanTransition validates event against the table and returns the target
// status. Role is checked before the from-status so an unauthorized actor
// always sees ErrForbidden, never a state hint. A preserved-status event
// returns the current status unchanged.
func PlanTransition(current models.LogbookStatus, event Event, role string, reason string) (models.LogbookStatus, error) {
	rule, ok := transitionTable[event]
	if !ok {
		return "", ErrInvalidTransition
	}

	allowed := false
	for _, r := range rule.roles {
		if r == role {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", ErrForbidden
	}

	legalFrom := false
	for _, f := range rule.from {
		if f == current {
			legalFrom = true
			break
		}
	}
	if !legalFrom {
		return "", ErrInvalidTransition
	}

	if rule.needsReason && reason == "" {
		return "", ErrMissingReason
	}

	if rule.to == "" {
		return current, nil
	}
	return rule.to, nil
}
