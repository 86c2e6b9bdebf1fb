package gate

import (
	"context"

	"github.com/platinummonkey/devportal/pkg/sessionstore"
	"github.com/platinummonkey/devportal/pkg/settings"
)

// Browser-session keys read or written by the gate
const (
	// LoginStatusKey marks that the external passive redirect was issued.
	// Present: the browser is returning from it. Absent: redirect now.
	LoginStatusKey = "loginStatus"

	// LoginStatusValue is the value stored under LoginStatusKey
	LoginStatusValue = "check-Login-status"

	// NotEnoughPermissionKey is written when the identity provider denied
	// access. The gate only reads it.
	NotEnoughPermissionKey = "notEnoughPermission"

	// UserKey holds the authenticated user of the browser session
	UserKey = "user"
)

// ProbePath is the passive probe endpoint, relative to the application context
const ProbePath = "/services/configs?loginPrompt=false"

// ReturnToParam carries the page the browser returns to after the external probe
const ReturnToParam = "returnTo"

// Mode is the static deployment configuration the gate depends on
type Mode struct {
	Passive      bool
	NonAnonymous bool
}

// Conditions are the inputs of the gate's precondition
type Conditions struct {
	Passive          bool
	HasUser          bool
	PermissionDenied bool
	NonAnonymous     bool
}

// Applies reports whether the passive probe should run at all: passive
// deployment, nobody signed in, no permission denial, anonymous access allowed
func (c Conditions) Applies() bool {
	return c.Passive && !c.HasUser && !c.PermissionDenied && !c.NonAnonymous
}

// Suppresses reports whether content must be held back behind a loading
// placeholder. It holds while the gate applies and no probe outcome
// (a direct response, or the external branch) has been recorded.
func (c Conditions) Suppresses(authResponse, externalIDP bool) bool {
	return c.Applies() && !authResponse && !externalIDP
}

// LoadConditions reads the session markers. On a store error the markers
// read so far are kept and the error is returned.
func LoadConditions(ctx context.Context, sess *sessionstore.Session, mode Mode) (Conditions, error) {
	cond := Conditions{
		Passive:      mode.Passive,
		NonAnonymous: mode.NonAnonymous,
	}

	hasUser, err := sess.Has(ctx, UserKey)
	if err != nil {
		return cond, err
	}
	cond.HasUser = hasUser

	denied, err := sess.Has(ctx, NotEnoughPermissionKey)
	if err != nil {
		return cond, err
	}
	cond.PermissionDenied = denied

	return cond, nil
}

// Decision is what the gate does for a given input
type Decision int

const (
	// AwaitSettings means settings are not available, so no path can be chosen
	AwaitSettings Decision = iota
	// NotApplicable means the precondition does not hold
	NotApplicable
	// ProbeDirect probes the endpoint with a plain request
	ProbeDirect
	// ProbeExternal redirects the browser once through the probe endpoint
	ProbeExternal
)

func (d Decision) String() string {
	switch d {
	case AwaitSettings:
		return "await_settings"
	case NotApplicable:
		return "not_applicable"
	case ProbeDirect:
		return "direct"
	case ProbeExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Evaluate decides what the gate does. It has no side effects.
func Evaluate(cond Conditions, s *settings.Settings) Decision {
	if !cond.Applies() {
		return NotApplicable
	}
	if s == nil {
		return AwaitSettings
	}
	if s.IdentityProvider.External {
		return ProbeExternal
	}
	return ProbeDirect
}

// State is the progress of the gate within one page load
type State int

const (
	Idle State = iota
	AwaitingSettings
	Deciding
	StateNotApplicable
	ProbingDirect
	ProbingExternal
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingSettings:
		return "awaiting_settings"
	case Deciding:
		return "deciding"
	case StateNotApplicable:
		return "not_applicable"
	case ProbingDirect:
		return "probing_direct"
	case ProbingExternal:
		return "probing_external"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}
