package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/devportal/pkg/sessionstore"
	"github.com/platinummonkey/devportal/pkg/settings"
)

var (
	externalSettings = &settings.Settings{IdentityProvider: settings.IdentityProvider{External: true}}
	internalSettings = &settings.Settings{IdentityProvider: settings.IdentityProvider{External: false}}
	applicable       = Conditions{Passive: true}
)

func TestConditions_Applies(t *testing.T) {
	tests := []struct {
		name string
		cond Conditions
		want bool
	}{
		{name: "passive anonymous", cond: Conditions{Passive: true}, want: true},
		{name: "not passive", cond: Conditions{}, want: false},
		{name: "user signed in", cond: Conditions{Passive: true, HasUser: true}, want: false},
		{name: "permission denied", cond: Conditions{Passive: true, PermissionDenied: true}, want: false},
		{name: "non anonymous", cond: Conditions{Passive: true, NonAnonymous: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Applies())
		})
	}
}

func TestConditions_Suppresses(t *testing.T) {
	assert.True(t, applicable.Suppresses(false, false))
	assert.False(t, applicable.Suppresses(true, false))
	assert.False(t, applicable.Suppresses(false, true))
	assert.False(t, Conditions{}.Suppresses(false, false))
	assert.False(t, Conditions{Passive: true, HasUser: true}.Suppresses(false, false))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		cond     Conditions
		settings *settings.Settings
		want     Decision
	}{
		{name: "external idp", cond: applicable, settings: externalSettings, want: ProbeExternal},
		{name: "internal idp", cond: applicable, settings: internalSettings, want: ProbeDirect},
		{name: "no settings", cond: applicable, settings: nil, want: AwaitSettings},
		{name: "not applicable", cond: Conditions{}, settings: externalSettings, want: NotApplicable},
		{name: "not applicable without settings", cond: Conditions{}, settings: nil, want: NotApplicable},
		{name: "user signed in", cond: Conditions{Passive: true, HasUser: true}, settings: internalSettings, want: NotApplicable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.cond, tt.settings))
		})
	}
}

func TestDecisionAndStateStrings(t *testing.T) {
	assert.Equal(t, "external", ProbeExternal.String())
	assert.Equal(t, "direct", ProbeDirect.String())
	assert.Equal(t, "await_settings", AwaitSettings.String())
	assert.Equal(t, "not_applicable", NotApplicable.String())
	assert.Equal(t, "unknown", Decision(42).String())

	assert.Equal(t, "probing_external", ProbingExternal.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestLoadConditions(t *testing.T) {
	ctx := context.Background()
	store := sessionstore.NewMemoryStore(time.Minute)
	sess := sessionstore.Scope(store, "tab")

	cond, err := LoadConditions(ctx, sess, Mode{Passive: true})
	require.NoError(t, err)
	assert.Equal(t, Conditions{Passive: true}, cond)

	require.NoError(t, sess.Set(ctx, UserKey, `{"subject":"u1"}`))
	require.NoError(t, sess.Set(ctx, NotEnoughPermissionKey, "true"))

	cond, err = LoadConditions(ctx, sess, Mode{Passive: true, NonAnonymous: true})
	require.NoError(t, err)
	assert.Equal(t, Conditions{Passive: true, HasUser: true, PermissionDenied: true, NonAnonymous: true}, cond)

	store.Close()
	_, err = LoadConditions(ctx, sess, Mode{Passive: true})
	assert.ErrorIs(t, err, sessionstore.ErrClosed)
}
