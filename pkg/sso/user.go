package sso

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/platinummonkey/devportal/pkg/gate"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
)

// CurrentUser returns the signed-in user of the browser session
func CurrentUser(ctx context.Context, sess *sessionstore.Session) (*User, bool, error) {
	raw, ok, err := sess.Get(ctx, gate.UserKey)
	if err != nil || !ok {
		return nil, false, err
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false, fmt.Errorf("invalid stored user: %w", err)
	}
	return &user, true, nil
}

// SignIn stores the user in the browser session and clears a previous
// permission denial
func SignIn(ctx context.Context, sess *sessionstore.Session, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := sess.Set(ctx, gate.UserKey, string(data)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	if err := sess.Remove(ctx, gate.NotEnoughPermissionKey); err != nil {
		return fmt.Errorf("failed to clear permission marker: %w", err)
	}
	return nil
}

// SignOut removes the user from the browser session
func SignOut(ctx context.Context, sess *sessionstore.Session) error {
	return sess.Remove(ctx, gate.UserKey)
}

// DenyPermission records that the identity provider refused access
func DenyPermission(ctx context.Context, sess *sessionstore.Session) error {
	return sess.Set(ctx, gate.NotEnoughPermissionKey, "true")
}
