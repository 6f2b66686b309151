package session

import "errors"

// ErrUserError marks a bad argv, unknown plugin, or malformed session
// request — surfaced by the control surfaces as 400/tool errors, never as a
// session-terminating condition.
var ErrUserError = errors.New("user error")
