package oauth2

import (
	"fmt"
	"strings"
)

const stateSeparator = ":"

// State is the round-tripped OAuth state parameter, "{userID}:{provider}".
type State struct {
	UserID   string
	Provider string
}

func NewState(userID, provider string) (State, error) {
	if userID == "" || provider == "" {
		return State{}, fmt.Errorf("state requires user and provider")
	}
	if strings.Contains(userID, stateSeparator) || strings.Contains(provider, stateSeparator) {
		return State{}, fmt.Errorf("state fields must not contain %q", stateSeparator)
	}
	return State{UserID: userID, Provider: provider}, nil
}

func (s State) String() string {
	return s.UserID + stateSeparator + s.Provider
}

func ParseState(raw string) (State, error) {
	parts := strings.Split(raw, stateSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return State{}, fmt.Errorf("%w: invalid state", ErrMalformedCallback)
	}
	return State{UserID: parts[0], Provider: parts[1]}, nil
}
