package domain

import (
	"fmt"
	"strings"
)

// Action is an inbound control action.
type Action int

const (
	ActionMenu Action = iota + 1
	ActionHelp
	ActionRules
	ActionStart
	ActionSurrender
	ActionNext
	ActionStay
	ActionScore
	ActionPoints
	ActionTopScore
	ActionStats
	ActionCreateQuestion
	ActionCancelCreation
)

var actionNames = map[Action]string{
	ActionMenu:           "menu",
	ActionHelp:           "help",
	ActionRules:          "rules",
	ActionStart:          "start",
	ActionSurrender:      "surrender",
	ActionNext:           "next",
	ActionStay:           "stay",
	ActionScore:          "score",
	ActionPoints:         "points",
	ActionTopScore:       "topscore",
	ActionStats:          "stats",
	ActionCreateQuestion: "create",
	ActionCancelCreation: "cancel",
}

// aliases accepted from chat commands and legacy button payloads.
var actionAliases = map[string]Action{
	"quiz":           ActionMenu,
	"mulai":          ActionStart,
	"nyerah":         ActionSurrender,
	"skor":           ActionScore,
	"poin":           ActionPoints,
	"topskor":        ActionTopScore,
	"aturan":         ActionRules,
	"addquestion":    ActionCreateQuestion,
	"createquestion": ActionCreateQuestion,
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText serializes the action by its wire name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ParseAction maps a wire name such as "start", "/mulai" or "quiz_start" to an Action.
func ParseAction(raw string) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, "quiz_")
	for action, n := range actionNames {
		if n == name {
			return action, nil
		}
	}
	if action, ok := actionAliases[name]; ok {
		return action, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// AdminOnly reports whether the action requires a privileged identity.
func (a Action) AdminOnly() bool {
	return a == ActionCreateQuestion || a == ActionCancelCreation
}
