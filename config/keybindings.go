package config

import "strings"

// KeyBindingsConfig holds the modifier and optional per-action overrides
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"`
}

type ModifierConfig struct {
	Primary string `toml:"primary"` // e.g., "alt", "ctrl"
}

// actionDef defines the default modifier and key for an action
type actionDef struct {
	modifier string // "primary" or "none"
	key      string
}

// actionRegistry maps action names to their default keybindings
var actionRegistry = map[string]actionDef{
	"send":          {"none", "enter"},
	"newline":       {"primary", "enter"},
	"next_tab":      {"none", "tab"},
	"prev_tab":      {"none", "shift+tab"},
	"tab_rag":       {"primary", "1"},
	"tab_project":   {"primary", "2"},
	"tab_todo":      {"primary", "3"},
	"quick_actions": {"primary", "p"},
	"search":        {"primary", "f"},
	"yank_answer":   {"primary", "y"},
	"reset_channel": {"primary", "l"},
	"export":        {"primary", "e"},
	"help":          {"primary", "h"},
	"scroll_up":     {"none", "pgup"},
	"scroll_down":   {"none", "pgdown"},
	"close":         {"none", "esc"},
	"quit":          {"primary", "q"},
}

// DefaultKeybindings returns default configuration
func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{Primary: "alt"},
	}
}

// Primary returns the primary modifier
func (kb *KeyBindingsConfig) Primary() string {
	if kb == nil || kb.Modifiers.Primary == "" {
		return "alt"
	}
	return kb.Modifiers.Primary
}

// PrimaryKey builds a keybinding string with primary modifier
// Example: PrimaryKey("p") returns "alt+p" (or "ctrl+p" if primary is "ctrl")
func (kb *KeyBindingsConfig) PrimaryKey(key string) string {
	return kb.Primary() + "+" + key
}

// GetActionKey returns the keybinding for an action, preferring user overrides
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if kb != nil && kb.Actions != nil {
		if override, ok := kb.Actions[action]; ok && override != "" {
			return override
		}
	}

	def, ok := actionRegistry[action]
	if !ok {
		return ""
	}
	if def.modifier == "primary" {
		return kb.PrimaryKey(def.key)
	}
	return def.key
}

// DisplayActionKey returns a display-friendly keybinding
// Example: "alt+p" -> "Alt+P"
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	key := kb.GetActionKey(action)
	if key == "" {
		return ""
	}

	parts := strings.Split(key, "+")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, "+")
}

// Validate checks if the configuration is valid
// Returns (isValid, warningMessage)
func (kb *KeyBindingsConfig) Validate() (bool, string) {
	primary := kb.Primary()

	if primary == "shift" {
		return false, "Shift alone conflicts with typing"
	}
	if strings.Contains(primary, "ctrl") {
		return true, "Warning: Ctrl may conflict with terminal shortcuts (Ctrl+C, Ctrl+Z, Ctrl+D)"
	}
	return true, ""
}
