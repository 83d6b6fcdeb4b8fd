package config

import "time"

const (
	DefaultBackendURL     = "http://localhost:8001"
	DefaultRequestTimeout = 120 * time.Second
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/assistui",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Backend: BackendConfig{
			URL:            DefaultBackendURL,
			TimeoutSeconds: int(DefaultRequestTimeout / time.Second),
		},
		Session: SessionConfig{
			Resume: true,
		},
		KeyBindings: *DefaultKeybindings(),
	}
}

func GenerateSystemConfigTemplate() string {
	return `# assistui System Configuration
# Location: ~/.config/assistui/settings.toml
# This file uses TOML format: https://toml.io

# Directory where the session database and user config are stored
data_directory = "~/.local/share/assistui"
`
}

func GenerateUserConfigTemplate() string {
	return `# assistui User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[backend]
# AI Internal Assistant backend URL (overridden by ASSISTUI_API_URL)
url = "http://localhost:8001"

# Seconds to wait for a chat answer
timeout_seconds = 120

[session]
# Reopen the last session's chat history on start.
# Set to false to start every run with a fresh session.
resume = true

[keybindings.modifiers]
primary = "alt"          # Default: alt (Options: alt, ctrl)

[keybindings.actions]
# Per-action overrides, for example:
#   quick_actions = "ctrl+p"
#   next_tab = "ctrl+n"
`
}
