package commands

import (
	"strings"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// CommandLogger builds the logger a command group hands to its handlers.
// Every entry carries the group name so build, validate, and draft
// executions line up in the same stream.
func CommandLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	name := strings.TrimSpace(group)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, "blog.commands."+name)
	return logging.WithFields(logger, map[string]any{
		"component":     "command",
		"command_group": name,
	})
}
