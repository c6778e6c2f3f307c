package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"ies4ops/internal/adapters/tui/styles"
)

// RenderKeyHelp formats a key binding as help text (key + description)
func RenderKeyHelp(b key.Binding) string {
	help := b.Help()
	return fmt.Sprintf("%s %s",
		styles.HelpKey.Render(help.Key),
		styles.HelpDesc.Render(help.Desc),
	)
}

// RenderHelpLine renders key bindings separated by bullets
func RenderHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		parts = append(parts, RenderKeyHelp(b))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

// RenderMessage renders a status message
func RenderMessage(message string, isError bool) string {
	if message == "" {
		return ""
	}
	if isError {
		return styles.ErrorMsg.Render(message)
	}
	return styles.Success.Render(message)
}

// RenderWarnings renders one muted line per warning
func RenderWarnings(warnings []string) string {
	var b strings.Builder
	for _, w := range warnings {
		b.WriteString(styles.WarningMsg.Render("! " + w))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderLabelValue renders a label: value pair
func RenderLabelValue(label, value string) string {
	return fmt.Sprintf("%s %s", styles.InputLabel.Render(label+":"), value)
}

func padRight(s string, length int) string {
	if n := len([]rune(s)); n < length {
		return s + strings.Repeat(" ", length-n)
	}
	return s
}
