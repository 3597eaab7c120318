package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text. Without colour support the
// prefix and suffix stand in for it.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f Formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

func (f Formatter) Sprintf(format string, a ...any) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	Success   = Formatter{color.New(color.FgGreen), "", ""}
	Error     = Formatter{color.New(color.FgRed), "", ""}
	Warning   = Formatter{color.New(color.FgYellow), "", ""}
	Info      = Formatter{color.New(color.FgCyan), "", ""}
	Highlight = Formatter{color.New(color.FgCyan, color.Bold), "'", "'"}
	Muted     = Formatter{color.New(color.FgHiBlack), "(", ")"}
)

// vaultPalette maps vault colour names to terminal colours.
var vaultPalette = map[string]color.Attribute{
	"primary":   color.FgBlue,
	"secondary": color.FgMagenta,
	"success":   color.FgGreen,
	"warning":   color.FgYellow,
	"error":     color.FgRed,
	"info":      color.FgCyan,
	"orange":    color.FgHiYellow,
	"pink":      color.FgHiMagenta,
}

// VaultName renders a vault name in the vault's colour.
func VaultName(name, colour string) string {
	attr, ok := vaultPalette[colour]
	if !ok {
		attr = color.FgWhite
	}
	return Formatter{color.New(attr, color.Bold), "", ""}.Sprint(name)
}
