// scribble/utils/color/color.go
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor    = color.New(color.FgCyan, color.Bold)
	infoColor      = color.New(color.FgGreen)
	warningColor   = color.New(color.FgYellow, color.Bold)
	errorColor     = color.New(color.FgRed, color.Bold)
	assistantColor = color.New(color.FgHiYellow)
	oldColor       = color.New(color.FgHiBlack)
	effectColor    = color.New(color.FgMagenta)
)

func Prompt(s string) string {
	return promptColor.Sprint(s)
}

func Info(s string) string {
	return infoColor.Sprint(s)
}

func Warning(s string) string {
	return warningColor.Sprint(s)
}

func Error(s string) string {
	return errorColor.Sprint(s)
}

func Assistant(s string) string {
	return assistantColor.Sprint(s)
}

// Old renders rehydrated history dimmed, with no typewriter effect.
func Old(s string) string {
	return oldColor.Sprint(s)
}

// Effect renders a side-effect notice (navigation, theme, link).
func Effect(s string) string {
	return effectColor.Sprint(s)
}
