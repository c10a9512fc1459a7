// Package i18n provides the web service's message printers.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLanguage is the fallback UI language.
var DefaultLanguage = language.English

// Printer returns the message printer for a language tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Default returns the fallback printer.
func Default() *message.Printer {
	return Printer(DefaultLanguage)
}
