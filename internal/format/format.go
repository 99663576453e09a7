// Package format renders amounts for display.
package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Japanese)

// Yen formats an integer yen amount with thousands separators, e.g. "¥12,345".
func Yen(amount int) string {
	if amount < 0 {
		return printer.Sprintf("¥-%d", -amount)
	}
	return printer.Sprintf("¥%d", amount)
}
