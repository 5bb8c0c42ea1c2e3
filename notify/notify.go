package notify

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	// Bright highlights text in the terminal
	Bright func(args ...interface{}) string

	// Green text color
	Green func(args ...interface{}) string

	// Red text color
	Red func(args ...interface{}) string

	// Yellow text color
	Yellow func(args ...interface{}) string
)

func init() {
	Bright = color.New(color.FgHiWhite).SprintFunc()
	Green = color.New(color.FgGreen).SprintFunc()
	Red = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
}

// Notifier surfaces human-readable messages to the user. Every aborted
// operation produces exactly one notice through this interface.
type Notifier interface {

	// Notify shows an informational message
	Notify(msg string)

	// Warn shows a recoverable problem
	Warn(msg string)

	// Error shows a failure
	Error(msg string)
}

// Console returns a Notifier writing colored lines to stdout
func Console() Notifier {
	return &console{}
}

type console struct{}

func (c *console) Notify(msg string) { fmt.Println(msg) }
func (c *console) Warn(msg string)   { fmt.Println(Yellow(msg)) }
func (c *console) Error(msg string)  { fmt.Println(Red(msg)) }

// Discard returns a Notifier that drops everything, for tests
func Discard() Notifier {
	return &discard{}
}

type discard struct{}

func (d *discard) Notify(msg string) {}
func (d *discard) Warn(msg string)   {}
func (d *discard) Error(msg string)  {}
