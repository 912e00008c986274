package internal

import (
	"fmt"
	"os"
	"strings"
)

// Verbose enables output from Debug.
var Verbose bool

// Fatal will Echo the message and os.Exit with code 1.
func Fatal(msg string, args ...any) {
	Echo(msg, args...)
	os.Exit(1)
}

// Echo will emit the given message to stderr without any logging formatting.
// Stdout is reserved for command output.
func Echo(msg string, args ...any) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, _ = fmt.Fprintf(os.Stderr, msg, args...)
}

// Debug will Echo the message only if Verbose is set.
func Debug(msg string, args ...any) {
	if Verbose {
		Echo(msg, args...)
	}
}
