// Package trust is the kernel logging facade. It sits directly on a byte
// sink so it keeps working when there is nothing underneath but a serial
// line; the default sink is stderr for host-side runs.
package trust

import (
	"fmt"
	"io"
	"os"
)

type MaskLevel int

const (
	Nothing   MaskLevel = 0x0
	ErrorMask MaskLevel = 0x1
	WarnMask  MaskLevel = 0x2
	InfoMask  MaskLevel = 0x4
	DebugMask MaskLevel = 0x8
	StatsMask MaskLevel = 0x10
	fatalMask MaskLevel = 0x80
)

var level = fatalMask | StatsMask | ErrorMask | WarnMask | InfoMask

var sink io.Writer = os.Stderr

// halt is what Fatalf does after logging. The default panics, which is what
// a host-side run (and the tests) want; a real boot path installs something
// that parks the processor.
var halt = func(exitCode int) {
	panic(fmt.Sprintf("trust: fatal (exit code %d)", exitCode))
}

// SetOutput redirects all log output, returning the previous sink. The boot
// sequence points this at the console once the console is alive.
func SetOutput(w io.Writer) io.Writer {
	prev := sink
	sink = w
	return prev
}

// SetHalt replaces the fatal-stop behavior. Returns the previous hook.
func SetHalt(fn func(exitCode int)) func(int) {
	prev := halt
	halt = fn
	return prev
}

// SetLevel sets the log mask directly. You can pass something like
// ErrorMask|DebugMask to control exactly what gets printed. It returns the
// previous mask. Fatal output is not maskable.
func SetLevel(mask MaskLevel) MaskLevel {
	prev := level &^ fatalMask
	level = (mask & (ErrorMask | WarnMask | InfoMask | DebugMask | StatsMask)) | fatalMask
	return prev
}

func Level() MaskLevel {
	return level &^ fatalMask
}

func logf(l MaskLevel, format string, params ...interface{}) {
	if level&l == 0 {
		return
	}
	var tag string
	start := 0
	switch {
	case l&fatalMask > 0:
		tag = "FATAL:"
	case l&ErrorMask > 0:
		tag = "ERROR:"
	case l&WarnMask > 0:
		tag = " WARN:"
	case l&InfoMask > 0:
		tag = " INFO:"
	case l&DebugMask > 0:
		tag = "DEBUG:"
	case l&StatsMask > 0:
		s, ok := params[0].(string)
		if !ok {
			s = "unknown"
		}
		tag = fmt.Sprintf("STATS[%s]:", s)
		start = 1
	}
	if len(format) == 0 || format[len(format)-1] != '\n' {
		format += "\n"
	}
	fmt.Fprintf(sink, tag+format, params[start:]...)
}

// Fatalf prints the given log message and then stops the system with the
// exit code provided. Fatalf is not maskable. This is the end of the line
// for invariant violations: continuing with inconsistent kernel state risks
// running the wrong task or scribbling on another task's memory.
func Fatalf(exitCode int, format string, params ...interface{}) {
	logf(fatalMask, format, params...)
	halt(exitCode)
}

// Errorf prints the given log message using the ErrorMask level.
func Errorf(format string, params ...interface{}) {
	logf(ErrorMask, format, params...)
}

// Warnf prints the given log message using the WarnMask level.
func Warnf(format string, params ...interface{}) {
	logf(WarnMask, format, params...)
}

// Infof prints the given log message using the InfoMask level.
func Infof(format string, params ...interface{}) {
	logf(InfoMask, format, params...)
}

// Debugf prints the given log message using the DebugMask level.
func Debugf(format string, params ...interface{}) {
	logf(DebugMask, format, params...)
}

// Statsf prints the given log message using the StatsMask level and takes an
// extra leading parameter that shows up as the category of stats reported.
func Statsf(category string, format string, params ...interface{}) {
	logf(StatsMask, format, append([]interface{}{category}, params...)...)
}
