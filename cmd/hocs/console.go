package main

import (
	"fmt"

	tty "github.com/mattn/go-tty"
	"github.com/spf13/cobra"

	"github.com/CodeTheEagle/PhotonX-OS/lib/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Attach this terminal to the simulated byte console",
	Long:  "Feeds keystrokes into the simulated console's receive ring and echoes its transmit side back, byte for byte. Ctrl-D detaches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return attachConsole()
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// ttyWriter is the ByteWriter end of the simulated console when a real
// terminal is attached.
type ttyWriter struct {
	t *tty.TTY
}

func (w *ttyWriter) PutByte(b byte) {
	fmt.Fprintf(w.t.Output(), "%c", b)
}

func attachConsole() error {
	t, err := tty.Open()
	if err != nil {
		return err
	}
	defer t.Close()

	con := console.New(&ttyWriter{t: t}, 1024)
	fmt.Fprintf(t.Output(), "attached to simulated console, Ctrl-D to detach\r\n")

	for {
		r, err := t.ReadRune()
		if err != nil {
			return err
		}
		if r == 0x04 { // Ctrl-D
			fmt.Fprintf(t.Output(), "\r\ndetached\r\n")
			return nil
		}
		// Receive side first, then the echo path drains it back out
		// through the transmit ring.
		con.Push(byte(r))
		for {
			b, ok := con.GetByte()
			if !ok {
				break
			}
			if b == '\r' {
				con.Write([]byte("\n"))
				continue
			}
			con.Write([]byte{b})
		}
	}
}
