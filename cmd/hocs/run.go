package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CodeTheEagle/PhotonX-OS/boards"
	"github.com/CodeTheEagle/PhotonX-OS/hardware/virt"
	"github.com/CodeTheEagle/PhotonX-OS/kernel/hocs"
	"github.com/CodeTheEagle/PhotonX-OS/lib/trust"
)

var (
	runBoard string
	runTicks int
	runDebug bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot a board and run the scheduler for a while",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBoardDemo()
	},
}

func init() {
	runCmd.Flags().StringVar(&runBoard, "board", "zynqmp", "board name from the catalog")
	runCmd.Flags().IntVar(&runTicks, "ticks", 100, "timer interrupts to deliver")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "include debug log output")
	rootCmd.AddCommand(runCmd)
}

// The demo task bodies never actually run on a host (the trace switcher
// records handoffs instead of swapping register files); they exist so the
// tasks have real entry points and stack images.
func opticalControlLoop() {
	for {
	}
}

func telemetryPump() {
	for {
	}
}

func housekeeping() {
	for {
	}
}

func runBoardDemo() error {
	level := trust.ErrorMask | trust.WarnMask | trust.InfoMask
	if runDebug {
		level |= trust.DebugMask
	}
	trust.SetLevel(level)
	trust.SetOutput(os.Stdout)

	def, err := boards.Lookup(runBoard)
	if err != nil {
		return err
	}

	fmt.Printf("PhotonX-OS %s: %s\n", version, def.Description)

	b := virt.NewBoard(virt.Options{
		CounterHz: def.CounterHz,
		GICLines:  def.GICLines,
		TickNanos: def.TickNanos(),
		Sched: hocs.Config{
			MaxTasks:       def.MaxTasks,
			PriorityLevels: def.PriorityLevels,
			StackBytes:     def.StackBytes,
			QuantumTicks:   def.QuantumTicks,
		},
	})
	b.Boot()

	// The control loop outranks everything; telemetry and housekeeping
	// share a lower level and round-robin against each other.
	if _, err := b.Sched.CreateTask("optical-control", opticalControlLoop, 0); err != nil {
		return err
	}
	if _, err := b.Sched.CreateTask("telemetry", telemetryPump, 5); err != nil {
		return err
	}
	if _, err := b.Sched.CreateTask("housekeeping", housekeeping, 5); err != nil {
		return err
	}

	b.RunTicks(runTicks)

	fmt.Printf("\nuptime: %d ns after %d timer interrupts\n",
		b.Timer.UptimeNanoseconds(), runTicks)

	fmt.Println("\ntasks:")
	for _, ti := range b.Sched.Tasks() {
		marker := " "
		if ti.ID == b.Sched.Current() {
			marker = "*"
		}
		fmt.Printf(" %s %3d  %-16s prio %2d  %-8s %6d ticks\n",
			marker, ti.ID, ti.Name, ti.Priority, ti.State, ti.Runtime)
	}

	fmt.Printf("\ncontext switches: %d\n", len(b.Trace.Handoffs))
	n := len(b.Trace.Handoffs)
	if n > 8 {
		n = 8
	}
	for _, h := range b.Trace.Handoffs[:n] {
		from, to := b.Sched.Task(h.From), b.Sched.Task(h.To)
		fmt.Printf("  %s -> %s\n", from.Name(), to.Name())
	}
	if len(b.Trace.Handoffs) > n {
		fmt.Printf("  ... %d more\n", len(b.Trace.Handoffs)-n)
	}
	return nil
}
