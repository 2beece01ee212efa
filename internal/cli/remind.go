package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/KarpovAlexandrGo/todo-service/internal/reminder"
	"github.com/spf13/cobra"
)

func remindCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Print reminders for tasks due soon",
		Long: `Check active tasks for due dates that are about a day or less than an hour
away and print a reminder once per task and window.

Without --once the check repeats every TODO_REMIND_INTERVAL until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := d.session(cmd)
			if err != nil {
				return err
			}
			once, _ := cmd.Flags().GetBool("once")

			scheduler := reminder.NewScheduler(s.api, d.notifier(cmd),
				reminder.WithInterval(s.cfg.RemindInterval),
				reminder.WithClock(d.now),
			)
			if !once {
				return scheduler.Run(cmd.Context())
			}

			n, err := scheduler.Tick(cmd.Context())
			if err != nil {
				return userError(err)
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reminders.")
			}
			return nil
		},
	}
	cmd.Flags().Bool("once", false, "check once and exit")
	cmd.Flags().Duration("remind-interval", reminder.DefaultInterval, "pause between checks (TODO_REMIND_INTERVAL)")
	return cmd
}

// terminalNotifier печатает уведомления в терминал; разрешение не требуется.
type terminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalNotifier(out io.Writer) *terminalNotifier {
	return &terminalNotifier{out: out}
}

func (n *terminalNotifier) RequestPermission(context.Context) (reminder.Permission, error) {
	return reminder.PermissionGranted, nil
}

func (n *terminalNotifier) Notify(_ context.Context, title, body, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.out, "[%s] %s\n", title, body)
	return err
}
