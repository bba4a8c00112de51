package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lerboi/FileManagement-sub001/internal/tui"
)

// AddFollowUpCommand adds the followup command group.
func AddFollowUpCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "followup",
		Short: "Process post-completion actions",
		Long: `Completing a task queues actions that update the client record. With the
memory queue they run as part of "task complete". With the Redis queue,
run "followup run" from a worker or a cron job.`,
	}
	cmd.AddCommand(newFollowUpRunCmd(s), newFollowUpDeadCmd(s))
	root.AddCommand(cmd)
}

func newFollowUpRunCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Apply every queued action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, func(a *app) error {
				stats, err := a.processor().Drain(cmd.Context())
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(stats)
				}
				out.Success(fmt.Sprintf("%d applied, %d dead-lettered", stats.Applied, stats.DeadLettered))
				return nil
			})
		},
	}
}

func newFollowUpDeadCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dead",
		Short: "List actions that exhausted their attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, func(a *app) error {
				dead, err := a.followups.Dead(cmd.Context())
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(dead)
				}
				if len(dead) == 0 {
					out.Info("no dead-lettered actions")
					return nil
				}
				table := tui.NewTable(out.Writer(),
					tui.TableColumn{Name: "ID"},
					tui.TableColumn{Name: "KIND"},
					tui.TableColumn{Name: "TASK"},
					tui.TableColumn{Name: "CLIENT"},
					tui.TableColumn{Name: "ATTEMPTS", Align: tui.AlignRight},
					tui.TableColumn{Name: "LAST ERROR", MaxWidth: 50},
				)
				for _, act := range dead {
					table.AddRow(act.ID, string(act.Kind), act.TaskID, act.ClientID, fmt.Sprint(act.Attempts), act.LastError)
				}
				table.Render()
				return nil
			})
		},
	}
}
