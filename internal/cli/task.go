package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	"github.com/lerboi/FileManagement-sub001/internal/store"
	"github.com/lerboi/FileManagement-sub001/internal/task"
	"github.com/lerboi/FileManagement-sub001/internal/tui"
)

// AddTaskCommand adds the task command group.
func AddTaskCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, generate, sign and complete tasks",
	}
	cmd.AddCommand(
		newTaskCreateCmd(s),
		newTaskFinalizeCmd(s),
		newTaskGenerateCmd(s),
		newTaskRetryCmd(s),
		newTaskSignCmd(s),
		newTaskCompleteCmd(s),
		newTaskShowCmd(s),
		newTaskListCmd(s),
		newTaskURLsCmd(s),
		newTaskDeleteCmd(s),
	)
	root.AddCommand(cmd)
}

// taskCreateFlags holds flags specific to the task create command.
type taskCreateFlags struct {
	client     string
	service    string
	fields     []string
	notes      string
	priority   string
	assignee   string
	draft      bool
	noGenerate bool
}

func newTaskCreateCmd(s *session) *cobra.Command {
	flags := &taskCreateFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task for a client and service",
		Long: `Create a task from a service's templates for one client.

Without --draft the task starts in progress and its documents are generated
right away. Custom field values are given as --field name=value and may use
either the field name or its label.

Examples:
  docflow task create --client c1 --service onboarding --field fee=1200
  docflow task create --client c1 --service onboarding --draft`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := parseKeyValues(flags.fields)
			if err != nil {
				return err
			}
			return withTrackedApp(cmd.Context(), s, func(a *app) error {
				return runTaskCreate(cmd.Context(), a, newOutput(cmd, s), flags, values)
			})
		},
	}
	cmd.Flags().StringVar(&flags.client, "client", "", "client id")
	cmd.Flags().StringVar(&flags.service, "service", "", "service id")
	cmd.Flags().StringArrayVarP(&flags.fields, "field", "f", nil, "custom field value as name=value (repeatable)")
	cmd.Flags().StringVar(&flags.notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&flags.priority, "priority", "", "priority label")
	cmd.Flags().StringVar(&flags.assignee, "assign", "", "assignee")
	cmd.Flags().BoolVar(&flags.draft, "draft", false, "create a draft; generate later with finalize")
	cmd.Flags().BoolVar(&flags.noGenerate, "no-generate", false, "do not generate documents after creating")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("service")
	return cmd
}

func runTaskCreate(ctx context.Context, a *app, out tui.Output, flags *taskCreateFlags, values map[string]string) error {
	res, err := a.tasks.CreateDraft(ctx, task.CreateRequest{
		ClientID:          flags.client,
		ServiceID:         flags.service,
		CustomFieldValues: values,
		Notes:             flags.notes,
		Priority:          flags.priority,
		AssignedTo:        flags.assignee,
		Draft:             flags.draft,
	})
	if err != nil {
		return err
	}
	if flags.draft || flags.noGenerate {
		return printTaskResult(out, res.Task, res.Warnings, "task created")
	}

	gen, err := a.tasks.Generate(ctx, res.Task.ID)
	if err != nil {
		return err
	}
	return printGenerateResult(out, gen, append(res.Warnings, gen.Warnings...))
}

func newTaskFinalizeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <task-id>",
		Short: "Move a draft task into progress and generate its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrackedApp(cmd.Context(), s, func(a *app) error {
				res, err := a.tasks.Finalize(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printTaskResult(newOutput(cmd, s), res.Task, res.Warnings, "task finalized")
			})
		},
	}
}

func newTaskGenerateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <task-id>",
		Short: "Render every template of a task",
		Long: `Render every template of a task. Documents are generated concurrently;
a template that fails does not stop the others. If at least one document is
generated the task moves to awaiting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrackedApp(cmd.Context(), s, func(a *app) error {
				res, err := a.tasks.Generate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printGenerateResult(newOutput(cmd, s), res, res.Warnings)
			})
		},
	}
}

func newTaskRetryCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <task-id>",
		Short: "Discard generated documents and render every template again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrackedApp(cmd.Context(), s, func(a *app) error {
				res, err := a.tasks.Retry(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printTaskResult(newOutput(cmd, s), res.Task, res.Warnings, "task regenerated")
			})
		},
	}
}

// taskSignFlags holds flags specific to the task sign command.
type taskSignFlags struct {
	template string
	file     string
	key      string
}

func newTaskSignCmd(s *session) *cobra.Command {
	flags := &taskSignFlags{}
	cmd := &cobra.Command{
		Use:   "sign <task-id>",
		Short: "Attach a signed copy of a generated document",
		Long: `Attach a signed copy of one template's document. Use --file to upload a
local file, or --key to reference an object already in the object store.

Examples:
  docflow task sign 3f2a... --template engagement-letter --file signed.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), s, func(a *app) error {
				return runTaskSign(cmd.Context(), a, newOutput(cmd, s), args[0], flags)
			})
		},
	}
	cmd.Flags().StringVarP(&flags.template, "template", "t", "", "template id the signed copy belongs to")
	cmd.Flags().StringVar(&flags.file, "file", "", "local signed file to upload")
	cmd.Flags().StringVar(&flags.key, "key", "", "existing object store key of the signed file")
	_ = cmd.MarkFlagRequired("template")
	cmd.MarkFlagsMutuallyExclusive("file", "key")
	cmd.MarkFlagsOneRequired("file", "key")
	return cmd
}

func runTaskSign(ctx context.Context, a *app, out tui.Output, taskID string, flags *taskSignFlags) error {
	var (
		res *task.Result
		err error
	)
	if flags.file != "" {
		data, readErr := os.ReadFile(flags.file) //nolint:gosec // Path is provided by the operator
		if readErr != nil {
			return fmt.Errorf("failed to read signed file: %w", readErr)
		}
		res, err = a.tasks.UploadSigned(ctx, taskID, flags.template, filepath.Base(flags.file), data)
	} else {
		res, err = a.tasks.AttachSigned(ctx, taskID, flags.template, flags.key)
	}
	if err != nil {
		return err
	}
	return printTaskResult(out, res.Task, nil, "signed copy attached for "+flags.template)
}

func newTaskCompleteCmd(s *session) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Complete a task whose documents are all signed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withTrackedApp(ctx, s, func(a *app) error {
				res, err := a.tasks.Complete(ctx, args[0], task.CompleteRequest{Notes: notes})
				if err != nil {
					return err
				}
				warnings := res.Warnings
				stats, err := a.drainLocalFollowUps(ctx)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("client record not updated: %v", err))
				} else if stats.DeadLettered > 0 {
					warnings = append(warnings, fmt.Sprintf("%d client update(s) failed", stats.DeadLettered))
				}
				return printTaskResult(newOutput(cmd, s), res.Task, warnings, "task completed")
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "completion notes")
	return cmd
}

func newTaskShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its documents and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), s, func(a *app) error {
				t, err := a.tasks.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(t)
				}
				renderTask(out, t)
				return nil
			})
		},
	}
}

// taskListFlags holds flags specific to the task list command.
type taskListFlags struct {
	status string
	client string
	limit  int
	offset int
}

func newTaskListCmd(s *session) *cobra.Command {
	flags := &taskListFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, func(a *app) error {
				tasks, err := a.tasks.List(cmd.Context(), store.TaskFilter{
					Status:   constants.TaskStatus(flags.status),
					ClientID: flags.client,
					Limit:    flags.limit,
					Offset:   flags.offset,
				})
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(tasks)
				}
				renderTaskList(out, tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.status, "status", "", "only tasks with this status")
	cmd.Flags().StringVar(&flags.client, "client", "", "only tasks of this client")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of tasks (0 for all)")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "number of tasks to skip")
	return cmd
}

func newTaskURLsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "urls <task-id>",
		Short: "Print a URL for every generated document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), s, func(a *app) error {
				urls, err := a.tasks.DocumentURLs(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(urls)
				}
				table := tui.NewTable(out.Writer(), tui.TableColumn{Name: "TEMPLATE"}, tui.TableColumn{Name: "URL"})
				for _, id := range sortedKeys(urls) {
					table.AddRow(id, urls[id])
				}
				table.Render()
				return nil
			})
		},
	}
}

func newTaskDeleteCmd(s *session) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task and every document stored for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := tui.Confirm(fmt.Sprintf("Delete task %s and all of its documents?", args[0]), false)
				if err != nil {
					return fmt.Errorf("confirmation required, pass --yes to skip: %w", err)
				}
				if !ok {
					return nil
				}
			}
			return withApp(cmd.Context(), s, func(a *app) error {
				n, err := a.tasks.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(map[string]any{"task_id": args[0], "objects_removed": n})
				}
				out.Success(fmt.Sprintf("task %s deleted (%d objects removed)", args[0], n))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// printTaskResult prints a task summary with warnings, or the task as JSON.
func printTaskResult(out tui.Output, t *domain.Task, warnings []string, headline string) error {
	if out.IsJSON() {
		return out.JSON(map[string]any{"task": t, "warnings": nonNil(warnings)})
	}
	out.Success(fmt.Sprintf("%s: %s", headline, t.ID))
	renderTask(out, t)
	for _, w := range warnings {
		out.Warning(w)
	}
	return nil
}

// printGenerateResult prints the outcome of a generation run.
func printGenerateResult(out tui.Output, res *task.GenerateResult, warnings []string) error {
	if out.IsJSON() {
		return out.JSON(map[string]any{
			"success":             res.Success,
			"documents_generated": res.DocumentsGenerated,
			"warnings":            nonNil(warnings),
			"task":                res.Task,
		})
	}
	headline := fmt.Sprintf("%d of %d documents generated", res.DocumentsGenerated, len(res.Task.TemplateIDs))
	if res.Success {
		out.Success(headline)
	} else {
		out.Warning(headline)
	}
	renderTask(out, res.Task)
	for _, w := range warnings {
		out.Warning(w)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// renderTask prints the task header, documents and transitions.
func renderTask(out tui.Output, t *domain.Task) {
	w := out.Writer()
	_, _ = fmt.Fprintf(w, "%s  %s\n", tui.StyleBold.Render(t.ID), tui.FormatTaskStatus(t.Status))
	_, _ = fmt.Fprintf(w, "client %s · service %s · %d/%d generated · %d signed\n",
		t.ClientID, t.ServiceID, t.GeneratedCount(), len(t.TemplateIDs), len(t.SignedDocuments))
	if t.GenerationError != nil {
		_, _ = fmt.Fprintln(w, tui.StyleDim.Render("last error: "+*t.GenerationError))
	}

	if len(t.GeneratedDocuments) > 0 {
		_, _ = fmt.Fprintln(w)
		table := tui.NewTable(w,
			tui.TableColumn{Name: "TEMPLATE"},
			tui.TableColumn{Name: "STATUS"},
			tui.TableColumn{Name: "SIGNED"},
			tui.TableColumn{Name: "DETAIL", MaxWidth: 60},
		)
		for _, doc := range t.GeneratedDocuments {
			signed := ""
			if _, ok := t.SignedFor(doc.TemplateID); ok {
				signed = "yes"
			}
			detail := doc.StoragePath
			if doc.Error != "" {
				detail = doc.Error
			}
			table.AddRow(doc.TemplateID, tui.FormatDocumentStatus(doc.Status), signed, detail)
		}
		table.Render()
	}

	if len(t.Transitions) > 0 {
		_, _ = fmt.Fprintln(w)
		for _, tr := range t.Transitions {
			reason := ""
			if tr.Reason != "" {
				reason = " (" + tr.Reason + ")"
			}
			_, _ = fmt.Fprintf(w, "%s  %s → %s%s\n",
				tui.StyleDim.Render(tr.Timestamp.Format("2006-01-02 15:04:05")), tr.FromStatus, tr.ToStatus, reason)
		}
	}
}

// renderTaskList prints one row per task.
func renderTaskList(out tui.Output, tasks []*domain.Task) {
	if len(tasks) == 0 {
		out.Info("no tasks")
		return
	}
	table := tui.NewTable(out.Writer(),
		tui.TableColumn{Name: "ID"},
		tui.TableColumn{Name: "STATUS"},
		tui.TableColumn{Name: "CLIENT"},
		tui.TableColumn{Name: "SERVICE"},
		tui.TableColumn{Name: "DOCS", Align: tui.AlignRight},
		tui.TableColumn{Name: "CREATED"},
		tui.TableColumn{Name: "NOTES", MaxWidth: 40},
	)
	for _, t := range tasks {
		table.AddRow(
			t.ID,
			tui.FormatTaskStatus(t.Status),
			t.ClientID,
			t.ServiceID,
			fmt.Sprintf("%d/%d", t.GeneratedCount(), len(t.TemplateIDs)),
			t.CreatedAt.Format("2006-01-02 15:04"),
			strings.ReplaceAll(t.Notes, "\n", " "),
		)
	}
	table.Render()
}
