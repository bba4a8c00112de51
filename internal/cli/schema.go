package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
	"github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/schema"
	"github.com/lerboi/FileManagement-sub001/internal/tui"
)

// removeChoice is the interactive menu value for "no rename".
const removeChoice = "\x00remove"

// AddSchemaCommand adds the schema command group.
func AddSchemaCommand(root *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Analyze client schema drift and migrate templates",
		Long: `Compare two snapshots of the client data schema, find the templates that
reference changed fields, and plan and apply template migrations.

Snapshots are YAML or JSON files with a list of {name, type} fields.`,
	}
	cmd.AddCommand(
		newSchemaAnalyzeCmd(s),
		newSchemaAffectedCmd(s),
		newSchemaPlanCmd(s),
		newSchemaApplyCmd(s),
		newSchemaWatchCmd(s),
	)
	root.AddCommand(cmd)
}

func loadSnapshots(oldPath, newPath string) (domain.SchemaSnapshot, domain.SchemaSnapshot, error) {
	oldSchema, err := schema.LoadSnapshot(oldPath)
	if err != nil {
		return domain.SchemaSnapshot{}, domain.SchemaSnapshot{}, err
	}
	newSchema, err := schema.LoadSnapshot(newPath)
	if err != nil {
		return domain.SchemaSnapshot{}, domain.SchemaSnapshot{}, err
	}
	return oldSchema, newSchema, nil
}

func newSchemaAnalyzeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <old-snapshot> <new-snapshot>",
		Short: "Show added, removed and retyped fields and likely renames",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg == nil {
				return errors.ErrConfigNil
			}
			oldSchema, newSchema, err := loadSnapshots(args[0], args[1])
			if err != nil {
				return err
			}
			cs := schema.NewAnalyzer(s.cfg.Schema.RenameThreshold).Analyze(oldSchema, newSchema)
			out := newOutput(cmd, s)
			if out.IsJSON() {
				return out.JSON(cs)
			}
			renderChangeSet(out, cs)
			return nil
		},
	}
}

func newSchemaAffectedCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "affected <old-snapshot> <new-snapshot>",
		Short: "List stored templates that reference changed fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldSchema, newSchema, err := loadSnapshots(args[0], args[1])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), s, func(a *app) error {
				cs := a.analyzer().Analyze(oldSchema, newSchema)
				affected, err := findAffected(cmd.Context(), a, cs)
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(affected)
				}
				renderAffected(out, affected)
				return nil
			})
		},
	}
}

func findAffected(ctx context.Context, a *app, cs domain.SchemaChangeSet) ([]domain.AffectedTemplate, error) {
	templates, err := a.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return schema.FindAffectedTemplates(ctx, templates, cs)
}

// schemaPlanFlags holds flags specific to the schema plan command.
type schemaPlanFlags struct {
	choices     string
	auto        bool
	interactive bool
	out         string
}

func newSchemaPlanCmd(s *session) *cobra.Command {
	flags := &schemaPlanFlags{}
	cmd := &cobra.Command{
		Use:   "plan <old-snapshot> <new-snapshot>",
		Short: "Build a migration plan for the affected templates",
		Long: `Build a migration plan for every stored template that references a changed
field. Removed fields are removed from templates unless a rename is chosen.

Renames can be chosen three ways:
  --choices FILE   a YAML map of old field name to new field name
  --auto           take the most similar candidate for each field
  --interactive    pick from the candidates in a menu

Examples:
  docflow schema plan v1.yaml v2.yaml --auto --out plan.yaml
  docflow schema plan v1.yaml v2.yaml --choices renames.yaml -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldSchema, newSchema, err := loadSnapshots(args[0], args[1])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), s, func(a *app) error {
				return runSchemaPlan(cmd.Context(), a, newOutput(cmd, s), flags, oldSchema, newSchema)
			})
		},
	}
	cmd.Flags().StringVar(&flags.choices, "choices", "", "YAML file mapping old field names to new ones")
	cmd.Flags().BoolVar(&flags.auto, "auto", false, "choose the most similar rename for each field")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "choose renames from a menu")
	cmd.Flags().StringVar(&flags.out, "out", "", "write the plan to this file (.yaml or .json)")
	cmd.MarkFlagsMutuallyExclusive("choices", "auto", "interactive")
	return cmd
}

func runSchemaPlan(ctx context.Context, a *app, out tui.Output, flags *schemaPlanFlags, oldSchema, newSchema domain.SchemaSnapshot) error {
	cs := a.analyzer().Analyze(oldSchema, newSchema)
	affected, err := findAffected(ctx, a, cs)
	if err != nil {
		return err
	}

	var choices map[string]string
	switch {
	case flags.choices != "":
		if choices, err = schema.LoadChoices(flags.choices); err != nil {
			return err
		}
	case flags.auto:
		choices = schema.ResolveHighestSimilarity(cs)
	case flags.interactive:
		if choices, err = chooseRenames(cs); err != nil {
			return err
		}
	}

	plan, err := schema.GenerateMigrationPlan(affected, cs, choices)
	if err != nil {
		return err
	}
	if flags.out != "" {
		if err := writeDocument(flags.out, plan); err != nil {
			return err
		}
	}

	if out.IsJSON() {
		return out.JSON(plan)
	}
	renderPlan(out, plan)
	if flags.out != "" {
		out.Success("plan written to " + flags.out)
	}
	if flags.auto {
		ambiguous := schema.Ambiguous(cs)
		for _, newField := range sortedKeys(ambiguous) {
			out.Warning(fmt.Sprintf("%s was claimed by %v; kept the most similar", newField, ambiguous[newField]))
		}
	}
	return nil
}

// chooseRenames asks, for every removed field with candidates, which added
// field it became. Added fields already chosen are not offered again.
func chooseRenames(cs domain.SchemaChangeSet) (map[string]string, error) {
	byOld := make(map[string][]domain.RenameCandidate)
	for _, c := range cs.PotentialRenames {
		byOld[c.OldField] = append(byOld[c.OldField], c)
	}

	choices := make(map[string]string)
	var taken []string
	for _, removed := range cs.Removed {
		var options []tui.Option
		for _, c := range byOld[removed.Name] {
			if slices.Contains(taken, c.NewField) {
				continue
			}
			options = append(options, tui.Option{
				Label:       c.NewField,
				Description: fmt.Sprintf("similarity %.2f", c.Similarity),
				Value:       c.NewField,
			})
		}
		if len(options) == 0 {
			continue
		}
		options = append(options, tui.Option{Label: "remove", Description: "no rename", Value: removeChoice})

		picked, err := tui.Select(fmt.Sprintf("%s was removed. Was it renamed?", removed.Name), options)
		if err != nil {
			if stderrors.Is(err, tui.ErrMenuCanceled) {
				return nil, fmt.Errorf("rename selection canceled: %w", err)
			}
			return nil, err
		}
		if picked == removeChoice {
			continue
		}
		choices[removed.Name] = picked
		taken = append(taken, picked)
	}
	return choices, nil
}

func newSchemaApplyCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <plan-file>",
		Short: "Apply a migration plan to stored templates",
		Long: `Apply a migration plan written by "schema plan --out". Each template is
migrated independently and snapshotted first; a template that fails does
not stop the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan domain.MigrationPlan
			if err := readDocument(args[0], &plan); err != nil {
				return err
			}
			return withApp(cmd.Context(), s, func(a *app) error {
				res, err := a.migrator().Apply(cmd.Context(), &plan)
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(res)
				}
				renderApplyResult(out, res)
				if len(res.Failed) > 0 && len(res.Successful) == 0 {
					return fmt.Errorf("%w: no template was migrated", errors.ErrMigrationFailed)
				}
				return nil
			})
		},
	}
}

func newSchemaWatchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <snapshot>",
		Short: "Report schema drift whenever a snapshot file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := schema.LoadSnapshot(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), s, func(a *app) error {
				out := newOutput(cmd, s)
				w := schema.NewWatcher(schema.WatcherConfig{
					Path:      args[0],
					Analyzer:  a.analyzer(),
					Templates: a.store,
				}, baseline, a.logger)
				out.Info("watching " + args[0] + " (Ctrl+C to stop)")
				return w.Run(cmd.Context(), func(r schema.Report) {
					if out.IsJSON() {
						_ = out.JSON(watchReport(r))
						return
					}
					if r.Err != nil {
						out.Warning(r.Err.Error())
						return
					}
					renderChangeSet(out, r.ChangeSet)
					renderAffected(out, r.Affected)
				})
			})
		},
	}
}

// watchReport is the JSON form of a watcher report.
func watchReport(r schema.Report) map[string]any {
	m := map[string]any{"change_set": r.ChangeSet, "affected": r.Affected}
	if r.Err != nil {
		m["error"] = r.Err.Error()
	}
	return m
}

func renderChangeSet(out tui.Output, cs domain.SchemaChangeSet) {
	if cs.IsEmpty() {
		out.Info("no schema changes")
		return
	}
	w := out.Writer()
	table := tui.NewTable(w, tui.TableColumn{Name: "CHANGE"}, tui.TableColumn{Name: "FIELD"}, tui.TableColumn{Name: "DETAIL"})
	for _, f := range cs.Added {
		table.AddRow("added", f.Name, f.Type)
	}
	for _, f := range cs.Removed {
		table.AddRow("removed", f.Name, f.Type)
	}
	for _, tc := range cs.TypeChanged {
		table.AddRow("type changed", tc.Name, tc.OldType+" → "+tc.NewType)
	}
	table.Render()

	if len(cs.PotentialRenames) > 0 {
		_, _ = fmt.Fprintln(w)
		renames := tui.NewTable(w,
			tui.TableColumn{Name: "OLD"},
			tui.TableColumn{Name: "NEW"},
			tui.TableColumn{Name: "SIMILARITY", Align: tui.AlignRight},
		)
		for _, c := range cs.PotentialRenames {
			renames.AddRow(c.OldField, c.NewField, fmt.Sprintf("%.2f", c.Similarity))
		}
		renames.Render()
	}
}

func renderAffected(out tui.Output, affected []domain.AffectedTemplate) {
	if len(affected) == 0 {
		out.Info("no templates affected")
		return
	}
	table := tui.NewTable(out.Writer(),
		tui.TableColumn{Name: "TEMPLATE"},
		tui.TableColumn{Name: "FIELD"},
		tui.TableColumn{Name: "SEVERITY"},
		tui.TableColumn{Name: "LOCATION"},
		tui.TableColumn{Name: "MESSAGE", MaxWidth: 60},
	)
	for _, at := range affected {
		for _, issue := range at.Issues {
			table.AddRow(at.TemplateID, issue.Field, tui.FormatSeverity(issue.Severity), issue.Location, issue.Message)
		}
	}
	table.Render()
}

func renderPlan(out tui.Output, plan *domain.MigrationPlan) {
	if len(plan.Migrations) == 0 {
		out.Info("nothing to migrate")
		return
	}
	_, _ = fmt.Fprintf(out.Writer(), "plan %s\n", plan.ID)
	table := tui.NewTable(out.Writer(), tui.TableColumn{Name: "TEMPLATE"}, tui.TableColumn{Name: "ACTION"}, tui.TableColumn{Name: "FIELD"}, tui.TableColumn{Name: "DETAIL"})
	for _, mig := range plan.Migrations {
		for _, act := range mig.Actions {
			detail := ""
			switch act.Type {
			case domain.ActionRenameField:
				detail = "→ " + act.NewName
			case domain.ActionNoteTypeChange:
				detail = act.OldType + " → " + act.NewType
			case domain.ActionRemoveField:
			}
			table.AddRow(mig.TemplateID, string(act.Type), act.Field, detail)
		}
	}
	table.Render()
}

func renderApplyResult(out tui.Output, res *schema.ApplyResult) {
	for _, id := range res.Successful {
		out.Success("migrated " + id)
	}
	for _, f := range res.Failed {
		out.Warning(fmt.Sprintf("%s: %s", f.TemplateID, f.Error))
	}
	for _, w := range res.Warnings {
		out.Warning(w)
	}
}
