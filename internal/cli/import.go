package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lerboi/FileManagement-sub001/internal/template"
	"github.com/lerboi/FileManagement-sub001/internal/tui"
)

// importKind binds an import subcommand to the importer method it runs.
type importKind struct {
	noun string
	run  func(im *template.Importer, ctx context.Context, patterns ...string) (*template.ImportResult, error)
}

// AddImportCommands adds "template", "service" and "client" command groups,
// each with an import subcommand that loads YAML or JSON definition files.
func AddImportCommands(root *cobra.Command, s *session) {
	kinds := []importKind{
		{noun: "template", run: (*template.Importer).ImportTemplates},
		{noun: "service", run: (*template.Importer).ImportServices},
		{noun: "client", run: (*template.Importer).ImportClients},
	}
	for _, kind := range kinds {
		group := &cobra.Command{
			Use:   kind.noun,
			Short: fmt.Sprintf("Manage %s definitions", kind.noun),
		}
		group.AddCommand(newImportCmd(s, kind))
		if kind.noun == "template" {
			group.AddCommand(newTemplateListCmd(s))
		}
		root.AddCommand(group)
	}
}

func newImportCmd(s *session, kind importKind) *cobra.Command {
	var baseDir string
	cmd := &cobra.Command{
		Use:   "import <file-or-glob>...",
		Short: fmt.Sprintf("Create or update %ss from YAML or JSON files", kind.noun),
		Long: fmt.Sprintf(`Create or update %[1]ss from YAML or JSON files. Arguments may be
glob patterns, including ** for recursive matches. Each file is imported
independently; invalid files are reported and skipped.

Examples:
  docflow %[1]s import defs/%[1]ss/*.yaml
  docflow %[1]s import --dir defs '**/*.json'`, kind.noun),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), s, func(a *app) error {
				im := template.NewImporter(template.NewLoader(baseDir), a.store, a.logger)
				res, err := kind.run(im, cmd.Context(), args...)
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(res)
				}
				renderImportResult(out, kind.noun, res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&baseDir, "dir", "", "directory relative paths and patterns are resolved against")
	return cmd
}

func renderImportResult(out tui.Output, noun string, res *template.ImportResult) {
	for _, id := range res.Created {
		out.Success(fmt.Sprintf("created %s %s", noun, id))
	}
	for _, id := range res.Updated {
		out.Success(fmt.Sprintf("updated %s %s", noun, id))
	}
	for _, f := range res.Failed {
		out.Warning(fmt.Sprintf("%s: %s", f.Path, f.Error))
	}
	if len(res.Created)+len(res.Updated)+len(res.Failed) == 0 {
		out.Info("nothing imported")
	}
}

func newTemplateListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, func(a *app) error {
				templates, err := a.store.ListTemplates(cmd.Context())
				if err != nil {
					return err
				}
				out := newOutput(cmd, s)
				if out.IsJSON() {
					return out.JSON(templates)
				}
				if len(templates) == 0 {
					out.Info("no templates")
					return nil
				}
				table := tui.NewTable(out.Writer(),
					tui.TableColumn{Name: "ID"},
					tui.TableColumn{Name: "NAME", MaxWidth: 40},
					tui.TableColumn{Name: "STATUS"},
					tui.TableColumn{Name: "VERSION", Align: tui.AlignRight},
					tui.TableColumn{Name: "MIGRATIONS", Align: tui.AlignRight},
				)
				for _, t := range templates {
					table.AddRow(t.ID, t.Name, string(t.Status), fmt.Sprint(t.Version), fmt.Sprint(len(t.MigrationLog)))
				}
				table.Render()
				return nil
			})
		},
	}
}
