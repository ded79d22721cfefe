package cli

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/textgraph/internal/prompts"
	"github.com/spf13/cobra"
)

var (
	promptKind string
	promptVars []string
)

var promptsCmd = &cobra.Command{
	Use:         "prompts",
	Short:       "Inspect prompt templates",
	Annotations: map[string]string{skipDB: "true"},
}

var promptsListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List system and user templates",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipDB: "true"},
	RunE:        runPromptsList,
}

var promptsRenderCmd = &cobra.Command{
	Use:   "render <name>",
	Short: "Render a template with variables",
	Long: `Render a template as it would be sent to the model.

User templates substitute N/A for variables that are not given.

Examples:
  textgraph prompts render node_extraction --var text="Alice met Bob."
  textgraph prompts render node_extraction --kind system`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipDB: "true"},
	RunE:        runPromptsRender,
}

func init() {
	promptsRenderCmd.Flags().StringVarP(&promptKind, "kind", "k", string(prompts.KindUser), "template kind: system or user")
	promptsRenderCmd.Flags().StringArrayVar(&promptVars, "var", nil, "substitution in key=value form (repeatable)")

	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsRenderCmd)
}

func runPromptsList(cmd *cobra.Command, args []string) error {
	store, err := prompts.NewStore(promptFS())
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	out := cmd.OutOrStdout()
	listing := map[string][]string{
		string(prompts.KindSystem): store.Names(prompts.KindSystem),
		string(prompts.KindUser):   store.Names(prompts.KindUser),
	}
	if wantJSON(out) {
		return printJSON(out, listing)
	}

	t := newTheme(out)
	for _, kind := range []prompts.Kind{prompts.KindSystem, prompts.KindUser} {
		fmt.Fprintln(out, t.status(string(kind)))
		for _, name := range listing[string(kind)] {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}

func runPromptsRender(cmd *cobra.Command, args []string) error {
	subs, err := parseVars(promptVars)
	if err != nil {
		return err
	}
	store, err := prompts.NewStore(promptFS())
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	text, err := store.Render(prompts.Kind(promptKind), args[0], subs)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func parseVars(vars []string) (map[string]string, error) {
	subs := make(map[string]string, len(vars))
	for _, v := range vars {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", v)
		}
		subs[key] = value
	}
	return subs, nil
}
