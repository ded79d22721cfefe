package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/textgraph/internal/models"
	"github.com/spf13/cobra"
)

var clearForce bool

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the stored graph",
	Args:  cobra.NoArgs,
	RunE:  runGraph,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every node and relationship",
	Long: `Delete every node and relationship from the graph.

Requires confirmation unless --force is used.

Examples:
  textgraph clear
  textgraph clear --force`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database connection",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "skip confirmation")
}

func runGraph(cmd *cobra.Command, args []string) error {
	snap, err := dbClient.FullSnapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch graph: %w", err)
	}

	out := cmd.OutOrStdout()
	if wantJSON(out) {
		return printJSON(out, snap)
	}
	printSnapshot(out, snap, newTheme(out))
	return nil
}

func printSnapshot(w io.Writer, snap models.GraphSnapshot, t Theme) {
	if len(snap.Nodes) == 0 {
		fmt.Fprintln(w, t.hint("Graph is empty."))
		return
	}

	names := make(map[string]string, len(snap.Nodes))
	fmt.Fprintf(w, "%s (%d)\n", t.status("Nodes"), len(snap.Nodes))
	for _, n := range snap.Nodes {
		names[n.ID] = n.Name()
		fmt.Fprintf(w, "  %s %s %s\n", n.Name(), t.label("["+n.Label+"]"), t.hint(n.ID))
	}
	fmt.Fprintf(w, "\n%s (%d)\n", t.status("Relationships"), len(snap.Relationships))
	for _, r := range snap.Relationships {
		fmt.Fprintf(w, "  %s -%s-> %s\n", nameOr(names, r.Source), t.label(r.Type), nameOr(names, r.Target))
	}
}

func runClear(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !clearForce {
		fmt.Fprint(out, "About to delete the whole graph.\n\nContinue? [y/N]: ")
		ok, err := confirm(os.Stdin)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	deleted, err := dbClient.ClearAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	if !deleted {
		fmt.Fprintln(out, "Graph was already empty.")
		return nil
	}
	fmt.Fprintln(out, "Graph cleared.")
	return nil
}

func confirm(r io.Reader) (bool, error) {
	response, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

func runPing(cmd *cobra.Command, args []string) error {
	if err := dbClient.Ping(cmd.Context()); err != nil {
		return err
	}
	t := newTheme(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "%s connected to %s (%s/%s)\n",
		t.success("✓"), cfg.SurrealDBURL, cfg.SurrealDBNamespace, cfg.SurrealDBDatabase)
	return nil
}
