package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dgallion1/docgraph/internal/doctree"
	"github.com/dgallion1/docgraph/internal/parsing"
	"github.com/spf13/cobra"
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	var (
		desc   descriptorFlags
		sample string
		leafs  bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a descriptor and show its levels",
		Long: `Normalize a descriptor and print its levels. With --sample the descriptor
is run against a document and the number of nodes found per level is
reported, which is the quickest way to see whether the patterns fit.`,
		Example: `  docgraph validate -d contract.yaml
  docgraph validate -n policy --sample policy.pdf --leafs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := desc.load(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "root\t%s\n", d.Root)
			fmt.Fprintf(tw, "padding\t%t\n", d.Padding)
			fmt.Fprintf(tw, "exclude\t%d pattern(s)\n", len(d.Exclude))
			fmt.Fprintln(tw, "LEVEL\tLABELS\tPATTERNS")
			for i, lvl := range d.Levels {
				patterns := make([]string, len(lvl.Matchers))
				for j, m := range lvl.Matchers {
					patterns[j] = m.Pattern()
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, strings.Join(lvl.Labels, ", "), strings.Join(patterns, "  "))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if sample == "" {
				return nil
			}

			p := &parsing.Parser{Logger: root.logger()}
			doc, err := p.File(sample, d)
			if err != nil {
				return err
			}
			report := doc.FlatReport(leafs)
			fmt.Fprintf(out, "\n%s: %d nodes, max depth %d\n", sample, doc.Len(), doc.MaxDepth())
			tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, level := range doctree.SortedLevels(report) {
				label := d.Root
				if level > 0 {
					label = d.Label(level)
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\n", level, label, report[level])
			}
			return tw.Flush()
		},
	}
	desc.register(cmd)
	cmd.Flags().StringVar(&sample, "sample", "", "Document to run the descriptor against")
	cmd.Flags().BoolVar(&leafs, "leafs", false, "Include the deepest level in the report")
	return cmd
}
