package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/dgallion1/docgraph/internal/chunker"
	"github.com/dgallion1/docgraph/internal/doctree"
	"github.com/dgallion1/docgraph/internal/parser"
	"github.com/dgallion1/docgraph/internal/parsing"
	"github.com/spf13/cobra"
)

type parseOptions struct {
	root   *rootOptions
	desc   descriptorFlags
	format string
	query  string
	raw    bool

	chunks      bool
	chunkCfg    chunker.Config
	noPdftotext bool
}

func newParseCommand(root *rootOptions) *cobra.Command {
	o := &parseOptions{root: root, chunkCfg: chunker.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Build the hierarchy of a document",
		Long: `Build the hierarchy of a document and print it.

Supported inputs: ` + strings.Join(slices.Sorted(maps.Keys(parser.SupportedExtensions)), " ") + `. Use "-" to read
plain text from stdin.

Output defaults to a tree on a terminal and to JSON otherwise. --query runs a
jq expression over the JSON form (document or chunks) and prints each result.`,
		Example: `  docgraph parse contract.pdf -d contract.yaml
  docgraph parse policy.md -n policy -f outline
  docgraph parse policy.txt -n policy --query '.nodes[] | select(.content.level == 1) | .key'
  docgraph parse policy.txt -n policy --chunks --chunk-size 500`,
		Args: cobra.ExactArgs(1),
		RunE: o.run,
	}
	o.desc.register(cmd)
	cmd.Flags().StringVarP(&o.format, "format", "f", formatTree, "Output format: json|yaml|tree|outline")
	cmd.Flags().StringVarP(&o.query, "query", "q", "", "jq expression applied to the JSON output")
	cmd.Flags().BoolVar(&o.raw, "raw", false, "Keep excluded text in node content")
	cmd.Flags().BoolVar(&o.chunks, "chunks", false, "Print retrieval chunks instead of the document")
	cmd.Flags().IntVar(&o.chunkCfg.ChunkSize, "chunk-size", o.chunkCfg.ChunkSize, "Target chunk size in tokens")
	cmd.Flags().IntVar(&o.chunkCfg.ChunkOverlap, "overlap", o.chunkCfg.ChunkOverlap, "Chunk overlap in tokens")
	cmd.Flags().IntVar(&o.chunkCfg.MinChunk, "min-chunk", o.chunkCfg.MinChunk, "Drop chunks smaller than this many tokens")
	cmd.Flags().BoolVar(&o.noPdftotext, "no-pdftotext", false, "Do not fall back to pdftotext for PDFs")
	return cmd
}

func (o *parseOptions) run(cmd *cobra.Command, args []string) error {
	d, err := o.desc.load(cmd)
	if err != nil {
		return err
	}
	if o.raw {
		d.Exclude = nil
	}

	p := &parsing.Parser{
		Logger:  o.root.logger(),
		Sources: parser.Options{PDFFallbackPdftotext: !o.noPdftotext},
	}
	var doc *doctree.Document
	if args[0] == "-" {
		doc, err = p.Reader(cmd.InOrStdin(), "stdin.txt", d)
	} else {
		doc, err = p.File(args[0], d)
	}
	if err != nil {
		return err
	}
	o.root.logger().Debug("document built", "nodes", doc.Len(), "max_depth", doc.MaxDepth())

	out := cmd.OutOrStdout()
	format := o.format
	if !cmd.Flags().Changed("format") && (o.query != "" || o.chunks || !isTerminal(out)) {
		format = formatJSON
	}
	return o.write(cmd, out, format, doc)
}

func (o *parseOptions) write(cmd *cobra.Command, out io.Writer, format string, doc *doctree.Document) error {
	switch format {
	case formatTree, formatOutline:
		if o.query != "" || o.chunks {
			return fmt.Errorf("--format %s cannot be combined with --query or --chunks", format)
		}
		if format == formatOutline {
			_, err := io.WriteString(out, doc.String())
			return err
		}
		return renderTree(out, doc)
	case formatJSON, formatYAML:
		var v any = doc.ToDict()
		if o.chunks {
			v = chunker.ChunkDocument(doc, o.chunkCfg)
		}
		return writeValue(cmd.Context(), out, format, o.query, v)
	}
	return fmt.Errorf("unknown format %q (expected json|yaml|tree|outline)", format)
}
