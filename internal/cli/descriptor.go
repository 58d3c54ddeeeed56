package cli

import (
	"errors"
	"os"

	"github.com/dgallion1/docgraph/internal/descriptor"
	"github.com/spf13/cobra"
)

// descriptorFlags selects a descriptor by file path or by name.
type descriptorFlags struct {
	path            string
	name            string
	dir             string
	padding         bool
	internalMarkers bool
	inlineData      bool
}

func (f *descriptorFlags) register(cmd *cobra.Command) {
	dir := os.Getenv("DESCRIPTOR_DIR")
	if dir == "" {
		dir = "descriptors"
	}
	cmd.Flags().StringVarP(&f.path, "descriptor", "d", "", "Descriptor file (YAML or JSON)")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Named descriptor from --descriptor-dir")
	cmd.Flags().StringVar(&f.dir, "descriptor-dir", dir, "Directory of named descriptors")
	cmd.Flags().BoolVar(&f.padding, "padding", false, "Insert padding nodes for skipped levels")
	cmd.Flags().BoolVar(&f.internalMarkers, "internal-markers", false, "Also match [[pattern]] artifact markers")
	cmd.Flags().BoolVar(&f.inlineData, "inline-data", false, "Capture {...} data maps after labels")
	cmd.MarkFlagsMutuallyExclusive("descriptor", "name")
}

// load reads the selected descriptor and applies the command-line
// switches on top of it.
func (f *descriptorFlags) load(cmd *cobra.Command) (*descriptor.Descriptor, error) {
	var (
		spec descriptor.Spec
		err  error
	)
	switch {
	case f.path != "":
		spec, err = descriptor.LoadFile(f.path)
	case f.name != "":
		spec, err = descriptor.LoadNamed(f.dir, f.name)
	default:
		return nil, errors.New("one of --descriptor or --name is required")
	}
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("padding") {
		spec.Padding = f.padding
	}
	spec.InternalMarkers = spec.InternalMarkers || f.internalMarkers
	spec.InlineData = spec.InlineData || f.inlineData
	return descriptor.Normalize(spec)
}
