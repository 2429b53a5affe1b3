package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pipewright/pipewright/src/build"
	"github.com/pipewright/pipewright/src/buildmeta"
	"github.com/pipewright/pipewright/src/manifest"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview [root]",
	Short: "Build the pipeline and print its document",
	Long: `Build the pipeline from the manifests at the build root and print the
canonical document to stdout without uploading anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	rootDir, err := resolveRoot(args)
	if err != nil {
		return err
	}

	p, err := buildFromRoot(rootDir)
	if err != nil {
		return err
	}

	doc, err := p.Definition().ToYAML()
	if err != nil {
		return err
	}

	describeBuild(rootDir)
	_, err = os.Stdout.Write(doc)
	return err
}

// loadRegistry loads every manifest under the configured directory.
func loadRegistry(rootDir string) (*manifest.Registry, error) {
	reg := manifest.NewRegistry()
	dir := filepath.Join(rootDir, cfg.Manifests)
	if err := reg.LoadDir(dir); err != nil {
		return nil, fmt.Errorf("loading manifests from %s: %w", dir, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "manifests: %d loaded from %s\n", reg.Len(), dir)
	}
	return reg, nil
}

// buildFromRoot assembles and validates the pipeline for the build root.
func buildFromRoot(rootDir string) (*build.Pipeline, error) {
	reg, err := loadRegistry(rootDir)
	if err != nil {
		return nil, err
	}
	p := build.New(rootDir, reg, nil)
	if err := p.Build(nil); err != nil {
		return nil, err
	}
	return p, nil
}

// describeBuild notes which checkout the document was built from.
func describeBuild(rootDir string) {
	info, err := buildmeta.Describe(rootDir)
	if err != nil || info == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "pipeline for %s\n", info)
}
