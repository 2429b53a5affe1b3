package cmd

import (
	"os"

	"github.com/pipewright/pipewright/src/output"
	"github.com/spf13/cobra"
)

var manifestsCmd = &cobra.Command{
	Use:   "manifests [root]",
	Short: "List the manifests a build would load",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runManifests,
}

func init() {
	rootCmd.AddCommand(manifestsCmd)
}

func runManifests(cmd *cobra.Command, args []string) error {
	rootDir, err := resolveRoot(args)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(rootDir)
	if err != nil {
		return err
	}

	color := output.UseColor()
	sec := output.NewSection(os.Stdout, "Manifests", 0, color)
	if reg.Len() == 0 {
		sec.Row("%s", output.Dimmed("none found", color))
		sec.Close()
		return nil
	}

	sec.Row("%-20s %-14s %s", "name", "digest", "source")
	sec.Separator()
	for _, m := range reg.List() {
		sec.Row("%-20s %-14s %s", m.Name, m.Digest[:12], m.Path)
	}
	sec.Close()
	return nil
}
