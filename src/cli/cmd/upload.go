package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pipewright/pipewright/src/agent"
	"github.com/pipewright/pipewright/src/build"
	"github.com/pipewright/pipewright/src/output"
	"github.com/pipewright/pipewright/src/secrets"
	"github.com/spf13/cobra"
)

var (
	uploadDryRun    bool
	uploadWarnOnly  bool
	uploadArtifacts []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [root]",
	Short: "Build the pipeline and upload it to Buildkite",
	Long: `Build the pipeline from the manifests at the build root, scan it for
leaked secrets, and hand it to buildkite-agent together with any
declared artifacts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "print agent operations without executing them")
	uploadCmd.Flags().BoolVar(&uploadWarnOnly, "warn-only", false, "report secret findings without failing the upload")
	uploadCmd.Flags().StringSliceVar(&uploadArtifacts, "artifact", nil, "additional artifact files to upload (repeatable)")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	rootDir, err := resolveRoot(args)
	if err != nil {
		return err
	}
	ctx := context.Background()
	w := os.Stderr
	start := time.Now()

	output.ContextBlock(w, output.BuildContext())
	output.Group(w, "pipewright: building pipeline")

	p, err := buildFromRoot(rootDir)
	if err != nil {
		output.ExpandCurrentGroup(w)
		return err
	}
	for _, path := range uploadArtifacts {
		p.AddArtifact(path)
	}
	describeBuild(rootDir)
	if verbose {
		fmt.Fprintf(w, "steps: %d, artifacts: %d\n", len(p.Definition().Steps), len(p.Artifacts()))
	}

	var scanner *secrets.Scanner
	if cfg.Secrets.Enabled {
		scanner, err = secrets.NewScanner()
		if err != nil {
			return err
		}
	}

	var dest agent.Agent
	if uploadDryRun {
		dest = &agent.DryRunAgent{W: os.Stdout}
	} else {
		dest = agent.NewExecAgent(cfg.Agent.Binary, verbose)
	}

	output.GroupExpand(w, "pipewright: uploading pipeline")
	err = p.Upload(ctx, build.UploadOptions{
		Agent:    dest,
		Scanner:  scanner,
		WarnOnly: uploadWarnOnly || cfg.Secrets.WarnOnly,
		Verbose:  verbose,
		Stderr:   w,
	})
	if err != nil {
		output.ExpandCurrentGroup(w)
		var lerr *secrets.LeakError
		if errors.As(err, &lerr) {
			pr := output.NewPrinter()
			pr.Print(lerr.Findings)
			pr.Summary(len(lerr.Findings), len(p.Artifacts())+1)
			return fmt.Errorf("upload blocked: %d potential secret(s)", len(lerr.Findings))
		}
		return err
	}

	color := output.UseColor()
	icon := output.StatusIcon("success", color)
	steps := len(p.Definition().Steps)
	artifacts := len(p.Artifacts())
	if uploadDryRun {
		fmt.Fprintf(w, "%s dry run complete (%d steps, %d artifacts)\n", icon, steps, artifacts)
		return nil
	}
	fmt.Fprintf(w, "%s pipeline uploaded (%d steps, %d artifacts) in %s\n",
		icon, steps, artifacts, time.Since(start).Round(time.Millisecond))
	return nil
}
