package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pipewright/pipewright/src/output"
	"github.com/pipewright/pipewright/src/secrets"
	"github.com/spf13/cobra"
)

var scanArtifacts []string

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Scan the rendered pipeline for leaked secrets",
	Long: `Build the pipeline from the manifests at the build root and scan the
rendered document, plus any given artifact files, for leaked secrets
without uploading anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanArtifacts, "artifact", nil, "additional artifact files to scan (repeatable)")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
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

	sc, err := secrets.NewScanner()
	if err != nil {
		return err
	}

	targets := make([]secrets.Target, 0, len(scanArtifacts)+1)
	targets = append(targets, secrets.Target{Name: "pipeline document", Data: doc})
	for _, path := range scanArtifacts {
		targets = append(targets, secrets.Target{Path: path})
	}

	start := time.Now()
	findings, err := sc.ScanAll(context.Background(), targets)
	if err != nil {
		return fmt.Errorf("scanning for secrets: %w", err)
	}
	elapsed := time.Since(start)

	w := os.Stdout
	color := output.UseColor()

	sec := output.NewSection(w, "Secrets", elapsed, color)
	sec.Row("%-16s%5d", "targets", len(targets))
	sec.Row("%-16s%5d", "steps", len(p.Definition().Steps))
	sec.Separator()
	status := "success"
	if len(findings) > 0 {
		status = "failed"
	}
	sec.Status("scan", status, output.ScanSummaryLine(len(findings), len(targets), color))
	sec.Close()

	if len(findings) > 0 {
		pr := &output.Printer{Writer: w, Color: color}
		pr.Print(findings)
		pr.Summary(len(findings), len(targets))
		return fmt.Errorf("scan failed: %d potential secrets", len(findings))
	}

	return nil
}
