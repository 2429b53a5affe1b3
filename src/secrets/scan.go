// Package secrets guards uploads against leaked credentials by scanning the
// rendered pipeline document and every registered artifact with gitleaks
// before anything leaves the machine.
package secrets

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
	"golang.org/x/sync/semaphore"
)

// Target is one item queued for scanning: either raw bytes or a file path
// read at scan time.
type Target struct {
	Name string // how the target is reported, e.g. "pipeline document"
	Path string // file to read when Data is nil
	Data []byte
}

// Finding is one potential secret found in a target. The matched secret
// itself is never carried, only where to look.
type Finding struct {
	Target      string // target name
	Line        int    // 1-indexed line in the target
	Rule        string // gitleaks rule id
	Description string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: %s (%s)", f.Target, f.Line, f.Description, f.Rule)
}

// LeakError aborts an upload that would publish detected secrets.
type LeakError struct {
	Findings []Finding
}

func (e *LeakError) Error() string {
	if len(e.Findings) == 1 {
		return fmt.Sprintf("refusing to upload: potential secret at %s", e.Findings[0])
	}
	return fmt.Sprintf("refusing to upload: %d potential secrets detected", len(e.Findings))
}

// Scanner wraps a gitleaks detector loaded with the default ruleset.
type Scanner struct {
	detector *detect.Detector
}

// NewScanner builds a scanner with the gitleaks default config.
func NewScanner() (*Scanner, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks config: %w", err)
	}
	return &Scanner{detector: d}, nil
}

// ScanData checks one in-memory target.
func (s *Scanner) ScanData(name string, data []byte) []Finding {
	hits := s.detector.DetectBytes(data)
	findings := make([]Finding, 0, len(hits))
	for _, h := range hits {
		findings = append(findings, Finding{
			Target:      name,
			Line:        h.StartLine + 1, // gitleaks is 0-indexed
			Rule:        h.RuleID,
			Description: h.Description,
		})
	}
	return findings
}

// ScanAll checks every target, reading files with bounded concurrency. The
// detector is shared across goroutines, the same way gitleaks drives its own
// file walks. Findings come back grouped in target order.
func (s *Scanner) ScanAll(ctx context.Context, targets []Target) ([]Finding, error) {
	sem := semaphore.NewWeighted(int64(runtime.NumCPU()))
	byTarget := make([][]Finding, len(targets))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for i, tg := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			fail(err)
			break
		}
		wg.Add(1)
		go func(i int, tg Target) {
			defer wg.Done()
			defer sem.Release(1)

			data := tg.Data
			if data == nil {
				var err error
				data, err = os.ReadFile(tg.Path)
				if err != nil {
					fail(fmt.Errorf("reading %s: %w", targetName(tg), err))
					return
				}
			}
			byTarget[i] = s.ScanData(targetName(tg), data)
		}(i, tg)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	var findings []Finding
	for _, fs := range byTarget {
		findings = append(findings, fs...)
	}
	return findings, nil
}

func targetName(tg Target) string {
	if tg.Name != "" {
		return tg.Name
	}
	return tg.Path
}
