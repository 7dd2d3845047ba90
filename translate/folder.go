package translate

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/mtl-tools/mtlkit/config"
	"github.com/mtl-tools/mtlkit/script"
)

// fileResult records the outcome of one file for the end-of-run report.
type fileResult struct {
	path string
	err  error
}

// TranslateFolder translates every script file under the configured
// input folder, mirroring the directory layout into the output folder.
// With concurrent_files > 1 files run in a bounded worker pool, one
// fresh Pipeline per file; otherwise a single pipeline processes them
// in order. A failing file is reported and skipped, the run continues.
func TranslateFolder(ctx context.Context, cfg *config.Config, opts Options) error {
	files, err := script.FindFiles(cfg.Translation.InputFolder)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no JSON files found in %s", cfg.Translation.InputFolder)
	}

	opts.log("Found %d files to translate", len(files))

	var failures []fileResult
	if cfg.Translation.ConcurrentFiles > 1 {
		failures = translateConcurrent(ctx, cfg, opts, files)
	} else {
		failures = translateSequential(ctx, cfg, opts, files)
	}

	if len(failures) > 0 {
		for _, f := range failures {
			opts.logError("  failed: %s: %v", f.path, f.err)
		}
		return fmt.Errorf("%d of %d files failed", len(failures), len(files))
	}

	opts.log("All %d files translated", len(files))
	return nil
}

func outputPathFor(cfg *config.Config, inputPath string) (string, error) {
	rel, err := filepath.Rel(cfg.Translation.InputFolder, inputPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.Translation.OutputFolder, rel), nil
}

// translateOne runs a single file under the per-file timeout.
func translateOne(ctx context.Context, cfg *config.Config, p *Pipeline, inputPath string) error {
	outputPath, err := outputPathFor(cfg, inputPath)
	if err != nil {
		return err
	}

	if timeout := cfg.Translation.FileTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	_, err = p.TranslateFile(ctx, inputPath, outputPath)
	return err
}

func translateSequential(ctx context.Context, cfg *config.Config, opts Options, files []string) []fileResult {
	p, err := NewPipeline(cfg, opts)
	if err != nil {
		failures := make([]fileResult, len(files))
		for i, f := range files {
			failures[i] = fileResult{path: f, err: err}
		}
		return failures
	}

	var failures []fileResult
	for _, f := range files {
		if ctx.Err() != nil {
			failures = append(failures, fileResult{path: f, err: ctx.Err()})
			continue
		}
		if err := translateOne(ctx, cfg, p, f); err != nil {
			failures = append(failures, fileResult{path: f, err: err})
		}
	}
	return failures
}

func translateConcurrent(ctx context.Context, cfg *config.Config, opts Options, files []string) []fileResult {
	opts.log("Using %d concurrent workers", cfg.Translation.ConcurrentFiles)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []fileResult
	)
	sem := make(chan struct{}, cfg.Translation.ConcurrentFiles)

	for _, f := range files {
		wg.Add(1)
		go func(inputPath string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := ctx.Err()
			if err == nil {
				// Each worker gets its own pipeline so context windows
				// and clients never cross files.
				var p *Pipeline
				p, err = NewPipeline(cfg, opts)
				if err == nil {
					err = translateOne(ctx, cfg, p, inputPath)
				}
			}
			if err != nil {
				mu.Lock()
				failures = append(failures, fileResult{path: inputPath, err: err})
				mu.Unlock()
			}
		}(f)
	}

	wg.Wait()
	return failures
}
