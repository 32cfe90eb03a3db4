package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	pdfcomply "github.com/alnah/go-pdfcomply"
	"github.com/alnah/go-pdfcomply/internal/fileutil"
	"github.com/alnah/go-pdfcomply/internal/hints"
)

// compliantSuffix marks documents this tool produced; discovery skips them.
const compliantSuffix = "_compliant.pdf"

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string // empty = library default next to the source
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath string
	Result    *pdfcomply.Result
	Err       error
	Duration  time.Duration
}

// runConvertCmd converts every discovered document to the profile.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	f, inputs, err := parseConvertFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	if err := validateWorkers(f.workers); err != nil {
		return err
	}
	timeout, err := f.renderTimeout()
	if err != nil {
		return err
	}
	if f.split && (f.parts < pdfcomply.MinParts || f.parts > pdfcomply.MaxParts) {
		return fmt.Errorf("%w: --parts %d (must be %d-%d)",
			pdfcomply.ErrInvalidPartCount, f.parts, pdfcomply.MinParts, pdfcomply.MaxParts)
	}
	switch f.rasterizer {
	case "", pdfcomply.RasterizerGhostscript, pdfcomply.RasterizerMuPDF:
	default:
		return fmt.Errorf("%w: --rasterizer %q", ErrInvalidFlag, f.rasterizer)
	}

	s, err := loadSettings(&f.common, &f.profile, env)
	if err != nil {
		return err
	}
	s.applyTimeout(timeout)
	if f.rasterizer != "" {
		s.cfg.Conversion.Rasterizer = f.rasterizer
	}

	if len(inputs) == 0 {
		return ErrNoInput
	}
	files, err := discoverFiles(inputs, f.output)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no supported documents in %s", ErrNoInput, strings.Join(inputs, ", "))
	}

	pool := env.NewPool(min(s.workers(f.workers), len(files)), s.converterOptions()...)
	defer func() { _ = pool.Close() }()

	template := pdfcomply.Input{Split: f.split, PartCount: f.parts, Verify: f.verify}

	var bar *progressbar.ProgressBar
	if len(files) > 1 && !s.quiet {
		bar = newProgressBar(env.Stderr, len(files))
	}
	results := convertBatch(ctx, pool, files, template, bar)
	if bar != nil {
		_ = bar.Finish()
	}

	return reportConversions(results, s, env)
}

// newProgressBar renders batch progress on w.
func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// convertBatch processes files concurrently using the converter pool.
// bar may be nil.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, template pdfcomply.Input, bar *progressbar.ProgressBar) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))
	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       fmt.Errorf("%w: %v", ErrConverterInit, err),
					}
					advance(bar)
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{InputPath: files[idx].InputPath, Err: ctx.Err()}
				} else {
					results[idx] = convertFile(ctx, conv, files[idx], template)
				}
				advance(bar)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv Converter, f FileToConvert, template pdfcomply.Input) ConversionResult {
	start := time.Now()
	in := template
	in.Path = f.InputPath
	in.Output = f.OutputPath

	res, err := conv.Convert(ctx, in)
	return ConversionResult{
		InputPath: f.InputPath,
		Result:    res,
		Err:       err,
		Duration:  time.Since(start),
	}
}

// reportConversions prints results and returns an error when any job failed.
// A single failed job returns its own error so the exit code reflects it.
func reportConversions(results []ConversionResult, s *settings, env *Environment) error {
	var failed []ConversionResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			if len(results) > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			}
			continue
		}
		printConversion(env, r, s.quiet, s.verbose)
	}

	if len(results) > 1 && !s.quiet {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-len(failed), len(failed))
	}

	if len(failed) == 0 {
		return nil
	}
	if len(results) == 1 {
		return failed[0].Err
	}
	return fmt.Errorf("%d of %d conversion(s) failed: %w", len(failed), len(results), failed[0].Err)
}

// printConversion writes one successful result. Findings are shown even in
// quiet mode.
func printConversion(env *Environment, r ConversionResult, quiet, verbose bool) {
	res := r.Result
	if !quiet {
		if len(res.Parts) > 0 {
			fmt.Fprintf(env.Stdout, "Split %s into %d parts\n", r.InputPath, len(res.Parts))
			for _, p := range res.Parts {
				fmt.Fprintf(env.Stdout, "  %s (pages %d-%d, %s)\n",
					p.Path, p.FirstPage, p.LastPage, sizeOf(p.Size))
			}
		} else if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d pages, %s, quality %d, %d attempts, %v)\n",
				r.InputPath, res.Output, res.Pages, sizeOf(res.Size),
				res.Quality, res.Attempts, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s (%s)\n", res.Output, sizeOf(res.Size))
		}
	}

	printFindings(env.Stderr, r.InputPath, res.Findings)
	oversize := slices.ContainsFunc(res.Findings, func(f pdfcomply.Finding) bool {
		return f.Kind == pdfcomply.SizeExceeded
	})
	if oversize && len(res.Parts) == 0 {
		fmt.Fprintln(env.Stderr, hintLine(hints.ForOversize()))
	}

	if res.Report != nil && !res.Report.Compliant() {
		fmt.Fprintf(env.Stderr, "warning: %s failed verification\n", res.Output)
	}
}

// discoverFiles expands inputs into documents to convert. Directories are
// walked recursively; files this tool produced are skipped.
func discoverFiles(inputs []string, output string) ([]FileToConvert, error) {
	var files []FileToConvert
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !isSupported(input) {
				return nil, fmt.Errorf("%w: %s", pdfcomply.ErrUnsupportedInput, input)
			}
			files = append(files, FileToConvert{InputPath: input})
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() || !isSupported(path) || isProduced(path) {
				return nil
			}
			files = append(files, FileToConvert{InputPath: path, OutputPath: resolveOutputPath(path, output, input)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// A single explicit file honors -o as a file name.
	for i := range files {
		if files[i].OutputPath == "" {
			files[i].OutputPath = resolveOutputPath(files[i].InputPath, output, "")
		}
	}
	if len(files) > 1 && strings.HasSuffix(strings.ToLower(output), ".pdf") {
		return nil, fmt.Errorf("%w: -o %s names a file but %d documents were found", ErrInvalidFlag, output, len(files))
	}
	return files, nil
}

// resolveOutputPath determines the output path for one source document.
// Empty output leaves the choice to the converter.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	if outputDir == "" {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(outputDir), ".pdf") {
		return outputDir
	}

	name := fileutil.Stem(inputPath) + compliantSuffix
	if baseInputDir != "" {
		if relPath, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), name)
		}
	}
	return filepath.Join(outputDir, name)
}

func isSupported(path string) bool {
	return slices.Contains(pdfcomply.SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// isProduced reports whether path looks like an earlier output.
func isProduced(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(base, compliantSuffix) {
		return true
	}
	stem := strings.TrimSuffix(base, ".pdf")
	i := strings.LastIndex(stem, "_part")
	if i < 0 || i+len("_part") == len(stem) {
		return false
	}
	for _, r := range stem[i+len("_part"):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return strings.HasSuffix(base, ".pdf")
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > pdfcomply.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, pdfcomply.MaxPoolSize)
	}
	return nil
}
