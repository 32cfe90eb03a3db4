package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	pdfcomply "github.com/alnah/go-pdfcomply"
)

// runCompressCmd re-encodes one document at a compression tier.
func runCompressCmd(ctx context.Context, args []string, env *Environment) error {
	f, paths, err := parseCompressFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	tier, err := pdfcomply.ParseTier(f.tier)
	if err != nil {
		return err
	}
	if len(paths) != 1 {
		return fmt.Errorf("%w: compress takes exactly one document, got %d", ErrArgCount, len(paths))
	}
	s, err := loadSettings(&f.common, &f.profile, env)
	if err != nil {
		return err
	}

	pool := env.NewPool(1, s.converterOptions()...)
	defer func() { _ = pool.Close() }()

	return withConverter(pool, func(conv Converter) error {
		res, err := conv.Compress(ctx, pdfcomply.CompressInput{Path: paths[0], Output: f.output, Tier: tier})
		if err != nil {
			return err
		}
		if !s.quiet {
			fmt.Fprintf(env.Stdout, "Created %s (%s -> %s, %.1f%% smaller, tier %s)\n",
				res.Output, sizeOf(res.OriginalSize), sizeOf(res.Size), res.Reduction, res.Tier)
		}
		printFindings(env.Stderr, paths[0], res.Findings)
		return nil
	})
}

// runMergeCmd joins compliant documents into one.
func runMergeCmd(ctx context.Context, args []string, env *Environment) error {
	f, paths, err := parseMergeFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return ErrNoInput
	}
	s, err := loadSettings(&f.common, &f.profile, env)
	if err != nil {
		return err
	}

	pool := env.NewPool(1, s.converterOptions()...)
	defer func() { _ = pool.Close() }()

	return withConverter(pool, func(conv Converter) error {
		res, err := conv.Merge(ctx, pdfcomply.MergeInput{Paths: paths, Output: f.output})
		if err != nil {
			return err
		}
		if !s.quiet {
			fmt.Fprintf(env.Stdout, "Created %s (%d documents, %d pages, %s)\n",
				res.Output, res.Inputs, res.Pages, sizeOf(res.Size))
		}
		if s.verbose {
			fmt.Fprintf(env.Stdout, "  strategy: %s\n", res.Strategy)
		}
		printFindings(env.Stderr, res.Output, res.Findings)
		return nil
	})
}

// runExtractCmd stores every page of a document as a JPEG in a ZIP archive.
func runExtractCmd(ctx context.Context, args []string, env *Environment) error {
	f, paths, err := parseExtractFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	if len(paths) != 1 {
		return fmt.Errorf("%w: extract takes exactly one document, got %d", ErrArgCount, len(paths))
	}
	s, err := loadSettings(&f.common, &f.profile, env)
	if err != nil {
		return err
	}

	pool := env.NewPool(1, s.converterOptions()...)
	defer func() { _ = pool.Close() }()

	return withConverter(pool, func(conv Converter) error {
		res, err := conv.ExtractImages(ctx, pdfcomply.ExtractInput{Path: paths[0], Output: f.output, Quality: f.quality})
		if err != nil {
			return err
		}
		if !s.quiet {
			fmt.Fprintf(env.Stdout, "Created %s (%d images, %s)\n", res.Output, res.Images, sizeOf(res.Size))
		}
		if s.verbose {
			for _, name := range res.Files {
				fmt.Fprintf(env.Stdout, "  %s\n", name)
			}
		}
		return nil
	})
}

// printFindings writes each finding as a warning.
func printFindings(w io.Writer, subject string, findings []pdfcomply.Finding) {
	for _, f := range findings {
		fmt.Fprintf(w, "warning: %s: %s\n", subject, f.Message)
	}
}

func sizeOf(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}
