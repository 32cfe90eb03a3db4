package pdfcomply

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// mergeStrategy is one way of joining documents page by page.
type mergeStrategy struct {
	name  string
	merge func(ctx context.Context, inputs []string, output string) error
}

// mergeChain returns the strategies in the order they are tried: one
// Ghostscript pass, the same pass through an argument file, pairwise folding,
// then qpdf. Scratch files go to workDir.
func (c *Converter) mergeChain(workDir string) []mergeStrategy {
	var chain []mergeStrategy
	if c.concat != nil {
		chain = append(chain,
			mergeStrategy{name: "direct", merge: c.concat.Concat},
			mergeStrategy{name: "filelist", merge: func(ctx context.Context, inputs []string, output string) error {
				return c.concat.ConcatFileList(ctx, inputs, output, filepath.Join(workDir, "merge_inputs.txt"))
			}},
			mergeStrategy{name: "pairwise", merge: func(ctx context.Context, inputs []string, output string) error {
				return c.concat.ConcatPairwise(ctx, inputs, output, workDir)
			}},
		)
	}
	if c.qpdfMerge != nil {
		version := c.cfg.profile.Version
		chain = append(chain, mergeStrategy{name: "qpdf", merge: func(ctx context.Context, inputs []string, output string) error {
			return c.qpdfMerge.Merge(ctx, inputs, output, version)
		}})
	}
	return chain
}

// runMergeChain tries each strategy until one leaves a usable artifact at
// output and returns the name of the strategy that succeeded.
func runMergeChain(ctx context.Context, log zerolog.Logger, chain []mergeStrategy, inputs []string, output string) (string, error) {
	if len(chain) == 0 {
		return "", fmt.Errorf("%w: no merge tool available", ErrMissingDependency)
	}

	var errs []error
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		_ = os.Remove(output)

		err := s.merge(ctx, inputs, output)
		if err == nil && artifactOK(output) {
			log.Debug().Str("strategy", s.name).Int("inputs", len(inputs)).Msg("merged")
			return s.name, nil
		}
		if err == nil {
			err = ErrEmptyOutput
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn().Str("strategy", s.name).Err(err).Msg("merge strategy failed")
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}

	_ = os.Remove(output)
	return "", fmt.Errorf("%w: %w", ErrAssemblyFailure, errors.Join(errs...))
}
