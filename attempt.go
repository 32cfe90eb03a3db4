package pdfcomply

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/alnah/go-pdfcomply/internal/fileutil"
	"github.com/alnah/go-pdfcomply/internal/process"
)

// minArtifactBytes is the smallest file accepted as a produced document.
// Anything at or below it is an empty or truncated write.
const minArtifactBytes = 100

// artifactOK is the uniform success predicate for every producing step.
func artifactOK(path string) bool {
	return fileutil.LargerThan(path, minArtifactBytes)
}

// AttemptState is one step of the quality-search loop. Transitions return a
// new value; the receiver is never modified.
type AttemptState struct {
	Attempt     int
	Quality     int
	Output      string
	Size        int64
	BestPath    string
	BestSize    int64
	BestQuality int
	Failures    []error
}

func (s AttemptState) next(quality int, output string) AttemptState {
	s.Attempt++
	s.Quality = quality
	s.Output = output
	s.Size = 0
	return s
}

// measured records the size of the current output and promotes it to best
// when it is the smallest so far.
func (s AttemptState) measured(size int64) AttemptState {
	s.Size = size
	if s.BestPath == "" || size < s.BestSize {
		s.BestPath = s.Output
		s.BestSize = size
		s.BestQuality = s.Quality
	}
	return s
}

func (s AttemptState) failed(err error) AttemptState {
	failures := make([]error, len(s.Failures), len(s.Failures)+1)
	copy(failures, s.Failures)
	s.Failures = append(failures, fmt.Errorf("quality %d: %w", s.Quality, err))
	return s
}

// Fits reports whether the best candidate is within maxBytes.
func (s AttemptState) Fits(maxBytes int64) bool {
	return s.BestPath != "" && s.BestSize <= maxBytes
}

// buildFunc produces one candidate document at quality.
type buildFunc func(ctx context.Context, quality int, output string) error

// searchQuality builds a candidate at each level in order and stops at the
// first one within maxBytes. Only the best candidate file survives. A level
// that fails to build is skipped; when every level fails the result is
// ErrAssemblyFailure.
func searchQuality(ctx context.Context, log zerolog.Logger, levels []int, maxBytes int64, pathFor func(quality int) string, build buildFunc) (AttemptState, error) {
	var st AttemptState
	for _, q := range levels {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		st = st.next(q, pathFor(q))
		_ = os.Remove(st.Output)

		err := build(ctx, q, st.Output)
		if err == nil && !artifactOK(st.Output) {
			err = ErrEmptyOutput
		}
		if err != nil {
			_ = os.Remove(st.Output)
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			if errors.Is(err, process.ErrNotFound) {
				return st, fmt.Errorf("%w: %v", ErrMissingDependency, err)
			}
			log.Warn().Int("quality", q).Err(err).Msg("assembly attempt failed")
			st = st.failed(err)
			continue
		}

		size, err := fileutil.Size(st.Output)
		if err != nil {
			st = st.failed(err)
			continue
		}

		prevBest := st.BestPath
		st = st.measured(size)
		if prevBest != "" && prevBest != st.BestPath {
			_ = os.Remove(prevBest)
		}
		if st.BestPath != st.Output {
			_ = os.Remove(st.Output)
		}

		log.Debug().Int("attempt", st.Attempt).Int("quality", q).Int64("bytes", size).Msg("candidate measured")
		if size <= maxBytes {
			break
		}
	}

	if st.BestPath == "" {
		return st, fmt.Errorf("%w: %w", ErrAssemblyFailure, errors.Join(st.Failures...))
	}
	return st, nil
}
