package pdfcomply

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-pdfcomply/internal/diag"
)

// PartitionByCount splits n pages into exactly k contiguous groups of
// ceil(n/k) pages. Later groups shrink when needed so that none is empty;
// the last may be shorter than the others.
func PartitionByCount(n, k int) ([]PartGroup, error) {
	if k < MinParts || k > MaxParts {
		return nil, fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidPartCount, k, MinParts, MaxParts)
	}
	if n < k {
		return nil, fmt.Errorf("%w: %d pages cannot fill %d parts", ErrInvalidPartCount, n, k)
	}

	per := (n + k - 1) / k
	groups := make([]PartGroup, 0, k)
	next := 1
	for i := 1; i <= k; i++ {
		remaining := n - next + 1
		size := min(per, remaining-(k-i))
		groups = append(groups, newGroup(i, next, size))
		next += size
	}
	return groups, nil
}

// PartitionBySize splits n pages into contiguous groups of size pages; the
// last group holds the remainder.
func PartitionBySize(n, size int) []PartGroup {
	if n <= 0 || size <= 0 {
		return nil
	}
	groups := make([]PartGroup, 0, (n+size-1)/size)
	for first, i := 1, 1; first <= n; first, i = first+size, i+1 {
		groups = append(groups, newGroup(i, first, min(size, n-first+1)))
	}
	return groups
}

func newGroup(index, first, count int) PartGroup {
	pages := make([]int, count)
	for i := range pages {
		pages[i] = first + i
	}
	return PartGroup{Index: index, Pages: pages}
}

// pagesOf selects the raster pages of g, in order.
func pagesOf(all []RasterPage, g PartGroup) []RasterPage {
	out := make([]RasterPage, 0, len(g.Pages))
	for _, idx := range g.Pages {
		out = append(out, all[idx-1])
	}
	return out
}

// assembleFunc returns a buildFunc that assembles pages at the requested
// quality.
func (j *job) assembleFunc(pages []RasterPage, workDir string) buildFunc {
	dpi := j.c.cfg.profile.DPI
	return func(ctx context.Context, quality int, output string) error {
		j.quality = quality
		return j.c.assembler.Assemble(ctx, pages, dpi, quality, output, workDir)
	}
}

// convertSmall assembles every page into one document through the
// quality-search loop.
func (j *job) convertSmall(ctx context.Context, pages []RasterPage) (*Result, error) {
	workDir, err := j.ws.Sub("assemble")
	if err != nil {
		return nil, err
	}

	j.enter(phaseAssemble)
	st, err := searchQuality(ctx, j.log, j.c.cfg.qualityLevels, j.c.cfg.profile.MaxBytes,
		j.candidatePath("document"), j.assembleFunc(pages, workDir))
	if err != nil {
		return nil, err
	}
	return j.finishSingle(ctx, st, len(pages))
}

// convertLarge assembles fixed-size groups and concatenates them. The
// quality-search loop wraps the whole assemble-and-merge pass so the size
// ceiling applies to the merged document.
func (j *job) convertLarge(ctx context.Context, pages []RasterPage) (*Result, error) {
	workDir, err := j.ws.Sub("assemble")
	if err != nil {
		return nil, err
	}
	mergeDir, err := j.ws.Sub("merge")
	if err != nil {
		return nil, err
	}
	groups := PartitionBySize(len(pages), j.c.cfg.groupSize)
	chain := j.c.mergeChain(mergeDir)
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no merge tool available", ErrMissingDependency)
	}

	build := func(ctx context.Context, quality int, output string) error {
		j.quality = quality
		j.enter(phaseAssemble)

		parts := make([]string, 0, len(groups))
		defer func() {
			for _, p := range parts {
				_ = os.Remove(p)
			}
		}()

		for _, g := range groups {
			j.part = g.Index
			part := j.ws.Path(fmt.Sprintf("group%03d_q%02d.pdf", g.Index, quality))
			if err := j.c.assembler.Assemble(ctx, pagesOf(pages, g), j.c.cfg.profile.DPI, quality, part, workDir); err != nil {
				return fmt.Errorf("group %d: %w", g.Index, err)
			}
			if !artifactOK(part) {
				return fmt.Errorf("group %d: %w", g.Index, ErrEmptyOutput)
			}
			parts = append(parts, part)
		}
		j.part = 0

		j.enter(phaseMerge)
		strategy, err := runMergeChain(ctx, j.log, chain, parts, output)
		if err != nil {
			return err
		}
		return j.checkPageCount(output, len(pages), strategy)
	}

	st, err := searchQuality(ctx, j.log, j.c.cfg.qualityLevels, j.c.cfg.profile.MaxBytes,
		j.candidatePath("merged"), build)
	if err != nil {
		return nil, err
	}
	return j.finishSingle(ctx, st, len(pages))
}

// checkPageCount fails when the merged document lost or duplicated pages.
// A document the counter cannot read is accepted with a log entry.
func (j *job) checkPageCount(path string, want int, strategy string) error {
	got, err := j.c.counter.CountPages(path)
	if err != nil {
		j.log.Warn().Err(err).Msg("page count unavailable; skipping merge verification")
		return nil
	}
	if got != want {
		return fmt.Errorf("%w: %s merge produced %d pages, want %d", ErrAssemblyFailure, strategy, got, want)
	}
	return nil
}

// finishSingle delivers the best candidate and builds the result.
func (j *job) finishSingle(ctx context.Context, st AttemptState, pages int) (*Result, error) {
	out := j.outputPath()
	if err := j.deliver(st.BestPath, out); err != nil {
		return nil, err
	}

	res := &Result{
		Output:   out,
		Pages:    pages,
		Size:     st.BestSize,
		Quality:  st.BestQuality,
		Attempts: st.Attempt,
	}
	if !st.Fits(j.c.cfg.profile.MaxBytes) {
		res.Findings = append(res.Findings, j.oversize(diag.ConvertOversize,
			j.c.msg.Bytes(st.BestSize), j.c.msg.Bytes(j.c.cfg.profile.MaxBytes)))
	}

	rep, err := j.verify(ctx, out)
	if err != nil {
		return nil, err
	}
	res.Report = rep
	j.log.Info().Str("output", out).Int64("bytes", res.Size).Int("quality", res.Quality).Int("attempts", res.Attempts).Msg("converted")
	return res, nil
}

// convertSplit assembles each group into its own document. Parts are never
// merged back together.
func (j *job) convertSplit(ctx context.Context, pages []RasterPage) (*Result, error) {
	groups, err := PartitionByCount(len(pages), j.input.PartCount)
	if err != nil {
		return nil, err
	}
	workDir, err := j.ws.Sub("assemble")
	if err != nil {
		return nil, err
	}

	res := &Result{Pages: len(pages)}
	for _, g := range groups {
		j.part = g.Index
		j.enter(phaseAssemble)

		st, err := searchQuality(ctx, j.log, j.c.cfg.qualityLevels, j.c.cfg.profile.MaxBytes,
			j.candidatePath(fmt.Sprintf("part%d", g.Index)), j.assembleFunc(pagesOf(pages, g), workDir))
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", g.Index, err)
		}

		out := j.partPath(g.Index)
		if err := j.deliver(st.BestPath, out); err != nil {
			return nil, err
		}
		g.Size = st.BestSize

		part := Part{
			Index:     g.Index,
			Path:      out,
			FirstPage: g.First(),
			LastPage:  g.Last(),
			Pages:     len(g.Pages),
			Size:      g.Size,
			Quality:   st.BestQuality,
		}
		if !st.Fits(j.c.cfg.profile.MaxBytes) {
			res.Findings = append(res.Findings, j.oversize(diag.PartOversize,
				g.Index, j.c.msg.Bytes(st.BestSize), j.c.msg.Bytes(j.c.cfg.profile.MaxBytes)))
		}
		if part.Report, err = j.verify(ctx, out); err != nil {
			return nil, err
		}

		res.Parts = append(res.Parts, part)
		res.Size += part.Size
		res.Attempts += st.Attempt
		j.log.Info().Int("part", g.Index).Str("output", out).Int64("bytes", part.Size).Msg("part converted")
	}
	j.part = 0
	return res, nil
}
