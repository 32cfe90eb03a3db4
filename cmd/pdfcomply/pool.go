package main

import (
	"context"
	"fmt"

	pdfcomply "github.com/alnah/go-pdfcomply"
)

// Converter is the subset of *pdfcomply.Converter the commands use.
type Converter interface {
	Convert(ctx context.Context, input pdfcomply.Input) (*pdfcomply.Result, error)
	Audit(ctx context.Context, path string) (pdfcomply.ComplianceReport, error)
	Compress(ctx context.Context, in pdfcomply.CompressInput) (*pdfcomply.CompressResult, error)
	Merge(ctx context.Context, in pdfcomply.MergeInput) (*pdfcomply.MergeResult, error)
	ExtractImages(ctx context.Context, in pdfcomply.ExtractInput) (*pdfcomply.ExtractResult, error)
}

// Compile-time interface implementation check.
var _ Converter = (*pdfcomply.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (Converter, error)
	Release(Converter)
	Size() int
	Close() error
}

// converterPool adapts *pdfcomply.ConverterPool to Pool.
type converterPool struct {
	p *pdfcomply.ConverterPool
}

func newConverterPool(size int, opts ...pdfcomply.Option) Pool {
	return &converterPool{p: pdfcomply.NewConverterPool(size, opts...)}
}

func (a *converterPool) Acquire() (Converter, error) {
	conv, err := a.p.Acquire()
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (a *converterPool) Release(c Converter) {
	if conv, ok := c.(*pdfcomply.Converter); ok {
		a.p.Release(conv)
	}
}

func (a *converterPool) Size() int    { return a.p.Size() }
func (a *converterPool) Close() error { return a.p.Close() }

// withConverter runs fn with one converter from a single-slot pool.
func withConverter(pool Pool, fn func(Converter) error) error {
	conv, err := pool.Acquire()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConverterInit, err)
	}
	defer pool.Release(conv)
	return fn(conv)
}
