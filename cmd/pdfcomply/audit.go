package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	pdfcomply "github.com/alnah/go-pdfcomply"
	"github.com/alnah/go-pdfcomply/internal/config"
	"github.com/alnah/go-pdfcomply/internal/hints"
)

// Status tags shared by audit and doctor output.
var (
	tagOK    = color.New(color.FgGreen).Sprint("[OK]")
	tagFail  = color.New(color.FgRed).Sprint("[FAIL]")
	tagWarn  = color.New(color.FgYellow).Sprint("[WARN]")
	tagError = color.New(color.FgRed, color.Bold).Sprint("[ERROR]")
)

// runAuditCmd audits each document and fails with ErrNonCompliant when any
// rule is violated.
func runAuditCmd(ctx context.Context, args []string, env *Environment) error {
	f, paths, err := parseAuditFlags(args, env.Stdout)
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

	reports := make([]pdfcomply.ComplianceReport, 0, len(paths))
	err = withConverter(pool, func(conv Converter) error {
		for _, p := range paths {
			rep, err := conv.Audit(ctx, p)
			if err != nil {
				return err
			}
			reports = append(reports, rep)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if f.json {
		if err := writeReportsJSON(env.Stdout, reports); err != nil {
			return err
		}
	} else {
		for i, rep := range reports {
			if i > 0 {
				fmt.Fprintln(env.Stdout)
			}
			printReport(env.Stdout, rep, s.cfg.Profile)
		}
	}

	for _, rep := range reports {
		if !rep.Compliant() {
			return ErrNonCompliant
		}
	}
	return nil
}

// writeReportsJSON writes one object for a single report, an array otherwise.
func writeReportsJSON(w io.Writer, reports []pdfcomply.ComplianceReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
}

// printReport outputs a human-readable verdict.
func printReport(w io.Writer, r pdfcomply.ComplianceReport, p config.ProfileConfig) {
	fmt.Fprintln(w, r.Path)

	version := r.Version
	if version == "" {
		version = "unknown"
	}
	valid := len(r.Images) - r.InvalidImages

	printCheck(w, r.SizeOK, "Size: %s (limit %s)",
		sizeOf(r.Size), sizeOf(p.MaxBytes))
	printCheck(w, r.VersionOK, "PDF version: %s (required %s)", version, p.Version)
	printCheck(w, r.ResolutionOK, "Resolution: %d of %d images at %d DPI", valid, len(r.Images), p.DPI)
	printCheck(w, r.ColorOK, "Color: grayscale")
	printCheck(w, r.EncryptionOK, "Encryption: none")

	for _, msg := range r.Errors {
		fmt.Fprintf(w, "  %s %s\n", tagFail, msg)
	}
	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "  %s %s\n", tagWarn, msg)
	}

	if !r.SizeOK {
		fmt.Fprintln(w, hintLine(hints.ForOversize()))
	}
	if !r.EncryptionOK {
		fmt.Fprintln(w, hintLine(hints.ForEncrypted()))
	}

	if r.Compliant() {
		fmt.Fprintln(w, "Status:", color.GreenString("compliant"))
	} else {
		fmt.Fprintln(w, "Status:", color.RedString("not compliant"))
	}
}

func printCheck(w io.Writer, ok bool, format string, args ...any) {
	tag := tagOK
	if !ok {
		tag = tagFail
	}
	fmt.Fprintf(w, "  %s %s\n", tag, fmt.Sprintf(format, args...))
}
