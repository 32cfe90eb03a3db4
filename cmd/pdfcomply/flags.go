package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config   string
	quiet    bool
	verbose  bool
	logLevel string
	lang     string
}

// profileFlags override the compliance profile of the loaded config.
type profileFlags struct {
	dpi        int
	maxSize    string // humanized, e.g. "3MiB"
	pdfVersion string
}

// maxBytes parses --max-size. Zero means unset.
func (f *profileFlags) maxBytes() (int64, error) {
	if f.maxSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(f.maxSize)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: --max-size %q", ErrInvalidFlag, f.maxSize)
	}
	return int64(n), nil
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common     commonFlags
	profile    profileFlags
	output     string
	workers    int
	timeout    string
	split      bool
	parts      int
	verify     bool
	rasterizer string
}

// auditFlags holds flags for the audit command.
type auditFlags struct {
	common  commonFlags
	profile profileFlags
	json    bool
}

// compressFlags holds flags for the compress command.
type compressFlags struct {
	common  commonFlags
	profile profileFlags
	tier    string
	output  string
}

// mergeFlags holds flags for the merge command.
type mergeFlags struct {
	common  commonFlags
	profile profileFlags
	output  string
}

// extractFlags holds flags for the extract command.
type extractFlags struct {
	common  commonFlags
	profile profileFlags
	output  string
	quality int
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.StringVar(&f.lang, "lang", "", "diagnostics language: en, es")
}

// addProfileFlags adds compliance profile flags to a FlagSet.
func addProfileFlags(fs *flag.FlagSet, f *profileFlags) {
	fs.IntVar(&f.dpi, "dpi", 0, "required image density (default 300)")
	fs.StringVar(&f.maxSize, "max-size", "", "size ceiling, e.g. 3MiB (default 3MiB)")
	fs.StringVar(&f.pdfVersion, "pdf-version", "", "declared PDF version (default 1.4)")
}

// newFlagSet builds a FlagSet that prints its usage to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parse runs fs and marks parse failures as usage errors. flag.ErrHelp is
// returned unwrapped.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	return fs.Args(), nil
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, w io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newFlagSet("convert", w, printConvertUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel jobs (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-tool render timeout (e.g., 30s, 5m)")
	fs.BoolVar(&f.split, "split", false, "split into several compliant documents")
	fs.IntVar(&f.parts, "parts", 2, "number of documents with --split (2-8)")
	fs.BoolVar(&f.verify, "verify", false, "audit every produced document")
	fs.StringVar(&f.rasterizer, "rasterizer", "", "rasterizer backend: ghostscript, mupdf")
	addCommonFlags(fs, &f.common)
	addProfileFlags(fs, &f.profile)

	rest, err := parse(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, rest, nil
}

// renderTimeout parses --timeout. Zero means unset.
func (f *convertFlags) renderTimeout() (time.Duration, error) {
	if f.timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: --timeout %q", ErrInvalidFlag, f.timeout)
	}
	return d, nil
}

// parseAuditFlags parses audit command flags and returns positional args.
func parseAuditFlags(args []string, w io.Writer) (*auditFlags, []string, error) {
	f := &auditFlags{}
	fs := newFlagSet("audit", w, printAuditUsage)
	fs.BoolVar(&f.json, "json", false, "print the report as JSON")
	addCommonFlags(fs, &f.common)
	addProfileFlags(fs, &f.profile)

	rest, err := parse(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, rest, nil
}

// parseCompressFlags parses compress command flags and returns positional args.
func parseCompressFlags(args []string, w io.Writer) (*compressFlags, []string, error) {
	f := &compressFlags{}
	fs := newFlagSet("compress", w, printCompressUsage)
	fs.StringVar(&f.tier, "tier", "printer", "compression tier: screen, ebook, printer, prepress")
	fs.StringVarP(&f.output, "output", "o", "", "output file")
	addCommonFlags(fs, &f.common)
	addProfileFlags(fs, &f.profile)

	rest, err := parse(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, rest, nil
}

// parseMergeFlags parses merge command flags and returns positional args.
func parseMergeFlags(args []string, w io.Writer) (*mergeFlags, []string, error) {
	f := &mergeFlags{}
	fs := newFlagSet("merge", w, printMergeUsage)
	fs.StringVarP(&f.output, "output", "o", "", "output file")
	addCommonFlags(fs, &f.common)
	addProfileFlags(fs, &f.profile)

	rest, err := parse(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, rest, nil
}

// parseExtractFlags parses extract command flags and returns positional args.
func parseExtractFlags(args []string, w io.Writer) (*extractFlags, []string, error) {
	f := &extractFlags{}
	fs := newFlagSet("extract", w, printExtractUsage)
	fs.StringVarP(&f.output, "output", "o", "", "output archive")
	fs.IntVar(&f.quality, "quality", 0, "JPEG quality of extracted pages (1-100)")
	addCommonFlags(fs, &f.common)
	addProfileFlags(fs, &f.profile)

	rest, err := parse(fs, args)
	if err != nil {
		return nil, nil, err
	}
	if f.quality < 0 || f.quality > 100 {
		return nil, nil, fmt.Errorf("%w: --quality %d (must be 1-100)", ErrInvalidFlag, f.quality)
	}
	return f, rest, nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, w io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor", w, printDoctorUsage)
	fs.BoolVar(&f.json, "json", false, "print the diagnosis as JSON")
	addCommonFlags(fs, &f.common)

	rest, err := parse(fs, args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: doctor takes no arguments, got %d", ErrArgCount, len(rest))
	}
	return f, nil
}
