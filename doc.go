// Package pdfcomply converts documents into PDFs that satisfy a fixed
// compliance profile: every embedded image at an exact density, a single gray
// channel, a capped file size, a declared format version and no encryption.
//
// # Quick Start
//
// Create a converter, convert a document, and close when done:
//
//	conv, err := pdfcomply.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, pdfcomply.Input{
//	    Path:   "invoice.pdf",
//	    Verify: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Output, result.Size, result.Report.Compliant())
//
// Oversize output is not an error. It is reported in result.Findings with
// kind SizeExceeded alongside the smallest document that could be built.
//
// # Conversion Pipeline
//
// Every conversion follows the same stages:
//
//  1. Source normalization (HTML and Markdown are printed with headless
//     Chrome; images become a single page)
//  2. Rasterization of every page to gray at the profile density, once
//  3. Assembly of JPEG-encoded pages on canvases sized so each image lands at
//     exactly the profile density
//  4. A quality-search loop over descending JPEG quality levels until the
//     size fits
//
// Documents above the large-document threshold are assembled in groups and
// concatenated through an ordered chain of merge strategies. With Input.Split
// the pages are divided into Input.PartCount documents instead.
//
// # External Tools
//
// Ghostscript (gs) rasterizes, assembles, concatenates and compresses.
// pdfimages (poppler) and qpdf feed the auditor. Tools are located once per
// Converter, through WithToolPath, the GHOSTSCRIPT_PATH, PDFIMAGES_PATH and
// QPDF_PATH variables, PATH, and well-known install directories. A missing
// tool makes the operations that need it return ErrMissingDependency.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := pdfcomply.NewConverter(
//	    pdfcomply.WithProfile(pdfcomply.Profile{DPI: 300, MaxBytes: 3 << 20, Version: "1.4"}),
//	    pdfcomply.WithQualityLevels(80, 70, 60),
//	    pdfcomply.WithTimeout(5 * time.Minute),
//	    pdfcomply.WithLanguage("es"),
//	)
//
// # Auditing
//
// Audit checks size, version, resolution, color and encryption in that order.
// Checks whose tool is unavailable are assumed to pass and produce a warning,
// except resolution, which is an exact rule and fails instead:
//
//	report, err := conv.Audit(ctx, "output.pdf")
//	for _, e := range report.Errors {
//	    fmt.Println(e)
//	}
//
// # Pre-flight
//
// Compress re-encodes an existing document with a tier preset, and Merge
// joins compliant documents without re-rendering them. ExtractImages stores
// every page as a gray JPEG in a ZIP archive.
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool to bound concurrent jobs:
//
//	pool := pdfcomply.NewConverterPool(pdfcomply.ResolvePoolSize(0))
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// Each job works in its own scratch directory, removed on every return path.
package pdfcomply
