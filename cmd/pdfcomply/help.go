package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfcomply <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert documents to the compliance profile")
	fmt.Fprintln(w, "  audit      Check documents against the compliance profile")
	fmt.Fprintln(w, "  compress   Re-encode a document at a compression tier")
	fmt.Fprintln(w, "  merge      Join compliant documents")
	fmt.Fprintln(w, "  extract    Store every page as a JPEG in a ZIP archive")
	fmt.Fprintln(w, "  doctor     Check external tools and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pdfcomply help <command>' for details on a specific command.")
	fmt.Fprintln(w, "'pdfcomply file.pdf' is shorthand for 'pdfcomply convert file.pdf'.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed progress")
	fmt.Fprintln(w, "      --log-level <s>       trace, debug, info, warn, error")
	fmt.Fprintln(w, "      --lang <s>            Diagnostics language: en, es")
}

func printProfileUsage(w io.Writer) {
	fmt.Fprintln(w, "Profile:")
	fmt.Fprintln(w, "      --dpi <n>             Required image density (default 300)")
	fmt.Fprintln(w, "      --max-size <s>        Size ceiling, e.g. 3MiB, 5MB (default 3MiB)")
	fmt.Fprintln(w, "      --pdf-version <s>     Declared PDF version (default 1.4)")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfcomply convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert PDF, HTML, Markdown and image files to grayscale documents at the")
	fmt.Fprintln(w, "profile density, searching JPEG quality until the size ceiling is met.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Files or directories (directories are walked recursively)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Conversion:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel jobs (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout per tool run (e.g., 30s, 5m)")
	fmt.Fprintln(w, "      --split               Split into several documents")
	fmt.Fprintln(w, "      --parts <n>           Number of documents with --split (2-8)")
	fmt.Fprintln(w, "      --verify              Audit every produced document")
	fmt.Fprintln(w, "      --rasterizer <s>      ghostscript or mupdf")
	fmt.Fprintln(w)
	printProfileUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printAuditUsage prints usage for the audit command.
func printAuditUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfcomply audit <file>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check size, version, image resolution, color and encryption.")
	fmt.Fprintln(w, "Exits with status 5 when any document is not compliant.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print the report as JSON")
	fmt.Fprintln(w)
	printProfileUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printCompressUsage prints usage for the compress command.
func printCompressUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfcomply compress <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Re-encode embedded images without re-rendering pages.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --tier <s>            screen, ebook, printer, prepress (default printer)")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default <name>_<tier>.pdf)")
	fmt.Fprintln(w)
	printProfileUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printMergeUsage prints usage for the merge command.
func printMergeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfcomply merge <file> <file>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Join 2 to 50 compliant documents page by page.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default <first>_merged.pdf)")
	fmt.Fprintln(w)
	printProfileUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printExtractUsage prints usage for the extract command.
func printExtractUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfcomply extract <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render every page at the profile density into a ZIP of gray JPEGs.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <path>       Output archive (default <name>_images.zip)")
	fmt.Fprintln(w, "      --quality <n>         JPEG quality (1-100, default 25)")
	fmt.Fprintln(w)
	printProfileUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfcomply doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check external tools, Chrome, and the work directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print the diagnosis as JSON")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "audit":
		printAuditUsage(env.Stdout)
	case "compress":
		printCompressUsage(env.Stdout)
	case "merge":
		printMergeUsage(env.Stdout)
	case "extract":
		printExtractUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pdfcomply version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pdfcomply help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return nil
}
