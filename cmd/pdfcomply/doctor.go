package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-rod/rod/lib/launcher"

	pdfcomply "github.com/alnah/go-pdfcomply"
	"github.com/alnah/go-pdfcomply/internal/config"
	"github.com/alnah/go-pdfcomply/internal/ghostscript"
	"github.com/alnah/go-pdfcomply/internal/poppler"
	"github.com/alnah/go-pdfcomply/internal/process"
	"github.com/alnah/go-pdfcomply/internal/qpdf"
	"github.com/alnah/go-pdfcomply/internal/tools"
)

// ErrNotReady is returned by doctor when a required check failed.
var ErrNotReady = errors.New("environment not ready")

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// probeTimeout bounds every version query doctor runs.
const probeTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"`
	Tools    []toolInfo `json:"tools"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// toolInfo holds the detection result of one external tool.
type toolInfo struct {
	Name     string `json:"name"`
	Found    bool   `json:"found"`
	Required bool   `json:"required"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds workspace and backend checks.
type systemInfo struct {
	Rasterizer      string `json:"rasterizer"`
	WorkDir         string `json:"work_dir"`
	WorkDirWritable bool   `json:"work_dir_writable"`
	Language        string `json:"language"`
}

// doctor runs the checks. Every probe is a field so tests can replace it.
type doctor struct {
	getenv     func(string) string
	stat       func(string) (os.FileInfo, error)
	resolve    func(overrides map[tools.Tool]string) tools.Set
	version    func(ctx context.Context, t tools.Tool, path string) (string, error)
	lookChrome func() (string, bool)
	runner     process.Runner
}

func newDoctor(env *Environment) *doctor {
	return &doctor{
		getenv: env.Getenv,
		stat:   os.Stat,
		resolve: func(overrides map[tools.Tool]string) tools.Set {
			return tools.NewLocator(overrides).Resolve()
		},
		version:    toolVersion,
		lookChrome: launcher.LookPath,
		runner:     process.ExecRunner{},
	}
}

// toolVersion asks a tool for its version through its client.
func toolVersion(ctx context.Context, t tools.Tool, path string) (string, error) {
	switch t {
	case tools.Ghostscript:
		return ghostscript.New(path, nil, ghostscript.Timeouts{Probe: probeTimeout}).Version(ctx)
	case tools.PDFImages:
		return poppler.New(path, nil, 0).Version(ctx)
	case tools.QPDF:
		return qpdf.New(path, nil).WithProbeTimeout(probeTimeout).Version(ctx)
	}
	return "", fmt.Errorf("unknown tool %q", t)
}

// runDoctorCmd executes the doctor command.
// Returns ErrNotReady when a required check failed; warnings alone succeed.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) error {
	f, err := parseDoctorFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	s, err := loadSettings(&f.common, nil, env)
	if err != nil {
		return err
	}

	result := newDoctor(env).run(ctx, s.cfg)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ErrNotReady
	}
	return nil
}

// run performs all diagnostic checks.
func (d *doctor) run(ctx context.Context, cfg *config.Config) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  d.getenv("ROD_NO_SANDBOX"),
			BrowserBin: d.getenv("ROD_BROWSER_BIN"),
		},
	}

	d.checkTools(ctx, result, cfg)
	d.checkChrome(ctx, result)
	d.checkEnvironment(result)
	d.checkSystem(result, cfg)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkTools locates every external tool and queries its version.
// Ghostscript is required; the others narrow what audits can verify.
func (d *doctor) checkTools(ctx context.Context, result *doctorResult, cfg *config.Config) {
	overrides := tools.OverridesFromEnv(d.getenv)
	for t, p := range map[tools.Tool]string{
		tools.Ghostscript: cfg.Tools.Ghostscript,
		tools.PDFImages:   cfg.Tools.PDFImages,
		tools.QPDF:        cfg.Tools.QPDF,
	} {
		if p != "" {
			overrides[t] = p
		}
	}
	set := d.resolve(overrides)

	for _, t := range tools.All {
		info := toolInfo{Name: string(t), Required: t == tools.Ghostscript}
		path, err := set.Path(t)
		if err != nil {
			msg := fmt.Sprintf("%s not found. Install it or set %s", t, envPrefix+t.EnvVar())
			if info.Required {
				result.Errors = append(result.Errors, msg)
			} else {
				result.Warnings = append(result.Warnings, msg+missingToolImpact(t))
			}
			result.Tools = append(result.Tools, info)
			continue
		}

		info.Found = true
		info.Path = path
		if v, err := d.version(ctx, t, path); err == nil {
			info.Version = v
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get %s version: %v", t, err))
		}
		result.Tools = append(result.Tools, info)
	}
}

func missingToolImpact(t tools.Tool) string {
	switch t {
	case tools.PDFImages:
		return " (audits cannot verify image resolution)"
	case tools.QPDF:
		return " (version checks fall back to the file header)"
	}
	return ""
}

// checkChrome detects Chrome/Chromium, needed for HTML and Markdown sources.
func (d *doctor) checkChrome(ctx context.Context, result *doctorResult) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = d.lookChrome()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found. HTML and Markdown inputs need it; install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := d.stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"

	res, err := d.runner.Run(ctx, process.Command{
		Name:    chromePath,
		Args:    []string{"--version"},
		Timeout: probeTimeout,
	})
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(res.Stdout))
}

// checkEnvironment detects container and CI environments.
func (d *doctor) checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = d.isContainer()

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if d.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chrome.Found && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func (d *doctor) isContainer() (bool, string) {
	if d.getenv(envPrefix+"CONTAINER") == "1" {
		return true, envPrefix + "CONTAINER=1"
	}
	if _, err := d.stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := d.getenv("container"); v != "" {
		return true, "container=" + v
	}
	if d.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the workspace parent is writable.
func (d *doctor) checkSystem(result *doctorResult, cfg *config.Config) {
	result.System.Rasterizer = cfg.Conversion.Rasterizer
	if result.System.Rasterizer == "" {
		result.System.Rasterizer = pdfcomply.RasterizerGhostscript
	}
	result.System.Language = cfg.Conversion.Language
	if result.System.Language == "" {
		result.System.Language = "en"
	}

	dir := cfg.Conversion.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	result.System.WorkDir = dir

	probe, err := os.CreateTemp(dir, "pdfcomply-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Work directory not writable: %s", dir))
		return
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	result.System.WorkDirWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "pdfcomply doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Tools")
	for _, t := range r.Tools {
		switch {
		case t.Found && t.Version != "":
			fmt.Fprintf(w, "  %s %s %s (%s)\n", tagOK, t.Name, t.Version, t.Path)
		case t.Found:
			fmt.Fprintf(w, "  %s %s (%s)\n", tagOK, t.Name, t.Path)
		case t.Required:
			fmt.Fprintf(w, "  %s %s not found\n", tagError, t.Name)
		default:
			fmt.Fprintf(w, "  %s %s not found\n", tagWarn, t.Name)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  %s Found at %s\n", tagOK, r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  %s Version: %s\n", tagOK, r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintf(w, "  %s Sandbox: enabled\n", tagOK)
		} else {
			fmt.Fprintf(w, "  %s Sandbox: disabled (ROD_NO_SANDBOX=1)\n", tagOK)
		}
	} else {
		fmt.Fprintf(w, "  %s Not found (HTML and Markdown inputs unavailable)\n", tagWarn)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  %s Platform: %s/%s\n", tagOK, r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  %s Container: detected (%s)\n", tagOK, r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintf(w, "  %s CI: detected\n", tagOK)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	fmt.Fprintf(w, "  %s Rasterizer: %s\n", tagOK, r.System.Rasterizer)
	fmt.Fprintf(w, "  %s Language: %s\n", tagOK, r.System.Language)
	if r.System.WorkDirWritable {
		fmt.Fprintf(w, "  %s Work directory: %s (writable)\n", tagOK, filepath.Clean(r.System.WorkDir))
	} else {
		fmt.Fprintf(w, "  %s Work directory: %s (not writable)\n", tagError, filepath.Clean(r.System.WorkDir))
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s %s\n", tagWarn, warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  %s %s\n", tagError, err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status:", color.GreenString("Ready to convert"))
	case statusWarnings:
		fmt.Fprintln(w, "Status:", color.YellowString("Ready with warnings"))
	case statusErrors:
		fmt.Fprintln(w, "Status:", color.RedString("Not ready (see errors above)"))
	}
}
