// mtlkit translates Japanese game-script JSON files with a local LLM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtl-tools/mtlkit/config"
	"github.com/mtl-tools/mtlkit/dictionary"
	"github.com/mtl-tools/mtlkit/excel"
	"github.com/mtl-tools/mtlkit/i18n"
	"github.com/mtl-tools/mtlkit/merge"
	"github.com/mtl-tools/mtlkit/script"
	"github.com/mtl-tools/mtlkit/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	cfgPath string
	apiKey  string
	verbose bool
)

// loadConfig reads the config file and applies the --api-key override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	return cfg, nil
}

// signalContext returns a context cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, finishing current file...")
		cancel()
	}()

	return ctx, cancel
}

// engineOptions wires the translation engine's callbacks to the CLI log.
func engineOptions() translate.Options {
	return translate.Options{
		Verbose: verbose,
		OnLog: func(format string, args ...any) {
			logInfo(format, args...)
		},
		OnError: func(format string, args ...any) {
			logError(format, args...)
		},
		OnProgress: func(file string, done, total int) {
			if total > 0 {
				logInfo("  %s %s %d/%d", filepath.Base(file), progressBar(done*100/total, 20), done, total)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mtlkit",
		Short: i18n.T("Translate game script JSON files with a local LLM"),
		Long: `mtlkit translates Japanese game-script JSON files to English using an
OpenAI-compatible chat completions endpoint (LM Studio, llama.cpp, vLLM).

Scripts are JSON files of dialogue blocks (speaker name, line text, and
optional choices). Untranslated fields are filled in, already translated
fields are left alone, so interrupted runs can simply be restarted.

Commands:
  translate   Translate all script files from the input folder
  export      Export translated files into a QC spreadsheet
  import      Import reviewer edits from the QC spreadsheet
  workflow    Translate then export in one run
  merge       Carry existing translations into updated input scripts
  check       Validate the configuration and ping the LLM endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.FileName, "Path to config file")
	root.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key override (wins over config and "+config.APIKeyEnv+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newTranslateCmd(),
		newExportCmd(),
		newImportCmd(),
		newWorkflowCmd(),
		newMergeCmd(),
		newCheckCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mtlkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// translate (batch translate the input folder)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate",
		Short: "Translate all script files from the input folder",
		Long: `Translate every JSON script file under the input folder, writing results
to the output folder at mirrored relative paths.

Only empty English fields are translated; a rerun continues where the
previous run stopped. Press Ctrl-C to stop after the current file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate()
		},
	}
}

func runTranslate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	if err := translate.TranslateFolder(ctx, cfg, engineOptions()); err != nil {
		return err
	}

	logSuccess("%s (%.1fs)", i18n.T("Translation complete"), time.Since(start).Seconds())
	return nil
}

// ---------------------------------------------------------------------------
// export (QC spreadsheet)
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export translated files into a QC spreadsheet",
		Long: `Export every translated file from the output folder into an Excel
workbook, one worksheet per file, for side-by-side review. Reviewers
write corrections into the QC column.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport()
		},
	}
}

func runExport() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sheets, err := excel.Export(cfg, logInfo)
	if err != nil {
		return err
	}

	logSuccess(i18n.N("Exported %d sheet", "Exported %d sheets", sheets)+" to %s", sheets, cfg.Excel.OutputFile)
	return nil
}

// ---------------------------------------------------------------------------
// import (reviewer edits back into the files)
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import reviewer edits from the QC spreadsheet",
		Long: `Read the QC workbook and write reviewed translations back into the
translated JSON files. A filled-in QC cell wins over the enText cell;
blank cells leave the file untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport()
		},
	}
}

func runImport() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !fileExists(cfg.Excel.OutputFile) {
		return fmt.Errorf(i18n.T("workbook %s not found, run export first"), cfg.Excel.OutputFile)
	}

	changed, err := excel.Import(cfg, logInfo)
	if err != nil {
		return err
	}

	logSuccess(i18n.N("Applied %d edit", "Applied %d edits", changed), changed)
	return nil
}

// ---------------------------------------------------------------------------
// workflow (translate + export)
// ---------------------------------------------------------------------------

func newWorkflowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflow",
		Short: "Translate then export in one run",
		Long: `Run the full pipeline: translate everything under the input folder,
then export the results into the QC spreadsheet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runTranslate(); err != nil {
				return err
			}
			return runExport()
		},
	}
}

// ---------------------------------------------------------------------------
// merge (carry translations into updated scripts)
// ---------------------------------------------------------------------------

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Carry existing translations into updated input scripts",
		Long: `After a game update replaces the input scripts, copy translations from
the output folder back into input files wherever the Japanese source is
unchanged. A following translate run then only pays for new lines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge()
		},
	}
}

func runMerge() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	total, err := merge.Folders(cfg, logInfo)
	if err != nil {
		return err
	}

	logSuccess("Carried %d translations into %s", total, cfg.Translation.InputFolder)
	return nil
}

// ---------------------------------------------------------------------------
// check (validate setup before a long run)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and ping the LLM endpoint",
		Long: `Verify the setup before starting a long translation run: the config
file parses, the dictionary loads, the input folder has script files,
the output folder is writable, and the LLM endpoint answers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
}

func runCheck() error {
	failed := 0

	cfg, err := loadConfig()
	if err != nil {
		logError("config: %v", err)
		return fmt.Errorf("setup check failed")
	}
	logSuccess("config: %s", cfgPath)

	if cfg.Translation.UseDictionary {
		d, err := dictionary.Load(cfg.Translation.DictionaryFile)
		if err != nil {
			logError("dictionary: %v", err)
			failed++
		} else {
			logSuccess("dictionary: %d entries", d.Len())
		}
	} else {
		logInfo("dictionary: disabled")
	}

	files, err := script.FindFiles(cfg.Translation.InputFolder)
	switch {
	case err != nil:
		logError("input folder: %v", err)
		failed++
	case len(files) == 0:
		logError("input folder: no JSON files in %s", cfg.Translation.InputFolder)
		failed++
	default:
		logSuccess("input folder: "+i18n.N("Found %d file", "Found %d files", len(files)), len(files))
	}

	if err := os.MkdirAll(cfg.Translation.OutputFolder, 0755); err != nil {
		logError("output folder: %v", err)
		failed++
	} else {
		logSuccess("output folder: %s", cfg.Translation.OutputFolder)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout())
	defer cancel()

	client := translate.NewClient(&cfg.LLM, 0, 0, verbose)
	reply, err := client.Ping(ctx, translate.ParamsFrom(&cfg.LLM))
	if err != nil {
		logError("endpoint: %v", err)
		failed++
	} else {
		logSuccess("endpoint: %s answered (%s)", cfg.LLM.Model, strings.TrimSpace(reply))
	}

	if failed > 0 {
		return fmt.Errorf("setup check failed (%d problems)", failed)
	}
	logSuccess("%s", i18n.T("Configuration OK"))
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// progressBar renders a fixed-width colored bar for a 0-100 percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := width * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	color := colorYellow
	switch {
	case percent >= 100:
		color = colorGreen
	case percent < 34:
		color = colorRed
	}

	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

// fileExists returns true if the file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
