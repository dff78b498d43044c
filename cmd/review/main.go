// Command review runs the contract review engine against local files.
//
//	review scan contract.pdf
//	review report contract.txt --output review.md
//	review patterns unlimited_liability --output json
package main

import (
	"fmt"
	"os"

	"github.com/ericksa/contractreview/internal/config"
	"github.com/ericksa/contractreview/internal/engine"
	"github.com/ericksa/contractreview/internal/extract"
	"github.com/ericksa/contractreview/internal/knowledge"
	"github.com/ericksa/contractreview/internal/logging"
	"github.com/ericksa/contractreview/internal/workers"
	"github.com/spf13/cobra"
)

var version = "dev"

type app struct {
	configPath string
	output     string
	style      string
	verbose    bool

	logger  *logging.AppLogger
	kb      *knowledge.Base
	engine  *engine.Engine
	catalog *workers.KnowledgeWorker
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "review",
		Short: "Deterministic contract review over a bilingual knowledge base",
		Long: `review scans English and Chinese contracts for risky clauses, checks them
against a checklist of standard elements and guesses their jurisdiction and type.

Files may be PDF (text layer only) or plain text in UTF-8, UTF-16 or GBK.

Output:
  --output console    styled terminal output (default)
  --output json       JSON on stdout
  --output FILE.json  JSON written to FILE.json
  --output FILE.md    Markdown written to FILE.md`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "console", "console, json, or a .json/.md file path")
	root.PersistentFlags().StringVar(&a.style, "style", "dark", "glamour style for console reports (dark, light, notty)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newScanCmd(a),
		newCheckCmd(a),
		newDetectCmd(a),
		newReportCmd(a),
		newPatternsCmd(a),
		newJurisdictionCmd(a),
		newInfoCmd(a),
	)
	return root
}

// setup loads the configuration and knowledge base unless a knowledge base
// was supplied up front.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.kb == nil {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		level := cfg.Log.Level
		if a.verbose {
			level = "debug"
		}
		logger, err := logging.New(logging.Options{Level: level, Format: cfg.Log.Format, Prefix: "review", Writer: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		a.logger = logger
		logging.SetDefault(logger)

		kb, err := knowledge.Load(cfg.Knowledge.Dir)
		if err != nil {
			return fmt.Errorf("load knowledge base: %w", err)
		}
		a.kb = kb
	}
	if a.logger == nil {
		a.logger = logging.GetDefault()
	}
	a.engine = engine.New(a.kb)
	a.catalog = workers.NewKnowledgeWorker(a.kb)
	return nil
}

// readDocument extracts the text of path.
func (a *app) readDocument(path string) (string, error) {
	doc, err := extract.File(path)
	if err != nil {
		return "", err
	}
	a.logger.Debug("Extracted document", "path", doc.Path, "kind", doc.Kind, "encoding", doc.Encoding, "pages", doc.Pages)
	return doc.Text, nil
}
