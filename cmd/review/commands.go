package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ericksa/contractreview/internal/engine"
	"github.com/ericksa/contractreview/internal/report"
	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>",
		Short: "List risky clauses found in a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readDocument(args[0])
			if err != nil {
				return err
			}
			scan := a.engine.ScanRisks(text)
			return a.emit(cmd.OutOrStdout(), result{
				value:    scan,
				console:  func(w io.Writer) error { return printScan(w, scan) },
				markdown: func() ([]byte, error) { return scanMarkdown(args[0], scan), nil },
			})
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Check a contract for standard elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readDocument(args[0])
			if err != nil {
				return err
			}
			res := a.engine.CheckCompleteness(text)
			return a.emit(cmd.OutOrStdout(), result{
				value:    res,
				console:  func(w io.Writer) error { return printCompleteness(w, res) },
				markdown: func() ([]byte, error) { return completenessMarkdown(args[0], res), nil },
			})
		},
	}
}

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect language, jurisdiction and contract type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readDocument(args[0])
			if err != nil {
				return err
			}
			ctx := a.engine.DetectContext(text)
			return a.emit(cmd.OutOrStdout(), result{
				value:    ctx,
				console:  func(w io.Writer) error { return printContext(w, ctx) },
				markdown: func() ([]byte, error) { return contextMarkdown(args[0], ctx), nil },
			})
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var title, format string
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Write a full review report",
		Long: `report runs every scanner and renders the result as one document.

On the console the Markdown report is formatted for the terminal. With
--format html the HTML page is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readDocument(args[0])
			if err != nil {
				return err
			}
			review := report.Build(a.engine, title, text)
			rendered, err := report.Render(review, format)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if strings.HasSuffix(a.output, ".html") {
				html, err := report.HTML(review)
				if err != nil {
					return err
				}
				return a.writeFile(out, a.output, html)
			}
			return a.emit(out, result{
				value: review,
				console: func(w io.Writer) error {
					if rendered.Format == report.FormatHTML {
						_, err := w.Write(rendered.Body)
						return err
					}
					return a.renderMarkdown(w, rendered.Body)
				},
				markdown: func() ([]byte, error) { return report.Markdown(review) },
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "report title")
	cmd.Flags().StringVar(&format, "format", report.FormatMarkdown, "markdown or html")
	return cmd
}

func newPatternsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns [id]",
		Short: "List risk patterns, or show one in full",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				patterns := a.catalog.ListPatterns()
				return a.emit(out, result{
					value: map[string]any{"patterns": patterns},
					console: func(w io.Writer) error {
						fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Risk patterns (%d)", len(patterns))))
						for _, p := range patterns {
							fmt.Fprintf(w, "  %-6s  %-26s  %s / %s\n", severity(p.Severity), p.ID, p.Name, p.NameZH)
						}
						return nil
					},
				})
			}

			p, ok := a.catalog.PatternDetails(args[0])
			if !ok {
				return fmt.Errorf("unknown pattern: %s (available: %s)", args[0], strings.Join(a.kb.PatternIDs(), ", "))
			}
			return a.emit(out, result{
				value: p,
				console: func(w io.Writer) error {
					fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(p.Name+" / "+p.NameZH), severity(p.Severity))
					fmt.Fprintf(w, "%s %s\n", labelStyle.Render("ID:"), p.ID)
					fmt.Fprintf(w, "\n%s\n  %s\n  %s\n", labelStyle.Render("Description"), p.Description, p.DescriptionZH)
					fmt.Fprintf(w, "\n%s\n  %s\n  %s\n", labelStyle.Render("Recommendation"), p.Recommendation, p.RecommendationZH)
					fmt.Fprintf(w, "\n%s %s\n", labelStyle.Render("Keywords (en):"), strings.Join(p.KeywordsEN, ", "))
					fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Keywords (zh):"), strings.Join(p.KeywordsZH, "、"))
					return nil
				},
			})
		},
	}
}

func newJurisdictionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jurisdiction [code]",
		Short: "List jurisdictions, or show one profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				js := a.catalog.ListJurisdictions()
				return a.emit(out, result{
					value: map[string]any{"jurisdictions": js},
					console: func(w io.Writer) error {
						fmt.Fprintln(w, titleStyle.Render("Jurisdictions"))
						for _, j := range js {
							fmt.Fprintf(w, "  %-4s %s / %s\n", j.Code, j.Name, j.NameZH)
						}
						return nil
					},
				})
			}

			j, ok := a.catalog.JurisdictionProfile(args[0])
			if !ok {
				return fmt.Errorf("unknown jurisdiction: %s (available: %s)", args[0], strings.Join(a.kb.JurisdictionCodes(), ", "))
			}
			return a.emit(out, result{
				value: j,
				console: func(w io.Writer) error {
					fmt.Fprintf(w, "%s %s\n", titleStyle.Render(j.Name+" / "+j.NameZH), dimStyle.Render("("+j.Code+")"))
					fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Key laws"))
					for _, law := range j.KeyLaws {
						fmt.Fprintf(w, "  - %s: %s\n", law.Name, law.Description)
					}
					fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Risk focus"))
					for _, f := range j.RiskFocus {
						fmt.Fprintf(w, "  - %s\n", f)
					}
					if j.Notes != "" {
						fmt.Fprintf(w, "\n%s %s\n", labelStyle.Render("Notes:"), j.Notes)
					}
					return nil
				},
			})
		},
	}
}

type catalogInfo struct {
	Version       string         `json:"version"`
	Patterns      int            `json:"patterns"`
	BySeverity    map[string]int `json:"by_severity"`
	Jurisdictions []string       `json:"jurisdictions"`
	Checklist     int            `json:"checklist_items"`
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show knowledge base statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts := a.kb.SeverityCounts()
			info := catalogInfo{
				Version:       version,
				Patterns:      len(a.kb.Patterns()),
				BySeverity:    make(map[string]int, len(counts)),
				Jurisdictions: a.kb.JurisdictionCodes(),
				Checklist:     len(a.kb.Checklist()),
			}
			for s, n := range counts {
				info.BySeverity[string(s)] = n
			}

			return a.emit(cmd.OutOrStdout(), result{
				value: info,
				console: func(w io.Writer) error {
					fmt.Fprintln(w, titleStyle.Render("Contract review knowledge base"))
					fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Version:"), info.Version)
					fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Risk patterns:"), info.Patterns)
					for _, s := range a.kb.SortedSeverities() {
						fmt.Fprintf(w, "  %-6s %d\n", severity(s), counts[s])
					}
					fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Jurisdictions:"), strings.Join(info.Jurisdictions, ", "))
					fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Checklist items:"), info.Checklist)
					return nil
				},
			})
		},
	}
}

func printScan(w io.Writer, scan engine.ScanResult) error {
	s := scan.Summary
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(fmt.Sprintf("%d risk(s) found", s.Total)),
		dimStyle.Render(fmt.Sprintf("high %d, medium %d, low %d, language %s", s.High, s.Medium, s.Low, s.DetectedLanguage)))
	for _, r := range scan.Risks {
		fmt.Fprintf(w, "\n%s %s %s\n", severity(r.Severity), labelStyle.Render(r.Name), dimStyle.Render("["+r.ID+"]"))
		fmt.Fprintf(w, "  %s\n", r.Description)
		fmt.Fprintf(w, "  Keywords: %s\n", strings.Join(r.MatchedKeywords, ", "))
		if r.Context != "" {
			fmt.Fprintf(w, "  Context: %q\n", r.Context)
		}
		fmt.Fprintf(w, "  Recommendation: %s\n", r.Recommendation)
	}
	return nil
}

func printCompleteness(w io.Writer, res engine.CompletenessResult) error {
	fmt.Fprintln(w, titleStyle.Render("Completeness "+res.Score))
	for _, item := range res.Checklist {
		mark := missStyle.Render("✗")
		if item.Found {
			mark = okStyle.Render("✓")
		}
		fmt.Fprintf(w, "  %s %s", mark, item.Element)
		if item.Evidence != "" {
			fmt.Fprintf(w, "  %s", dimStyle.Render(item.Evidence))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func printContext(w io.Writer, ctx engine.ContextResult) error {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Language:"), ctx.DetectedLanguage)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Jurisdiction:"), ctx.LikelyJurisdiction)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Contract type:"), ctx.ContractType)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Words:"), ctx.WordCount)
	return nil
}

func scanMarkdown(source string, scan engine.ScanResult) []byte {
	var b bytes.Buffer
	s := scan.Summary
	fmt.Fprintf(&b, "# Risk scan: %s\n\n", source)
	fmt.Fprintf(&b, "%d risk(s): %d high, %d medium, %d low. Language: %s.\n", s.Total, s.High, s.Medium, s.Low, s.DetectedLanguage)
	for _, r := range scan.Risks {
		fmt.Fprintf(&b, "\n## %s (%s)\n\n%s\n\n", r.Name, r.Severity, r.Description)
		fmt.Fprintf(&b, "- **Matched keywords:** %s\n", strings.Join(r.MatchedKeywords, ", "))
		if r.Context != "" {
			fmt.Fprintf(&b, "- **Context:** %s\n", r.Context)
		}
		fmt.Fprintf(&b, "- **Recommendation:** %s\n", r.Recommendation)
	}
	return b.Bytes()
}

func completenessMarkdown(source string, res engine.CompletenessResult) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Completeness: %s\n\nScore: %s\n\n| Element | Found |\n| --- | --- |\n", source, res.Score)
	for _, item := range res.Checklist {
		found := "no"
		if item.Found {
			found = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", strings.ReplaceAll(item.Element, "|", `\|`), found)
	}
	return b.Bytes()
}

func contextMarkdown(source string, ctx engine.ContextResult) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Context: %s\n\n", source)
	fmt.Fprintf(&b, "- **Language:** %s\n- **Jurisdiction:** %s\n- **Contract type:** %s\n- **Words:** %d\n",
		ctx.DetectedLanguage, ctx.LikelyJurisdiction, ctx.ContractType, ctx.WordCount)
	return b.Bytes()
}
