package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpggio/nexus/internal/documents"
	"github.com/rpggio/nexus/internal/domain/ingest"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/watch"
)

func ingestCmd() *cobra.Command {
	var (
		jsonOutput   bool
		emailSubject string
	)

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Ingest every document in a directory (default: ingest.dir)",
		Long: `Extract projects from each text or markdown file in the directory and merge
them into the portfolio. A document that fails extraction is reported and
skipped; the rest of the batch is still saved.

With --email, the email body is read from stdin and ingested as one document.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(os.Stderr, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var report *ingest.Report
			if cmd.Flags().Changed("email") {
				body, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read email body: %w", err)
				}
				report, err = a.ingest.RunEmail(cmd.Context(), emailSubject, string(body))
				if err != nil {
					return err
				}
			} else {
				dir := a.cfg.Ingest.Dir
				if len(args) == 1 {
					dir = args[0]
				}
				report, err = a.ingest.Run(cmd.Context(), documents.NewDir(dir))
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&emailSubject, "email", "", "Ingest an email read from stdin with this subject")
	return cmd
}

func captureCmd() *cobra.Command {
	var (
		method     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "capture <text>",
		Short: "Apply a quick note to one project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(os.Stderr, true)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.capture.Capture(cmd.Context(), strings.Join(args, " "), project.CaptureMethod(method))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), result)
			}
			verb := "updated"
			if result.Created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verb, strings.Join(result.ProjectsUpdated, ", "))
			for _, c := range result.Conflicts {
				fmt.Fprintf(cmd.OutOrStdout(), "conflict %s: %s -> %s. %s\n", c.ConflictType, c.PreviousValue, c.NewValue, c.Analysis)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", string(project.MethodQuickCapture), "Capture method: quick-capture, voice or email")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func scoreCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print the portfolio data quality score (0-100)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(os.Stderr, false)
			if err != nil {
				return err
			}
			defer a.Close()

			score := a.quality.Score
			if refresh {
				score = a.quality.Refresh
			}
			s, err := score(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Store the recomputed score in the document")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Ingest files as they appear or change in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(os.Stderr, true)
			if err != nil {
				return err
			}
			defer a.Close()

			dir := a.cfg.Ingest.Dir
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := runWatcher(ctx, a, dir); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

// runWatcher ingests just the changed files of each debounced batch.
func runWatcher(ctx context.Context, a *app, dir string) error {
	w := watch.New(dir, a.cfg.Watch.Debounce, func(ctx context.Context, names []string) error {
		report, err := a.ingest.Run(ctx, documents.NewDir(dir).Only(names...))
		if err != nil {
			return err
		}
		a.logger.Info("inbox batch ingested",
			"files", len(names),
			"processed", report.Processed,
			"created", report.Created,
			"updated", report.Updated,
			"conflicts", len(report.Conflicts),
			"failures", len(report.Failures),
		)
		return nil
	}, a.logger)
	return w.Run(ctx)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r *ingest.Report) {
	fmt.Fprintf(w, "processed %d document(s): %d created, %d updated, %d conflict(s), quality %d\n",
		r.Processed, r.Created, r.Updated, len(r.Conflicts), r.QualityScore)
	for _, p := range r.Projects {
		fmt.Fprintf(w, "  %-30s priority %2d  urgency %2d  %s\n", p.Name, p.Priority, p.Urgency, p.Sentiment)
	}
	for _, c := range r.Conflicts {
		fmt.Fprintf(w, "  conflict %s on %s: %s -> %s. %s\n", c.ConflictType, c.ProjectName, c.PreviousValue, c.NewValue, c.Analysis)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  failed %s: %s\n", f.Document, f.Message)
	}
}
