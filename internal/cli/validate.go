package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadenzalab/cadenza/internal/registry"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Concepts string
}

// ValidationIssue is one reported problem.
type ValidationIssue struct {
	Sync    string `json:"sync,omitempty"`
	Message string `json:"message"`
}

// ValidationReport is the validate command's payload.
type ValidationReport struct {
	Valid  bool              `json:"valid"`
	Syncs  int               `json:"syncs"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand builds the validate command: compile the sync
// files and run registration-time validation against the declared
// concepts, without touching any database.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <syncs-dir>",
		Short: "Validate sync definitions",
		Long: `Compile the CUE sync files in a directory and validate them against
the declared concepts: trigger and then targets must be declared, and
every referenced variable must be bound.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Concepts, "concepts", "", "path to concept declarations YAML (required)")
	_ = cmd.MarkFlagRequired("concepts")

	return cmd
}

func runValidate(opts *ValidateOptions, syncsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	decls, err := LoadConcepts(opts.Concepts)
	if err != nil {
		_ = formatter.Fail(err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading concepts failed", err)
	}
	formatter.VerboseLog("Loaded %d concept declaration(s)", len(decls))

	syncs, err := LoadSyncs(syncsDir)
	if err != nil {
		_ = formatter.Fail(err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading syncs failed", err)
	}
	formatter.VerboseLog("Compiled %d sync(s) from %s", len(syncs), syncsDir)

	var issues []ValidationIssue
	reg := registry.New(decls)
	for _, s := range syncs {
		if err := reg.Register(s); err != nil {
			issues = append(issues, ValidationIssue{Sync: s.Name, Message: err.Error()})
		}
	}

	report := ValidationReport{Valid: len(issues) == 0, Syncs: len(syncs), Issues: issues}
	if len(issues) > 0 {
		return outputValidationFailure(formatter, report)
	}
	return outputValidationSuccess(formatter, report)
}

func outputValidationSuccess(f *OutputFormatter, report ValidationReport) error {
	if f.Format == "json" {
		return f.Success(report)
	}
	fmt.Fprintf(f.Writer, "✓ %d sync(s) valid\n", report.Syncs)
	return nil
}

func outputValidationFailure(f *OutputFormatter, report ValidationReport) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(Response{
			Status: "error",
			Data:   report,
			Error:  &Error{Message: report.Issues[0].Message},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, "✗ Validation failed")
		fmt.Fprintln(f.Writer)
		for _, issue := range report.Issues {
			fmt.Fprintf(f.Writer, "  %s\n", issue.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(report.Issues)))
}
