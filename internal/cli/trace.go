package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cadenzalab/cadenza/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Flow     string
	Concept  string // optional filter
}

// TraceEvent is one record in the flow timeline.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	ID      string `json:"id"`
	Concept string `json:"concept"`
	Action  string `json:"action"`
	Variant string `json:"variant"`
}

// TraceEdge is one causal link in the flow's provenance.
type TraceEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Sync string `json:"sync"`
}

// TraceStats summarizes a traced flow.
type TraceStats struct {
	Records  int `json:"records"`
	Edges    int `json:"edges"`
	Errors   int `json:"errors"`
	FirstSeq int64 `json:"first_seq"`
	LastSeq  int64 `json:"last_seq"`
}

// TraceResult is the trace command's payload.
type TraceResult struct {
	Flow       string       `json:"flow"`
	Timeline   []TraceEvent `json:"timeline"`
	Provenance []TraceEdge  `json:"provenance"`
	Stats      TraceStats   `json:"stats"`
}

// NewTraceCommand builds the trace command: dump a flow's records and
// provenance edges from the action log.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Dump a flow from the action log",
		Long: `Read one flow's records in logical order together with the causal
edges between them.

Examples:
  cadenza trace --db ./cadenza.db --flow 0190a8f2-...
  cadenza trace --db ./cadenza.db --flow 0190a8f2-... --concept Notification
  cadenza trace --db ./cadenza.db --flow 0190a8f2-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Flow, "flow", "", "flow id to trace (required)")
	_ = cmd.MarkFlagRequired("flow")
	cmd.Flags().StringVar(&opts.Concept, "concept", "", "only show records for this concept")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Fail(err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening database failed", err)
	}
	defer st.Close()

	records, err := st.ReadFlow(ctx, opts.Flow)
	if err != nil {
		_ = formatter.Fail(err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading flow failed", err)
	}
	if len(records) == 0 {
		_ = formatter.Fail(fmt.Sprintf("flow %q not found", opts.Flow), nil)
		return NewExitError(ExitFailure, "flow not found")
	}

	result := TraceResult{Flow: opts.Flow}
	inFlow := map[string]bool{}
	for _, r := range records {
		inFlow[r.ID] = true
		if opts.Concept != "" && r.Concept != opts.Concept {
			continue
		}
		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:     r.Seq,
			ID:      r.ID,
			Concept: r.Concept,
			Action:  r.Action,
			Variant: r.Variant,
		})
		if r.Variant == "error" {
			result.Stats.Errors++
		}
	}

	edges, err := st.AllEdges(ctx)
	if err != nil {
		_ = formatter.Fail(err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading edges failed", err)
	}
	for _, e := range edges {
		if !inFlow[e.From] || !inFlow[e.To] {
			continue
		}
		result.Provenance = append(result.Provenance, TraceEdge{From: e.From, To: e.To, Sync: e.Sync})
	}
	sort.Slice(result.Provenance, func(i, j int) bool {
		if result.Provenance[i].From != result.Provenance[j].From {
			return result.Provenance[i].From < result.Provenance[j].From
		}
		return result.Provenance[i].To < result.Provenance[j].To
	})

	result.Stats.Records = len(result.Timeline)
	result.Stats.Edges = len(result.Provenance)
	if len(result.Timeline) > 0 {
		result.Stats.FirstSeq = result.Timeline[0].Seq
		result.Stats.LastSeq = result.Timeline[len(result.Timeline)-1].Seq
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result)
}

func outputTraceText(f *OutputFormatter, result TraceResult) error {
	fmt.Fprintf(f.Writer, "flow %s\n", result.Flow)
	labels := map[string]string{}
	for _, ev := range result.Timeline {
		fmt.Fprintf(f.Writer, "  %4d  %s.%s  %s\n", ev.Seq, ev.Concept, ev.Action, ev.Variant)
		labels[ev.ID] = ev.Concept + "." + ev.Action
	}
	if len(result.Provenance) > 0 {
		fmt.Fprintln(f.Writer, "edges")
		for _, e := range result.Provenance {
			fmt.Fprintf(f.Writer, "  %s -> %s [%s]\n", labels[e.From], labels[e.To], e.Sync)
		}
	}
	fmt.Fprintf(f.Writer, "%d record(s), %d edge(s), %d error(s)\n",
		result.Stats.Records, result.Stats.Edges, result.Stats.Errors)
	return nil
}
