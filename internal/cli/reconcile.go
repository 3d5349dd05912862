package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"snaps_engagement/internal/model"
	"snaps_engagement/internal/service"
	"snaps_engagement/internal/storage"
)

// reconciler is the subset of ReconcileService the commands drive.
type reconciler interface {
	ReconcileUser(ctx context.Context, id int64) (*model.ReconcileReport, error)
	ReconcilePost(ctx context.Context, id int64) (*model.ReconcileReport, error)
	ReconcileComment(ctx context.Context, id int64) (*model.ReconcileReport, error)
	ReconcileAllUsers(ctx context.Context) (int, []*model.ReconcileReport, error)
}

// NewReconcileCommand creates the reconcile command and its entity subcommands.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute counters from live edges and fix drift",
		Long: `Recompute denormalized counters from the edge tables and overwrite
any stored value that disagrees. Drifted reports are archived to the
report bucket when one is configured.`,
	}

	for _, kind := range []model.EntityKind{model.EntityUser, model.EntityPost, model.EntityComment} {
		cmd.AddCommand(newReconcileEntityCommand(rootOpts, kind))
	}
	cmd.AddCommand(newReconcileAllUsersCommand(rootOpts))

	return cmd
}

func newReconcileEntityCommand(rootOpts *RootOptions, kind model.EntityKind) *cobra.Command {
	return &cobra.Command{
		Use:          string(kind) + " <id>",
		Short:        fmt.Sprintf("Reconcile the counters of one %s", kind),
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid %s id %q", kind, args[0])
			}

			return rootOpts.withReconciler(cmd.Context(), func(r reconciler) error {
				report, err := reconcileOne(cmd.Context(), r, kind, id)
				if err != nil {
					return err
				}
				return printReport(cmd.OutOrStdout(), rootOpts.Format, report)
			})
		},
	}
}

func newReconcileAllUsersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "users",
		Short:        "Reconcile every live user",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withReconciler(cmd.Context(), func(r reconciler) error {
				checked, drifted, err := r.ReconcileAllUsers(cmd.Context())
				if err != nil {
					return err
				}
				return printSummary(cmd.OutOrStdout(), rootOpts.Format, checked, drifted)
			})
		},
	}
}

func reconcileOne(ctx context.Context, r reconciler, kind model.EntityKind, id int64) (*model.ReconcileReport, error) {
	switch kind {
	case model.EntityUser:
		return r.ReconcileUser(ctx, id)
	case model.EntityPost:
		return r.ReconcilePost(ctx, id)
	case model.EntityComment:
		return r.ReconcileComment(ctx, id)
	}
	return nil, model.ErrUnknownEntityKind
}

// withReconciler opens the database and the optional report sink for one command.
func (o *RootOptions) withReconciler(ctx context.Context, fn func(reconciler) error) error {
	db, err := o.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var sink service.ReportSink
	if o.cfg.Report.Enabled() {
		s, err := storage.NewReportSink(ctx, o.cfg.Report)
		if err != nil {
			return err
		}
		sink = s
	}

	return fn(service.NewServices(db, nil, nil, sink).Reconcile)
}

func printReport(w io.Writer, format string, report *model.ReconcileReport) error {
	if format == "json" {
		return writeJSON(w, report)
	}

	fmt.Fprintf(w, "%s %d\n", report.Entity, report.ID)
	if !report.HasDrift() {
		fmt.Fprintln(w, "  no drift")
		return nil
	}
	for _, d := range report.Drifts {
		fmt.Fprintf(w, "  %s: %d -> %d\n", d.Field, d.Stored, d.Actual)
	}
	return nil
}

func printSummary(w io.Writer, format string, checked int, drifted []*model.ReconcileReport) error {
	if format == "json" {
		if drifted == nil {
			drifted = []*model.ReconcileReport{}
		}
		return writeJSON(w, map[string]interface{}{
			"checked": checked,
			"drifted": drifted,
		})
	}

	fmt.Fprintf(w, "checked %d users, %d drifted\n", checked, len(drifted))
	for _, report := range drifted {
		if err := printReport(w, format, report); err != nil {
			return err
		}
	}
	return nil
}
