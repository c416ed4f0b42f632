package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/validate"
)

// batchFlags are the request fields shared by validate and plan.
type batchFlags struct {
	station  string
	rate     string
	template string
	total    string
	count    string
	max      string
	start    string
	end      string
	spacing  string
}

func (f *batchFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.station, "station", "", "station name")
	cmd.Flags().StringVar(&f.rate, "rate", "", "fuel rate per unit volume")
	cmd.Flags().StringVar(&f.template, "template", "1", "receipt template (1, 2 or 3)")
	cmd.Flags().StringVar(&f.total, "total", "", "total amount to distribute")
	cmd.Flags().StringVar(&f.count, "count", "", "number of receipts")
	cmd.Flags().StringVar(&f.max, "max", "", "maximum amount per receipt")
	cmd.Flags().StringVar(&f.start, "start", "", "first allowed date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last allowed date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.spacing, "spacing", "", "minimum days between receipts (default from config)")
}

func (f *batchFlags) params() validate.Params {
	return validate.Params{
		StationName:      f.station,
		FuelRate:         f.rate,
		Template:         f.template,
		TotalAmount:      f.total,
		NumberOfBills:    f.count,
		MaxAmountPerBill: f.max,
		StartDate:        f.start,
		EndDate:          f.end,
		MinSpacingDays:   f.spacing,
	}
}

func (f *batchFlags) validate() validate.Result {
	return cfg.Validator().Validate(f.params())
}

func printViolations(w io.Writer, violations []string) {
	fmt.Fprintln(w, "Invalid parameters:")
	for _, v := range violations {
		fmt.Fprintf(w, "  - %s\n", v)
	}
}

// =============================================================================
// validate
// =============================================================================

var validateFlags batchFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check batch parameters and list every problem",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := validateFlags.validate()
		if !res.Valid {
			printViolations(cmd.OutOrStdout(), res.Violations)
			return res.Err()
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Parameters are valid.")
		return nil
	},
}

// =============================================================================
// plan
// =============================================================================

var (
	planFlags  batchFlags
	planFormat string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Split the total and assign dates for a batch",
	Long: `Validate the parameters, split the total across receipts, and assign
each receipt a unique date and time.

Examples:
  receiptctl plan --station "HP Sector 18" --rate 96.72 --total 3000 --count 6 --max 700 --start 2025-04-01 --end 2025-06-30
  receiptctl plan --format json --spacing 7 ...`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	validateFlags.bind(validateCmd)
	planFlags.bind(planCmd)
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "table", "output format (table, json)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	res := planFlags.validate()
	if !res.Valid {
		printViolations(cmd.OutOrStdout(), res.Violations)
		return res.Err()
	}

	planner := batch.Planner{Allocator: cfg.Allocator()}
	plan, err := planner.Plan(*res.Request)
	if err != nil {
		return err
	}
	logger.Debug("plan created", zap.String("plan_id", plan.ID), zap.Int("units", len(plan.Units)))

	switch strings.ToLower(planFormat) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case "table":
		return writePlanTable(cmd.OutOrStdout(), plan)
	default:
		return fmt.Errorf("unknown format %q (use table or json)", planFormat)
	}
}

func writePlanTable(out io.Writer, plan *batch.Plan) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(out, "Plan %s (%s)\n\n", plan.ID, plan.Request.StationName)
	fmt.Fprintln(tw, "#\tDate\tTime\tAmount\tVolume\t")
	for _, u := range plan.Units {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", u.Sequence, u.Date, u.Time, u.Amount, u.Volume.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\tTotal\t%s\t\t\n", plan.Total())
	return tw.Flush()
}
