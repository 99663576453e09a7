package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/hagaki/internal/format"
	"github.com/Simplici0/hagaki/internal/pricing"
)

type quoteOptions struct {
	quantity int
	grade    string
	finish   string
	discount string
	ownStock bool
	dm       bool
	assist   bool
	plan     string
}

func newQuoteCmd(a *app) *cobra.Command {
	var opts quoteOptions

	c := &cobra.Command{
		Use:   "quote",
		Short: "Price an order for every offered plan",
		Long: `Price an order for every plan offered for its finish.

Labels are read the same way the order form sends them, so both
"スタンダード" and "standard" work. With --plan the chosen plan is
split into print cost, postcard stock and coupon.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, a, opts)
		},
	}

	c.Flags().IntVarP(&opts.quantity, "quantity", "q", 0, "number of postcards")
	c.Flags().StringVarP(&opts.grade, "grade", "g", "", "design grade label")
	c.Flags().StringVarP(&opts.finish, "finish", "f", "", "finish label (印刷 or 写真仕上げ)")
	c.Flags().StringVarP(&opts.discount, "discount", "d", "", "early-order discount label")
	c.Flags().BoolVar(&opts.ownStock, "own-stock", false, "customer brings their own postcards")
	c.Flags().BoolVar(&opts.dm, "dm", false, "apply the DM coupon")
	c.Flags().BoolVar(&opts.assist, "assist", false, "add input assistance")
	c.Flags().StringVarP(&opts.plan, "plan", "p", "", "show the breakdown for this plan")
	return c
}

func runQuote(cmd *cobra.Command, a *app, opts quoteOptions) error {
	if opts.quantity < 0 || opts.quantity > pricing.MaxQuantity {
		return fmt.Errorf("quantity must be between 0 and %d, got %d", pricing.MaxQuantity, opts.quantity)
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}

	quote := engine.Compute(pricing.RawInput{
		Quantity:         opts.quantity,
		Grade:            opts.grade,
		Finish:           opts.finish,
		Discount:         opts.discount,
		BringOwnPostcard: opts.ownStock,
		DMCoupon:         opts.dm,
		InputAssistance:  opts.assist,
	})
	today := a.now()

	out := cmd.OutOrStdout()
	if opts.plan != "" {
		plan := pricing.NormalizePlan(opts.plan)
		if finish := pricing.NormalizeFinish(opts.finish); !pricing.PlanOffered(finish, plan) {
			return fmt.Errorf("plan %q is not offered for the %s finish", plan, finish)
		}
		b := quote.Breakdown(plan)
		fmt.Fprintf(out, "Plan:       %s\n", plan)
		fmt.Fprintf(out, "Total:      %s\n", format.Yen(b.Total))
		fmt.Fprintf(out, "Print:      %s\n", format.Yen(b.PrintCost))
		fmt.Fprintf(out, "Postcards:  %s\n", format.Yen(b.PostcardCost))
		fmt.Fprintf(out, "DM coupon:  %s\n", format.Yen(-b.DMDiscount))
		fmt.Fprintf(out, "Completion: %s\n", engine.CompletionDate(opts.plan, today))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAN\tPRICE\tCOMPLETION")
	for _, plan := range pricing.VisiblePlans(pricing.NormalizeFinish(opts.finish)) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", plan, format.Yen(quote.Price(plan)), engine.CompletionDate(string(plan), today))
	}
	return w.Flush()
}

func newCompletionCmd(a *app) *cobra.Command {
	var date string

	c := &cobra.Command{
		Use:   "completion <plan>",
		Short: "Show the expected completion date of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}

			today := a.now()
			if date != "" {
				today, err = parseDate(date, today)
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), engine.CompletionDate(args[0], today))
			return nil
		},
	}

	c.Flags().StringVar(&date, "date", "", "order date as YYYY-MM-DD (default: today)")
	return c
}
