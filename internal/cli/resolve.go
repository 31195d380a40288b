package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/domain/policy"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type resolveOptions struct {
	profile       string
	amount        string
	credit        bool
	creditLimit   string
	firstPurchase bool
	recurring     bool
}

func resolveCmd(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the payment decision for a hypothetical order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pctx, err := opts.paymentContext()
			if err != nil {
				return err
			}
			settings, err := loadSettings(cmd.Context(), root)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), policy.Resolve(pctx, policy.LoadConfig(settings)))
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", string(entities.ProfileB2C), "Buyer profile (B2C or B2B)")
	cmd.Flags().StringVarP(&opts.amount, "amount", "a", "", "Order amount, e.g. 1500.00")
	cmd.Flags().BoolVar(&opts.credit, "credit", false, "Buyer has an approved credit analysis")
	cmd.Flags().StringVar(&opts.creditLimit, "credit-limit", "", "Remaining credit limit (unknown when empty)")
	cmd.Flags().BoolVar(&opts.firstPurchase, "first-purchase", false, "Buyer has no completed order")
	cmd.Flags().BoolVar(&opts.recurring, "recurring", false, "Charge is recurring")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func (o *resolveOptions) paymentContext() (entities.PaymentContext, error) {
	var pctx entities.PaymentContext

	switch p := entities.BuyerProfile(strings.ToUpper(strings.TrimSpace(o.profile))); p {
	case entities.ProfileB2C, entities.ProfileB2B:
		pctx.Profile = p
	default:
		return pctx, fmt.Errorf("unknown profile %q: use B2C or B2B", o.profile)
	}

	amount, err := decimal.NewFromString(o.amount)
	if err != nil || !amount.IsPositive() {
		return pctx, fmt.Errorf("amount must be a positive number, got %q", o.amount)
	}
	pctx.Amount = amount

	if o.creditLimit != "" {
		limit, err := decimal.NewFromString(o.creditLimit)
		if err != nil || limit.IsNegative() {
			return pctx, fmt.Errorf("credit limit must be a non-negative number, got %q", o.creditLimit)
		}
		pctx.CreditLimitRemaining = &limit
	}

	pctx.HasApprovedCredit = o.credit
	pctx.IsFirstPurchase = o.firstPurchase
	pctx.IsRecurringCharge = o.recurring
	return pctx, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
