package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func newCheckoutCmd(get func() *app) *cobra.Command {
	var ship domain.ShippingDetails
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			totals := a.checkout.Preview()

			ref, err := a.checkout.Submit(cmd.Context(), ship)
			if ref != nil {
				fmt.Fprintf(a.out, "Order %s placed (%s), total %s\n", ref.ID, ref.Status, a.money(totals.Total))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&ship.Name, "name", "", "recipient name")
	cmd.Flags().StringVar(&ship.Address, "address", "", "delivery address")
	return cmd
}

func newOrdersCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders [id]",
		Short: "List your orders or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if len(args) == 1 {
				o, err := a.orders.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.printOrder(*o)
				return nil
			}

			list, err := a.orders.List(cmd.Context())
			if err != nil {
				return err
			}
			a.printOrders(list)
			return nil
		},
	}
}

func (a *app) printOrders(list []domain.Order) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No orders yet.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tITEMS\tTOTAL\tSTATUS")
	for _, o := range list {
		date := "-"
		if !o.CreatedAt.IsZero() {
			date = o.CreatedAt.Local().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", o.ID, date, len(o.Items), a.money(o.TotalAmount), o.Status)
	}
	_ = tw.Flush()
}

func (a *app) printOrder(o domain.Order) {
	fmt.Fprintf(a.out, "Order %s\nStatus:  %s\nShip to: %s, %s\n\n", o.ID, o.Status, o.Shipping.Name, o.Shipping.Address)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tPRICE\tTOTAL")
	for _, it := range o.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", it.ProductID, it.Quantity, a.money(it.Price), a.money(it.Total))
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "\nTotal: %s\n", a.money(o.TotalAmount))
}
