package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/cart"
)

func newCartCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			get().printCart()
			return nil
		},
	}

	var size string
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			a.loadCatalog(cmd.Context())
			p, ok := a.catalog.Find(args[0])
			if !ok {
				return fmt.Errorf("product %q not found", args[0])
			}
			if len(p.Sizes) > 0 && size == "" {
				return apperr.NewValidation("select a product size", "size")
			}
			if size != "" && !p.HasSize(size) {
				return apperr.NewValidation(fmt.Sprintf("%s is not available in size %s", p.Name, size), "size")
			}

			a.ledger.Add(p, size)
			if err := a.saveCart(cmd.Context()); err != nil {
				return err
			}
			item, _ := a.ledger.Get(p.ID, size)
			fmt.Fprintf(a.out, "Added %s (qty %d)\n", p.Name, item.Quantity)
			return nil
		},
	}
	add.Flags().StringVar(&size, "size", "", "product size")

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			a.ledger.Remove(args[0], size)
			if err := a.saveCart(cmd.Context()); err != nil {
				return err
			}
			a.printCart()
			return nil
		},
	}
	remove.Flags().StringVar(&size, "size", "", "product size")

	set := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return apperr.NewValidation("quantity must be a number", "quantity")
			}
			a := get()
			a.ledger.SetQuantity(args[0], size, n)
			if err := a.saveCart(cmd.Context()); err != nil {
				return err
			}
			a.printCart()
			return nil
		},
	}
	set.Flags().StringVar(&size, "size", "", "product size")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			a.ledger.Clear()
			return a.saveCart(cmd.Context())
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE:  cmd.RunE,
	}

	cmd.AddCommand(show, add, remove, set, clearCmd)
	return cmd
}

func (a *app) printCart() {
	items := a.ledger.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tQTY\tPRICE\tTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			it.ProductID, it.Name, it.Variant, it.Quantity, a.money(it.UnitPrice), a.money(it.LineTotal()))
	}
	_ = tw.Flush()
	a.printTotals(a.checkout.Preview())
}

func (a *app) printTotals(t cart.Totals) {
	fmt.Fprintf(a.out, "\nSubtotal: %s\nDelivery: %s\nTotal:    %s\n",
		a.money(t.Subtotal), a.money(t.DeliveryFee), a.money(t.Total))
}
