package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func newAdminCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office operations (admin accounts only)",
	}
	cmd.AddCommand(
		newAdminOrdersCmd(get),
		newAdminOrderStatusCmd(get),
		newAdminUsersCmd(get),
		newAdminDeleteUserCmd(get),
		newAdminToggleAdminCmd(get),
		newAdminAddProductCmd(get),
		newAdminDeleteProductCmd(get),
		newAdminDashboardCmd(get),
	)
	return cmd
}

func newAdminOrdersCmd(get func() *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List every order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			list, err := a.admin.Orders(cmd.Context())
			if err != nil {
				return err
			}
			a.printOrders(admin.FilterOrdersByStatus(list, status))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only orders with this status")
	return cmd
}

func newAdminOrderStatusCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order-status <order-id> <status>",
		Short: "Change the status of an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			o, err := a.admin.UpdateOrderStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Order %s is now %s\n", o.ID, o.Status)
			return nil
		},
	}
}

func newAdminUsersCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			users, err := a.admin.Users(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tADMIN")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.IsAdmin)
			}
			return tw.Flush()
		},
	}
}

func newAdminDeleteUserCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.admin.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "User %s deleted\n", args[0])
			return nil
		},
	}
}

func newAdminToggleAdminCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-admin <user-id>",
		Short: "Grant or revoke admin rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			users, err := a.admin.Users(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				if u.ID != args[0] {
					continue
				}
				updated, err := a.admin.ToggleAdmin(cmd.Context(), u)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s admin: %t\n", updated.DisplayName(), updated.IsAdmin)
				return nil
			}
			return fmt.Errorf("user %q not found", args[0])
		},
	}
}

func newAdminAddProductCmd(get func() *app) *cobra.Command {
	var (
		draft domain.ProductDraft
		price string
	)
	cmd := &cobra.Command{
		Use:   "add-product",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			p, err := decimal.NewFromString(price)
			if err != nil {
				return apperr.NewValidation("price must be a number", "price")
			}
			draft.Price = p

			created, err := a.admin.CreateProduct(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Product %s created (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&draft.Name, "name", "", "product name")
	f.StringVar(&draft.Description, "description", "", "product description")
	f.StringVar(&price, "price", "", "unit price")
	f.StringVar(&draft.CategoryID, "category", "", "category id")
	f.StringVar(&draft.SubCategory, "type", "", "sub-category")
	f.StringSliceVar(&draft.Sizes, "size", nil, "available sizes (repeatable)")
	f.StringSliceVar(&draft.Images, "image", nil, "image paths (repeatable)")
	f.BoolVar(&draft.Bestseller, "bestseller", false, "mark as bestseller")
	return cmd
}

func newAdminDeleteProductCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-product <product-id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.admin.DeleteProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Product %s deleted\n", args[0])
			return nil
		},
	}
}

func newAdminDashboardCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Store totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			stats, err := a.admin.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Users:    %d\nProducts: %d\nOrders:   %d (%d pending)\nRevenue:  %s\n",
				stats.Users, stats.Products, stats.Orders, stats.Pending, a.money(stats.Revenue))
			return nil
		},
	}
}
