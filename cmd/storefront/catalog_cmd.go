package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func newProductsCmd(get func() *app) *cobra.Command {
	var (
		q          catalog.Query
		sort       string
		latest     int
		bestseller bool
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			s, err := catalog.ParseSort(sort)
			if err != nil {
				return err
			}
			q.Sort = s
			q.BestsellerOnly = bestseller

			a.loadCatalog(cmd.Context())
			products := a.catalog.Filter(q)
			if latest > 0 {
				products = catalog.Latest(products, latest)
			}
			a.printProducts(products)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Search, "search", "", "match product names")
	f.BoolVar(&q.SearchDescription, "in-description", false, "also match descriptions")
	f.StringSliceVar(&q.Categories, "category", nil, "category names (repeatable)")
	f.StringSliceVar(&q.SubCategories, "type", nil, "sub-categories such as Topwear (repeatable)")
	f.StringVar(&sort, "sort", "relevant", "relevant, low-to-high or high-to-low")
	f.BoolVar(&bestseller, "bestseller", false, "only bestsellers")
	f.IntVar(&latest, "latest", 0, "only the n newest products")
	return cmd
}

func newProductCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product and related items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			a.loadCatalog(cmd.Context())
			p, ok := a.catalog.Find(args[0])
			if !ok {
				return fmt.Errorf("product %q not found", args[0])
			}

			fmt.Fprintf(a.out, "%s\n%s\n\n", p.Name, a.money(p.Price))
			if p.Description != "" {
				fmt.Fprintln(a.out, p.Description)
			}
			fmt.Fprintf(a.out, "Category: %s / %s\n", p.Category.Name, p.SubCategory)
			if len(p.Sizes) > 0 {
				fmt.Fprintf(a.out, "Sizes:    %s\n", strings.Join(p.Sizes, ", "))
			}
			if p.Bestseller {
				fmt.Fprintln(a.out, "Bestseller")
			}
			if related := a.catalog.Related(p, 5); len(related) > 0 {
				fmt.Fprintln(a.out, "\nRelated products:")
				a.printProducts(related)
			}
			return nil
		},
	}
}

func newCategoriesCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			a.loadCatalog(cmd.Context())
			for _, c := range a.catalog.Categories() {
				fmt.Fprintf(a.out, "%s\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}

func (a *app) printProducts(products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products found.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tSIZES")
	for _, p := range products {
		name := p.Name
		if p.Bestseller {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, name, a.money(p.Price),
			strings.TrimSuffix(p.Category.Name+"/"+p.SubCategory, "/"),
			strings.Join(p.Sizes, ","))
	}
	_ = tw.Flush()
}

func (a *app) money(d decimal.Decimal) string {
	return a.cfg.Currency + d.StringFixed(2)
}
