package main

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/review"
)

func (c *cli) browseCommand() *cobra.Command {
	var (
		search, category, brand string
		minPrice, maxPrice      float64
		rating                  float64
		page                    int
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List products, narrowed by search, category or brand",
		Long: "List one page of products. Only one of --search, --category and --brand\n" +
			"narrows the listing, in that order of precedence. Price and rating bounds\n" +
			"filter the returned page only.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := url.Values{}
			v.Set(catalog.ParamSearch, search)
			v.Set(catalog.ParamCategory, category)
			v.Set(catalog.ParamBrand, brand)
			v.Set(catalog.ParamMinPrice, strconv.FormatFloat(minPrice, 'f', -1, 64))
			v.Set(catalog.ParamMaxPrice, strconv.FormatFloat(maxPrice, 'f', -1, 64))
			v.Set(catalog.ParamRating, strconv.FormatFloat(rating, 'f', -1, 64))
			v.Set(catalog.ParamPage, strconv.Itoa(page))

			p, err := c.app.Catalog.Browse(cmd.Context(), catalog.BuildQuery(v))
			if err != nil {
				return err
			}
			return c.render(cmd, p, func(w io.Writer) error {
				if p.Empty {
					fmt.Fprintln(w, "no products match")
				} else {
					rows := make([]string, 0, len(p.Products))
					for _, pr := range p.Products {
						rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%s\t%d",
							pr.ID, pr.Title, money(pr.Price.Current), review.StarString(pr.Rating), pr.Stock))
					}
					if err := table(w, "ID\tTITLE\tPRICE\tRATING\tSTOCK", rows); err != nil {
						return err
					}
				}
				s := p.State
				if _, err := fmt.Fprintf(w, "page %d of %d (%d products)\n", s.CurrentPage, s.TotalPages, s.TotalItems); err != nil {
					return err
				}
				for _, hint := range pageHints(p.Query, s) {
					if _, err := fmt.Fprintln(w, hint); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&search, "search", "q", "", "search keywords")
	f.StringVar(&category, "category", "", "category id")
	f.StringVar(&brand, "brand", "", "brand name")
	f.Float64Var(&minPrice, "min-price", 0, "lowest price")
	f.Float64Var(&maxPrice, "max-price", 0, "highest price, 0 for none")
	f.Float64Var(&rating, "rating", 0, "lowest rating")
	f.IntVar(&page, "page", 1, "page number")
	return cmd
}

// pageHints returns the browse invocations for the neighbouring pages.
func pageHints(q domain.CatalogQuery, s domain.PageState) []string {
	var hints []string
	if s.HasPrev() {
		hints = append(hints, strings.TrimSpace("prev: storefront browse "+pageFlags(catalog.PageValues(q, s.Prev()))))
	}
	if s.HasNext() {
		hints = append(hints, strings.TrimSpace("next: storefront browse "+pageFlags(catalog.PageValues(q, s.Next()))))
	}
	return hints
}

// pageFlags renders catalog URL state as browse flags.
func pageFlags(v url.Values) string {
	names := []struct{ param, flag string }{
		{catalog.ParamSearch, "--search"},
		{catalog.ParamCategory, "--category"},
		{catalog.ParamBrand, "--brand"},
		{catalog.ParamMinPrice, "--min-price"},
		{catalog.ParamMaxPrice, "--max-price"},
		{catalog.ParamRating, "--rating"},
		{catalog.ParamPage, "--page"},
	}
	out := ""
	for _, n := range names {
		if val := v.Get(n.param); val != "" {
			if out != "" {
				out += " "
			}
			out += n.flag + " " + strconv.Quote(val)
		}
	}
	return out
}

func (c *cli) sidebarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sidebar",
		Short: "List categories and brands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.app.Catalog.Sidebar(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, s, func(w io.Writer) error {
				rows := make([]string, 0, len(s.Categories))
				for _, cat := range s.Categories {
					rows = append(rows, cat.ID+"\t"+cat.Name)
				}
				if err := table(w, "CATEGORY\tNAME", rows); err != nil {
					return err
				}
				fmt.Fprintln(w)
				rows = rows[:0]
				rows = append(rows, s.Brands...)
				return table(w, "BRAND", rows)
			})
		},
	}
}

func (c *cli) productCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show a product with its gallery and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.app.Catalog.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd, d, func(w io.Writer) error {
				p := d.Product
				fmt.Fprintf(w, "%s\n%s  %s %s  stock %d\n", p.Title, review.StarString(p.Rating), money(p.Price.Current), p.Price.Currency, p.Stock)
				if p.Price.BeforeDiscount > p.Price.Current {
					fmt.Fprintf(w, "was %s\n", money(p.Price.BeforeDiscount))
				}
				if p.Description != "" {
					fmt.Fprintf(w, "\n%s\n", p.Description)
				}
				fmt.Fprintln(w, "\nimages:")
				for _, img := range d.Gallery {
					fmt.Fprintf(w, "  %s\n", img)
				}
				fmt.Fprintf(w, "\nreviews (%d):\n", d.ReviewCount)
				for _, r := range d.Reviews {
					fmt.Fprintf(w, "  %s  %s", review.StarString(r.Score), r.ReviewerLabel)
					if r.Comment != "" {
						fmt.Fprintf(w, ": %s", r.Comment)
					}
					fmt.Fprintln(w)
				}
				return nil
			})
		},
	}
}

func (c *cli) rateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <product-id> <stars>",
		Short: "Rate a product from 1 to 5 stars",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stars, err := strconv.Atoi(args[1])
			if err != nil {
				stars = 0
			}
			if err := c.app.Catalog.Rate(cmd.Context(), args[0], stars); err != nil {
				return err
			}
			return c.render(cmd, map[string]any{"product_id": args[0], "stars": stars}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "rated %s %s\n", args[0], review.StarString(float64(stars)))
				return err
			})
		},
	}
}
