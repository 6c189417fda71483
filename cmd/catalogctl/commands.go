package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"catalog/internal/database"
	"catalog/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.Migrate(a.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration complete")
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	var product, kind string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull a product's menu or feature hierarchy from upstream",
		Long: `Fetch the flat hierarchy from the upstream source and reconcile the local mirror.

Examples:
  catalogctl sync --product RENTVIX --kind menu
  catalogctl sync --product RENTVIX --kind feature`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.hierarchy.Sync(cmd.Context(), product, kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d %ss for %s (fetched %d, removed %d, depth %d)\n",
				res.Count, res.Kind, res.ProductCode, res.Fetched, res.Deleted, res.Levels)
			return nil
		},
	}

	cmd.Flags().StringVarP(&product, "product", "p", "", "Product code or id")
	cmd.Flags().StringVarP(&kind, "kind", "k", model.KindMenu, "Hierarchy kind (menu, feature)")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func matrixCmd() *cobra.Command {
	var product string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Print the enabled cells of a product's package matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			agg, err := a.matrix.Aggregate(cmd.Context(), product)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(agg)
			}

			names := make(map[uint]string, len(agg.Packages))
			for _, p := range agg.Packages {
				names[p.ID] = p.Name
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PACKAGE\tTYPE\tITEM")
			for _, cell := range agg.Matrix {
				if !cell.Enabled {
					continue
				}
				fmt.Fprintf(w, "%s (%d)\t%s\t%s\n", names[cell.PackageID], cell.PackageID, cell.ItemType, cell.ItemID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&product, "product", "p", "", "Product code or id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the whole aggregate as JSON")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage products and their packages",
	}

	var code, name string
	var packages []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product with its packages",
		Long: `Create a product and its subscription packages in one transaction.

Packages are given as NAME[:PRICE[:MONTHS]].

Example:
  catalogctl product create --code RENTVIX --name "Rentvix" --package Basic:150000:1 --package Pro:450000:12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]model.Package, 0, len(packages))
			for i, raw := range packages {
				pkg, err := parsePackage(raw)
				if err != nil {
					return err
				}
				pkg.OrderNumber = i + 1
				specs = append(specs, pkg)
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			product := &model.Product{Code: code, Name: name}
			err = a.txManager.RunInTx(cmd.Context(), func(txCtx context.Context) error {
				if err := a.products.Create(txCtx, product); err != nil {
					return fmt.Errorf("create product: %w", err)
				}
				for i := range specs {
					specs[i].ProductCode = product.Code
					if err := a.packages.Create(txCtx, &specs[i]); err != nil {
						return fmt.Errorf("create package %s: %w", specs[i].Name, err)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with %d packages\n", product.Code, product.ID, len(specs))
			return nil
		},
	}
	create.Flags().StringVar(&code, "code", "", "Product code")
	create.Flags().StringVar(&name, "name", "", "Display name")
	create.Flags().StringArrayVar(&packages, "package", nil, "Package as NAME[:PRICE[:MONTHS]], repeatable")
	_ = create.MarkFlagRequired("code")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

// parsePackage reads NAME[:PRICE[:MONTHS]].
func parsePackage(raw string) (model.Package, error) {
	parts := strings.Split(raw, ":")
	pkg := model.Package{
		Name:   strings.TrimSpace(parts[0]),
		Status: model.PackageStatusActive,
		Price:  decimal.Zero,
	}
	if pkg.Name == "" || len(parts) > 3 {
		return pkg, fmt.Errorf("invalid package %q, expected NAME[:PRICE[:MONTHS]]", raw)
	}
	if len(parts) > 1 {
		price, err := decimal.NewFromString(parts[1])
		if err != nil || price.IsNegative() {
			return pkg, fmt.Errorf("invalid price in package %q", raw)
		}
		pkg.Price = price
	}
	if len(parts) > 2 {
		months, err := strconv.Atoi(parts[2])
		if err != nil || months < 0 {
			return pkg, fmt.Errorf("invalid duration in package %q", raw)
		}
		pkg.DurationMonths = months
	}
	return pkg, nil
}
