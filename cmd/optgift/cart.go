package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Jegankumard/OptGiftAI/core"
)

func newCartCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage a user's cart",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <user> <product-id>",
			Short: "Add a product to the cart",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withCartProduct(cmd, *configPath, args, func(a *app, user string, p core.Product) (any, error) {
					added, count, err := a.carts.Add(cmd.Context(), user, p.ID)
					if err != nil {
						return nil, err
					}
					msg := "Item already in cart"
					if added {
						msg = "Added to cart"
					}
					return map[string]any{"status": "success", "message": msg, "cart_count": count}, nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <user> <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withCartProduct(cmd, *configPath, args, func(a *app, user string, p core.Product) (any, error) {
					count, err := a.carts.Remove(cmd.Context(), user, p.ID)
					if err != nil {
						return nil, err
					}
					return map[string]any{"status": "success", "cart_count": count}, nil
				})
			},
		},
		&cobra.Command{
			Use:   "list <user>",
			Short: "List the cart with its total",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp(cmd.Context(), *configPath)
				if err != nil {
					return err
				}
				defer a.Close()

				ids, err := a.carts.List(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"items": a.catalog.Items(ids),
					"total": a.catalog.Total(ids),
				})
			},
		},
	)
	return cmd
}

// withCartProduct 解析商品 ID 并确认商品存在后执行 fn。
func withCartProduct(cmd *cobra.Command, configPath string, args []string, fn func(*app, string, core.Product) (any, error)) error {
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", args[1], err)
	}
	a, err := loadApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	p, ok := a.catalog.ByID(id)
	if !ok {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, fmt.Sprintf("product %d not found", id))
	}
	out, err := fn(a, args[0], p)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}
