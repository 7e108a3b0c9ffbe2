package main

import (
	"github.com/cyw0ng95/flint/ext"
	"github.com/spf13/cobra"
)

func newEvalCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <left> <op> <right>",
		Short: "Apply a binary operator to two literals",
		Example: `  flint eval 1 + 2.5
  flint eval 'vector:[1,0]' '<->' 'vector:[0,1]'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := c.engine.Catalog()
			left, err := parseLiteral(cat, args[0])
			if err != nil {
				return err
			}
			right, err := parseLiteral(cat, args[2])
			if err != nil {
				return err
			}
			v, err := c.engine.Evaluator().BinaryOp(args[1], left, right)
			if err != nil {
				return err
			}
			c.printValue(cmd, v)
			return nil
		},
	}
}

func newCallCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "call <function> [args...]",
		Short: "Call a scalar function with literal arguments",
		Example: `  flint call abs -3
  flint call substr "'hello'" 2 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := c.engine.Catalog()
			vals := make([]ext.Value, len(args)-1)
			for i, a := range args[1:] {
				v, err := parseLiteral(cat, a)
				if err != nil {
					return err
				}
				vals[i] = v
			}
			v, err := c.engine.Evaluator().Call(args[0], vals...)
			if err != nil {
				return err
			}
			c.printValue(cmd, v)
			return nil
		},
	}
}

func (c *cli) printValue(cmd *cobra.Command, v ext.Value) {
	text, typ := formatValue(c.engine.Catalog(), v)
	renderTable(cmd.OutOrStdout(), []string{"VALUE", "TYPE"}, [][]string{{text, typ}})
}
