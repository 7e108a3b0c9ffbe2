package main

import (
	"sort"
	"strconv"

	"github.com/cyw0ng95/flint/ext"
	"github.com/spf13/cobra"
)

var catalogSections = []string{"types", "operators", "functions", "indexes", "modules"}

func newCatalogCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "catalog [types|operators|functions|indexes|modules]",
		Short:     "List registered catalog entries",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: catalogSections,
		RunE: func(cmd *cobra.Command, args []string) error {
			section := ""
			if len(args) == 1 {
				section = args[0]
			}
			header, rows := c.catalogRows(section)
			renderTable(cmd.OutOrStdout(), header, rows)
			return nil
		},
	}
}

func (c *cli) catalogRows(section string) ([]string, [][]string) {
	cat := c.engine.Catalog()
	var rows [][]string
	switch section {
	case "types":
		for _, t := range cat.Types() {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(t.TypeID()), 10),
				t.Name(),
				t.Category().String(),
				strconv.FormatUint(uint64(t.WireType()), 10),
			})
		}
		return []string{"ID", "NAME", "CATEGORY", "WIRE OID"}, rows

	case "operators":
		impls := make(map[string]int)
		for _, op := range cat.Operators() {
			impls[op.Symbol()]++
		}
		for _, sym := range cat.OperatorSymbols() {
			rows = append(rows, []string{sym, strconv.Itoa(impls[sym])})
		}
		return []string{"SYMBOL", "IMPLEMENTATIONS"}, rows

	case "functions":
		fns := cat.Functions()
		sort.Slice(fns, func(i, j int) bool { return fns[i].Name() < fns[j].Name() })
		for _, fn := range fns {
			rows = append(rows, []string{fn.Name(), arity(fn)})
		}
		return []string{"NAME", "ARGS"}, rows

	case "indexes":
		for _, s := range cat.IndexStructures() {
			rows = append(rows, []string{s})
		}
		return []string{"STRUCTURE"}, rows

	case "modules":
		for _, m := range c.engine.Modules() {
			rows = append(rows, []string{m.Name, m.Description})
		}
		return []string{"NAME", "DESCRIPTION"}, rows
	}

	counts := cat.Counts()
	for _, registry := range []string{"types", "operators", "functions", "indexes"} {
		rows = append(rows, []string{registry, strconv.Itoa(counts[registry])})
	}
	rows = append(rows, []string{"modules", strconv.Itoa(len(c.engine.Modules()))})
	return []string{"REGISTRY", "ENTRIES"}, rows
}

func arity(fn ext.FunctionExtension) string {
	f, ok := fn.(*ext.Func)
	if !ok {
		return "?"
	}
	switch {
	case f.MaxArgs == ext.Variadic:
		return strconv.Itoa(f.MinArgs) + "+"
	case f.MinArgs == f.MaxArgs:
		return strconv.Itoa(f.MinArgs)
	default:
		return strconv.Itoa(f.MinArgs) + "-" + strconv.Itoa(f.MaxArgs)
	}
}
