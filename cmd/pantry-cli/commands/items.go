package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bibhubhatta/wecare/internal/app"
	"github.com/bibhubhatta/wecare/internal/pantrysoft"
	"github.com/bibhubhatta/wecare/internal/reconcile"
	"github.com/bibhubhatta/wecare/lib/htmlutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	itemsCmd.AddCommand(itemsListCmd, itemsGetCmd, itemsDeleteCmd)
	typesFindCmd.Flags().Float64Var(&findThreshold, "threshold", 0.8, "Minimum Jaro-Winkler similarity.")
	typesFindCmd.Flags().IntVar(&findLimit, "limit", 5, "Maximum number of suggestions.")
	typesCmd.AddCommand(typesListCmd, typesFindCmd, typesDeleteCmd)
	codesCmd.AddCommand(codesListCmd)
	tagsCmd.AddCommand(tagsListCmd)
	rootCmd.AddCommand(itemsCmd, typesCmd, codesCmd, tagsCmd)
}

func newTable(header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row(header))
	return t
}

func printRecords(records ...pantrysoft.PantryRecord) {
	t := newTable("ID", "Item Number", "Name", "Unit", "Weight", "Type")
	for _, r := range records {
		t.AppendRow(table.Row{r.ID, r.ItemNumber, r.Name, r.Unit, r.Weight, r.ItemTypeString})
	}
	t.Render()
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Inspects and edits PantrySoft inventory items.",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every inventory item.",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		records, err := a.Pantry.ListItems(cmd.Context())
		if err != nil {
			return err
		}
		printRecords(records...)
		return nil
	}),
}

var itemsGetCmd = &cobra.Command{
	Use:   "get <upc>",
	Short: "Shows the item with an item number and its description.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		record, err := a.Pantry.GetItem(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printRecords(record)

		description, err := a.Pantry.ItemDescription(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		text, err := htmlutil.PlainText(description)
		if err != nil {
			return err
		}
		if text != "" {
			fmt.Println(text)
		}
		return nil
	}),
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <upc>",
	Short: "Deletes an item, removing its category if nothing else uses it.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		err := a.Engine.DeleteItem(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	}),
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Inspects PantrySoft item types.",
}

var typesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every item type.",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		types, err := a.Pantry.ListTypes(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable("ID", "Name")
		for _, c := range types {
			t.AppendRow(table.Row{c.ID, c.Name})
		}
		t.Render()
		return nil
	}),
}

var (
	findThreshold float64
	findLimit     int
)

var typesFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Suggests existing item types with names similar to the query.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		types, err := a.Pantry.ListTypes(cmd.Context())
		if err != nil {
			return err
		}
		names := make([]string, len(types))
		for i, c := range types {
			names[i] = c.Name
		}

		suggestions := reconcile.Suggest(args[0], names, findThreshold, findLimit)
		if len(suggestions) == 0 {
			fmt.Println("no similar item types")
			return nil
		}
		t := newTable("Name", "Similarity")
		for _, s := range suggestions {
			t.AppendRow(table.Row{s.Name, fmt.Sprintf("%.3f", s.Similarity)})
		}
		t.Render()
		return nil
	}),
}

var typesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Deletes an item type by name.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		id, err := a.Pantry.GetItemTypeID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		err = a.Pantry.DeleteItemType(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("deleted item type %s (%d)\n", args[0], id)
		return nil
	}),
}

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Inspects PantrySoft item codes.",
}

var codesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every item code and the item it points to.",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		codes, err := a.Pantry.ListCodes(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable("ID", "Code", "Item ID")
		for _, c := range codes {
			t.AppendRow(table.Row{c.ID, c.CodeNumber, strconv.FormatInt(c.ItemID, 10)})
		}
		t.Render()
		return nil
	}),
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Inspects PantrySoft item tags.",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every item tag.",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		tags, err := a.Pantry.ListTags(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable("ID", "Name")
		for _, tag := range tags {
			t.AppendRow(table.Row{tag.ID, tag.Name})
		}
		t.Render()
		return nil
	}),
}
