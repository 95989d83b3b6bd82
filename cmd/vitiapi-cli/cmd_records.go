package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/vitiapi/client"
)

var tableNames = []string{"products", "productions", "processings", "commercializations", "importations", "exportations"}

// recordView renders one record type as a table row. The first column is the id.
type recordView[T any] struct {
	headers []string
	row     func(T) []string
}

func (v recordView[T]) rows(recs []T) [][]string {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, v.row(rec))
	}
	return rows
}

func itoa[N int | int64](n N) string { return strconv.FormatInt(int64(n), 10) }

var (
	productView = recordView[client.Product]{
		headers: []string{"ID", "NAME", "CATEGORY"},
		row: func(p client.Product) []string {
			return []string{itoa(p.ID), p.Name, p.Category}
		},
	}
	productionView = recordView[client.Production]{
		headers: []string{"ID", "YEAR", "PRODUCT", "QUANTITY"},
		row: func(p client.Production) []string {
			return []string{itoa(p.ID), itoa(p.Year), itoa(p.ProductID), itoa(p.Quantity)}
		},
	}
	processingView = recordView[client.Processing]{
		headers: []string{"ID", "YEAR", "NAME", "CATEGORY", "SUBCATEGORY", "QUANTITY"},
		row: func(p client.Processing) []string {
			return []string{itoa(p.ID), itoa(p.Year), p.Name, p.Category, p.Subcategory, itoa(p.Quantity)}
		},
	}
	commercializationView = recordView[client.Commercialization]{
		headers: []string{"ID", "YEAR", "PRODUCT", "QUANTITY"},
		row: func(c client.Commercialization) []string {
			return []string{itoa(c.ID), itoa(c.Year), itoa(c.ProductID), itoa(c.Quantity)}
		},
	}
	tradeView = recordView[client.Trade]{
		headers: []string{"ID", "YEAR", "COUNTRY", "CATEGORY", "WEIGHT", "VALUE"},
		row: func(t client.Trade) []string {
			return []string{itoa(t.ID), itoa(t.Year), t.Country, t.Category, itoa(t.Weight), itoa(t.Value)}
		},
	}
)

// parseFilters turns repeated key=value flags into a filter map.
func parseFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value", kv)
		}
		filters[k] = v
	}
	return filters, nil
}

func validTable(name string) error {
	for _, t := range tableNames {
		if t == name {
			return nil
		}
	}
	return fmt.Errorf("unknown table %q (want one of %s)", name, strings.Join(tableNames, ", "))
}

func newListCmd() *cobra.Command {
	var (
		limit   int
		offset  int
		filters []string
	)
	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List records from a statistics table",
		Long: "List records from one of: " + strings.Join(tableNames, ", ") + ".\n" +
			"Filters take column=value, column_min=N, column_max=N, or product_name=NAME.",
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validTable(args[0])
		},
		Run: func(cmd *cobra.Command, args []string) {
			f, err := parseFilters(filters)
			if err != nil {
				fatal("parse filters", err)
			}
			opts := &client.ListOptions{Limit: limit, Offset: offset, Filters: f}
			if err := runList(cmd.Context(), args[0], opts); err != nil {
				fatal("list "+args[0], err)
			}
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Max records to return (1-100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as key=value (repeatable)")
	return cmd
}

func runList(ctx context.Context, table string, opts *client.ListOptions) error {
	switch table {
	case "products":
		return listRecords(ctx, apiClient.Products, opts, productView)
	case "productions":
		return listRecords(ctx, apiClient.Productions, opts, productionView)
	case "processings":
		return listRecords(ctx, apiClient.Processings, opts, processingView)
	case "commercializations":
		return listRecords(ctx, apiClient.Commercializations, opts, commercializationView)
	case "importations":
		return listRecords(ctx, apiClient.Importations, opts, tradeView)
	case "exportations":
		return listRecords(ctx, apiClient.Exportations, opts, tradeView)
	}
	return validTable(table)
}

func listRecords[T any](ctx context.Context, svc *client.TableService[T], opts *client.ListOptions, view recordView[T]) error {
	page, err := svc.List(ctx, opts)
	if err != nil {
		return err
	}
	switch flagFmt {
	case "table":
		formatTable(view.headers, view.rows(page.Records))
		p := page.Pagination
		fmt.Fprintf(os.Stderr, "\n%d-%d of %d\n", min(p.Offset+1, p.Total), p.Offset+len(page.Records), p.Total)
	case "quiet":
		for _, rec := range page.Records {
			formatQuiet(view.row(rec)[0])
		}
	default:
		formatJSON(map[string]any{svc.Table(): page.Records, "pagination": page.Pagination})
	}
	return nil
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Get one record by id",
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validTable(args[0]); err != nil {
				return err
			}
			if id, err := strconv.ParseInt(args[1], 10, 64); err != nil || id < 1 {
				return fmt.Errorf("invalid id %q: want a positive integer", args[1])
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := strconv.ParseInt(args[1], 10, 64) //nolint:errcheck // validated in PreRunE.
			if err := runGet(cmd.Context(), args[0], id); err != nil {
				fatal("get "+args[0], err)
			}
		},
	}
}

func runGet(ctx context.Context, table string, id int64) error {
	switch table {
	case "products":
		return getRecord(ctx, apiClient.Products, id, productView)
	case "productions":
		return getRecord(ctx, apiClient.Productions, id, productionView)
	case "processings":
		return getRecord(ctx, apiClient.Processings, id, processingView)
	case "commercializations":
		return getRecord(ctx, apiClient.Commercializations, id, commercializationView)
	case "importations":
		return getRecord(ctx, apiClient.Importations, id, tradeView)
	case "exportations":
		return getRecord(ctx, apiClient.Exportations, id, tradeView)
	}
	return validTable(table)
}

func getRecord[T any](ctx context.Context, svc *client.TableService[T], id int64, view recordView[T]) error {
	rec, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	if flagFmt == "table" {
		formatTable(view.headers, [][]string{view.row(*rec)})
		return nil
	}
	output(rec, view.row(*rec)[0])
	return nil
}
