package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// listFlags are shared by the listing commands and map onto the catalog
// query string.
type listFlags struct {
	q        string
	filters  []string
	sort     string
	order    string
	minCells int64
	maxCells int64
	limit    int
	offset   int
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.q, "query", "q", "", "keyword filter on names")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "category filter key=value (repeatable, e.g. tissue=lung)")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort by recency or name")
	cmd.Flags().StringVar(&f.order, "order", "", "asc or desc")
	cmd.Flags().Int64Var(&f.minCells, "min-cells", -1, "minimum cell count")
	cmd.Flags().Int64Var(&f.maxCells, "max-cells", -1, "maximum cell count")
	cmd.Flags().IntVar(&f.limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "offset")
}

// categories groups the --filter pairs by key, keeping flag order.
func (f *listFlags) categories() (map[string][]string, error) {
	out := make(map[string][]string)
	for _, kv := range f.filters {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("filter %q: want key=value", kv)
		}
		out[key] = append(out[key], strings.TrimSpace(value))
	}
	return out, nil
}

func (f *listFlags) values() (url.Values, error) {
	cats, err := f.categories()
	if err != nil {
		return nil, err
	}
	v := url.Values(cats)
	if f.q != "" {
		v.Set("q", f.q)
	}
	if f.sort != "" {
		v.Set("sort", f.sort)
	}
	if f.order != "" {
		v.Set("order", f.order)
	}
	if f.minCells >= 0 {
		v.Set("min_cell_count", strconv.FormatInt(f.minCells, 10))
	}
	if f.maxCells >= 0 {
		v.Set("max_cell_count", strconv.FormatInt(f.maxCells, 10))
	}
	v.Set("limit", strconv.Itoa(f.limit))
	v.Set("offset", strconv.Itoa(f.offset))
	return v, nil
}

func getJSON(cmd *cobra.Command, path string, q url.Values, token string) error {
	var out any
	if err := doJSON(cmd.Context(), client, http.MethodGet, endpoint(baseURL, path, q), token, nil, &out); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

var (
	collectionsFlags listFlags
	datasetsFlags    listFlags
	facetsFlags      listFlags
	facetsView       string
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collection rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := collectionsFlags.values()
		if err != nil {
			return err
		}
		return getJSON(cmd, "/collections", q, "")
	},
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List dataset rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := datasetsFlags.values()
		if err != nil {
			return err
		}
		return getJSON(cmd, "/datasets", q, "")
	},
}

var collectionDatasetsCmd = &cobra.Command{
	Use:   "collection-datasets <collection-id>",
	Short: "List the dataset rows of one collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getJSON(cmd, "/collections/"+url.PathEscape(args[0])+"/datasets", nil, "")
	},
}

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Show category value counts for the current filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := facetsFlags.values()
		if err != nil {
			return err
		}
		q.Set("view", facetsView)
		return getJSON(cmd, "/facets", q, "")
	},
}

func init() {
	collectionsFlags.register(collectionsCmd)
	datasetsFlags.register(datasetsCmd)
	facetsFlags.register(facetsCmd)
	facetsCmd.Flags().StringVar(&facetsView, "view", "datasets", "datasets or collections")

	rootCmd.AddCommand(collectionsCmd, datasetsCmd, collectionDatasetsCmd, facetsCmd)
}
