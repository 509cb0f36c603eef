package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"cellhub/internal/grpcserver"
)

var (
	grpcAddr     string
	grpcFlags    listFlags
	grpcDatasets bool
)

var grpcCmd = &cobra.Command{
	Use:   "grpc",
	Short: "Query rows through the gRPC portal service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		req, err := grpcFlags.request()
		if err != nil {
			return err
		}
		pc := grpcserver.NewPortalClient(conn)
		if grpcDatasets {
			resp, err := pc.ListDatasetRows(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}
		resp, err := pc.ListCollectionRows(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

// request maps the listing flags onto the gRPC request message.
func (f *listFlags) request() (*grpcserver.ListRowsRequest, error) {
	cats, err := f.categories()
	if err != nil {
		return nil, err
	}
	req := &grpcserver.ListRowsRequest{
		Q:          f.q,
		Categories: cats,
		Sort:       f.sort,
		Order:      f.order,
		Limit:      int32(f.limit),
		Offset:     int32(f.offset),
	}
	if f.minCells >= 0 {
		n := f.minCells
		req.MinCellCount = &n
	}
	if f.maxCells >= 0 {
		n := f.maxCells
		req.MaxCellCount = &n
	}
	return req, nil
}

func init() {
	grpcCmd.Flags().StringVar(&grpcAddr, "addr", "localhost:9090", "gRPC server address")
	grpcCmd.Flags().BoolVar(&grpcDatasets, "datasets", false, "list dataset rows instead of collection rows")
	grpcFlags.register(grpcCmd)
	rootCmd.AddCommand(grpcCmd)
}
