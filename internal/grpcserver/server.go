package grpcserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cellhub/internal/filter"
	"cellhub/internal/portal"
	"cellhub/pkg/logutils"
	"cellhub/pkg/models"
)

type Server struct {
	Portal *portal.Service
}

func NewServer(svc *portal.Service) *Server {
	return &Server{Portal: svc}
}

func (s *Server) ListCollectionRows(ctx context.Context, req *ListRowsRequest) (*ListCollectionRowsResponse, error) {
	q, err := toListQuery(req)
	if err != nil {
		return nil, err
	}
	page, err := s.Portal.ListCollectionRows(ctx, q)
	if err != nil {
		return nil, portalError(ctx, err)
	}
	return &ListCollectionRowsResponse{
		Total:  int32(page.Total),
		Limit:  int32(page.Limit),
		Offset: int32(page.Offset),
		Items:  page.Items,
	}, nil
}

func (s *Server) ListDatasetRows(ctx context.Context, req *ListRowsRequest) (*ListDatasetRowsResponse, error) {
	q, err := toListQuery(req)
	if err != nil {
		return nil, err
	}
	page, err := s.Portal.ListDatasetRows(ctx, q)
	if err != nil {
		return nil, portalError(ctx, err)
	}
	return &ListDatasetRowsResponse{
		Total:  int32(page.Total),
		Limit:  int32(page.Limit),
		Offset: int32(page.Offset),
		Items:  page.Items,
	}, nil
}

func (s *Server) ListCollectionDatasets(ctx context.Context, req *ListCollectionDatasetsRequest) (*ListDatasetRowsResponse, error) {
	if req == nil || strings.TrimSpace(req.CollectionID) == "" {
		return nil, status.Error(codes.InvalidArgument, "collection_id required")
	}

	rows, err := s.Portal.CollectionDatasets(ctx, strings.TrimSpace(req.CollectionID))
	if errors.Is(err, portal.ErrCollectionNotFound) {
		return nil, status.Error(codes.NotFound, "not found")
	}
	if err != nil {
		return nil, portalError(ctx, err)
	}
	return &ListDatasetRowsResponse{
		Total: int32(len(rows)),
		Limit: int32(len(rows)),
		Items: rows,
	}, nil
}

func toListQuery(req *ListRowsRequest) (portal.ListQuery, error) {
	if req == nil {
		return portal.ListQuery{}, status.Error(codes.InvalidArgument, "request required")
	}

	sel := filter.Selection{Categories: make(map[models.CategoryKey][]string)}
	for name, values := range req.Categories {
		key, ok := models.ParseCategoryKey(name)
		if !ok {
			return portal.ListQuery{}, status.Errorf(codes.InvalidArgument, "unknown category %q", name)
		}
		sel.Categories[key] = values
	}
	if req.MinCellCount != nil || req.MaxCellCount != nil {
		sel.CellCount = &filter.Range{Min: req.MinCellCount, Max: req.MaxCellCount}
	}

	q := portal.ListQuery{
		Q:         req.Q,
		Selection: sel,
		Sort:      portal.SortRecency,
		Desc:      true,
		Limit:     int(req.Limit),
		Offset:    int(req.Offset),
	}
	switch req.Sort {
	case "", portal.SortRecency:
	case portal.SortName:
		q.Sort = portal.SortName
		q.Desc = false
	default:
		return portal.ListQuery{}, status.Errorf(codes.InvalidArgument, "unknown sort %q", req.Sort)
	}
	switch strings.ToLower(req.Order) {
	case "asc":
		q.Desc = false
	case "desc":
		q.Desc = true
	}
	return q.Normalize(), nil
}

func portalError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return status.FromContextError(ctx.Err()).Err()
	}
	logutils.Component("grpc").WithError(err).Warn("portal data unavailable")
	return status.Error(codes.Unavailable, "portal data unavailable")
}

// UnaryLogger logs one line per call.
func UnaryLogger() grpc.UnaryServerInterceptor {
	log := logutils.Component("grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithFields(logutils.Fields{
			"method": info.FullMethod,
			"code":   status.Code(err).String(),
			"took":   time.Since(start).String(),
		})
		if err != nil {
			entry.Warn("call failed")
		} else {
			entry.Info("call")
		}
		return resp, err
	}
}
