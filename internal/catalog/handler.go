// Package catalog serves collection and dataset rows over HTTP.
package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cellhub/internal/portal"
	"cellhub/internal/querycache"
	"cellhub/pkg/logutils"
)

type Handler struct {
	Portal *portal.Service
}

func NewHandler(svc *portal.Service) *Handler {
	return &Handler{Portal: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/collections", h.listCollections)                 // GET /collections
	rg.GET("/collections/:id/datasets", h.collectionDatasets) // GET /collections/:id/datasets
	rg.GET("/datasets", h.listDatasets)                       // GET /datasets
	rg.GET("/facets", h.facets)                               // GET /facets?view=datasets
}

// RegisterAdminRoutes mounts the cache controls; rg should carry auth.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/cache", h.cacheStatus)
	rg.POST("/cache/invalidate", h.invalidate)
}

func (h *Handler) listDatasets(c *gin.Context) {
	page, err := h.Portal.ListDatasetRows(c.Request.Context(), parseListQuery(c))
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) listCollections(c *gin.Context) {
	page, err := h.Portal.ListCollectionRows(c.Request.Context(), parseListQuery(c))
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) collectionDatasets(c *gin.Context) {
	id := c.Param("id")
	rows, err := h.Portal.CollectionDatasets(c.Request.Context(), id)
	if errors.Is(err, portal.ErrCollectionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collection_id": id,
		"total":         len(rows),
		"items":         rows,
	})
}

func (h *Handler) facets(c *gin.Context) {
	q := parseListQuery(c)
	switch c.DefaultQuery("view", "datasets") {
	case "datasets":
		idx, err := h.Portal.DatasetFacets(c.Request.Context())
		if err != nil {
			upstreamError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"view":   "datasets",
			"total":  len(idx.Filter(q.Selection)),
			"facets": idx.Counts(q.Selection),
		})
	case "collections":
		idx, err := h.Portal.CollectionFacets(c.Request.Context())
		if err != nil {
			upstreamError(c, err)
			return
		}
		// collection rows carry no cell count
		q.Selection.CellCount = nil
		c.JSON(http.StatusOK, gin.H{
			"view":   "collections",
			"total":  len(idx.Filter(q.Selection)),
			"facets": idx.Counts(q.Selection),
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be datasets or collections"})
	}
}

type keyStatus struct {
	Key        string `json:"key"`
	Status     string `json:"status"`
	Generation uint64 `json:"generation,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (h *Handler) cacheStatus(c *gin.Context) {
	cache := h.Portal.Cache()
	out := make([]keyStatus, 0, 2)
	for _, key := range []querycache.Key{portal.CollectionsKey, portal.DatasetsKey} {
		snap := cache.Peek(key)
		ks := keyStatus{Key: key.String(), Status: snap.Status.String(), Generation: snap.Generation}
		if snap.Err != nil {
			ks.Error = snap.Err.Error()
		}
		out = append(out, ks)
	}
	c.JSON(http.StatusOK, gin.H{"keys": out})
}

func (h *Handler) invalidate(c *gin.Context) {
	h.Portal.Invalidate()
	logutils.Component("http").WithField("request_id", c.GetString(CtxRequestIDKey)).Info("cache invalidated")
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

func upstreamError(c *gin.Context, err error) {
	if err != nil {
		logutils.Component("http").WithFields(logutils.Fields{
			"request_id": c.GetString(CtxRequestIDKey),
			"error":      err,
		}).Warn("portal data unavailable")
	}
	if c.Request.Context().Err() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled while loading"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "portal data unavailable"})
}
