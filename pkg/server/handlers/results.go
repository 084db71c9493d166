package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/surveylens/pkg/server/dto"
	"github.com/soundprediction/surveylens/pkg/tableio"
	"github.com/soundprediction/surveylens/pkg/types"
)

// ResultsHandler serves the cluster, agreement and spectrum tables.
type ResultsHandler struct {
	source ResultSource
	logger *slog.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(source ResultSource, logger *slog.Logger) *ResultsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsHandler{source: source, logger: logger}
}

func (h *ResultsHandler) ready(c *gin.Context) bool {
	if h.source == nil {
		writeError(c, http.StatusServiceUnavailable, "unavailable", "no result source configured")
		return false
	}
	return true
}

// ListClusters handles GET /api/v1/clusters
func (h *ResultsHandler) ListClusters(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	rows, err := h.source.ClusterRows()
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Failed to read cluster table", "error", err)
		writeSourceError(c, err)
		return
	}

	byID := make(map[int]*dto.ClusterSummary)
	for _, row := range rows {
		s, ok := byID[row.ClusterID]
		if !ok {
			s = &dto.ClusterSummary{ClusterID: row.ClusterID, ClusterType: row.ClusterType}
			byID[row.ClusterID] = s
		}
		s.Size++
	}
	summaries := make([]dto.ClusterSummary, 0, len(byID))
	for _, s := range byID {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ClusterID < summaries[j].ClusterID })

	c.JSON(http.StatusOK, dto.ClustersResponse{Clusters: summaries, Questions: len(rows)})
}

// GetCluster handles GET /api/v1/clusters/:id
func (h *ResultsHandler) GetCluster(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		writeError(c, http.StatusBadRequest, "invalid_request", "cluster id must be a non-negative integer")
		return
	}
	rows, err := h.source.ClusterRows()
	if err != nil {
		writeSourceError(c, err)
		return
	}

	var members []types.ClusterRow
	for _, row := range rows {
		if row.ClusterID == id {
			members = append(members, row)
		}
	}
	if len(members) == 0 {
		writeError(c, http.StatusNotFound, "not_found", "cluster has no members")
		return
	}
	c.JSON(http.StatusOK, dto.ClusterMembersResponse{ClusterID: id, Members: members})
}

// Representatives handles GET /api/v1/representatives
func (h *ResultsHandler) Representatives(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	rows, err := h.source.Representatives()
	if err != nil {
		writeSourceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: rows})
}

// ListAgreement handles GET /api/v1/agreement?max_jaccard=0.5
// The optional max_jaccard filter keeps the questions labelers disagree on.
func (h *ResultsHandler) ListAgreement(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	maxJaccard := 1.0
	if v := c.Query("max_jaccard"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			writeError(c, http.StatusBadRequest, "invalid_request", "max_jaccard must be a number in [0,1]")
			return
		}
		maxJaccard = parsed
	}

	records, err := h.source.Agreement()
	if err != nil {
		writeSourceError(c, err)
		return
	}

	filtered := make([]types.AgreementRecord, 0, len(records))
	sum := 0.0
	for _, rec := range records {
		sum += rec.MeanPairwiseJaccard
		if rec.MeanPairwiseJaccard <= maxJaccard {
			filtered = append(filtered, rec)
		}
	}
	mean := 1.0
	if len(records) > 0 {
		mean = sum / float64(len(records))
	}
	c.JSON(http.StatusOK, dto.AgreementResponse{Records: filtered, Total: len(records), MeanAgreement: mean})
}

// GetAgreement handles GET /api/v1/agreement/:qid
func (h *ResultsHandler) GetAgreement(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	records, err := h.source.Agreement()
	if err != nil {
		writeSourceError(c, err)
		return
	}
	qid := c.Param("qid")
	for _, rec := range records {
		if rec.QID == qid {
			c.JSON(http.StatusOK, rec)
			return
		}
	}
	writeError(c, http.StatusNotFound, "not_found", "question not found: "+qid)
}

// ListSpectrum handles GET /api/v1/spectrum
func (h *ResultsHandler) ListSpectrum(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	records, err := h.source.Spectrum()
	if err != nil {
		writeSourceError(c, err)
		return
	}
	entries := make([]dto.SpectrumEntry, len(records))
	for i, r := range records {
		entries[i] = spectrumEntry(r)
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: entries})
}

// GetSpectrum handles GET /api/v1/spectrum/:qid
func (h *ResultsHandler) GetSpectrum(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	records, err := h.source.Spectrum()
	if err != nil {
		writeSourceError(c, err)
		return
	}
	qid := c.Param("qid")
	for _, r := range records {
		if r.QID == qid {
			c.JSON(http.StatusOK, spectrumEntry(r))
			return
		}
	}
	writeError(c, http.StatusNotFound, "not_found", "question not found: "+qid)
}

func spectrumEntry(r types.ConsensusBucketRecord) dto.SpectrumEntry {
	k := r.Labelers()
	buckets := make(map[string][]string, k)
	for count := 1; count <= k; count++ {
		tags := r.Bucket(count)
		if tags == nil {
			tags = []string{}
		}
		buckets[tableio.ExactColumn(count, k)] = tags
	}
	return dto.SpectrumEntry{QID: r.QID, Dataset: r.Dataset, Text: r.Text, Buckets: buckets}
}
