package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/surveylens/pkg/server/dto"
	"github.com/soundprediction/surveylens/pkg/types"
)

// ResultSource provides the persisted result tables.
type ResultSource interface {
	Ping() error
	ClusterRows() ([]types.ClusterRow, error)
	Representatives() ([]types.ClusterRow, error)
	Agreement() ([]types.AgreementRecord, error)
	Spectrum() ([]types.ConsensusBucketRecord, error)
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{Error: code, Message: message, Code: status})
}

// writeSourceError maps table read failures: a table that was never
// written is a 404, anything else a 500.
func writeSourceError(c *gin.Context, err error) {
	if errors.Is(err, os.ErrNotExist) {
		writeError(c, http.StatusNotFound, "not_found", "result table has not been written yet")
		return
	}
	writeError(c, http.StatusInternalServerError, "internal_error", err.Error())
}
