// Package httpx holds the gin helpers shared by the HTTP handlers.
package httpx

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorResponse struct {
	Error string        `json:"error"`
	Kind  apperror.Kind `json:"kind"`
}

// StatusFor maps an error to its HTTP status through the gRPC code its kind carries.
func StatusFor(err error) int {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch st.Code() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict
	case codes.DeadlineExceeded, codes.Canceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as the JSON error body. Storage failures are logged and their
// cause is not echoed to the client.
func Error(c *gin.Context, log logger.ZapLogger, err error, requestInfo string) {
	kind := apperror.KindOf(err)
	httpStatus := StatusFor(err)
	msg := err.Error()

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	if kind == apperror.StorageError {
		log.Error("request failed",
			zap.String("request", requestInfo),
			zap.String("request_id", RequestID(c)),
			zap.Error(err),
		)
		msg = "internal storage error, please retry"
	} else {
		log.Debug("request rejected",
			zap.String("request", requestInfo),
			zap.String("kind", string(kind)),
			zap.String("error", msg),
		)
	}

	c.AbortWithStatusJSON(httpStatus, ErrorResponse{Error: msg, Kind: kind})
}

// BadRequest reports a request that could not be decoded.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: apperror.InvalidValue})
}
