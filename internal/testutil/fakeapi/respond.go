package fakeapi

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/erp/books/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Error codes sent in the {"error":{...}} body
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeTransition   = "INVALID_TRANSITION"
	CodeInternal     = "INTERNAL_ERROR"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	defaultPageSize = 20
	maxPageSize     = 100
)

type errorDetail struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	RequestID string              `json:"request_id,omitempty"`
	Fields    []shared.FieldError `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// listResponse is the list envelope every collection endpoint returns
type listResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(requestIDKey),
	}})
}

func notFound(c *gin.Context, what string) {
	fail(c, http.StatusNotFound, CodeNotFound, what+" not found")
}

func conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, CodeConflict, message)
}

// invalid answers 422 for a validation failure, listing field errors when the
// error carries them.
func invalid(c *gin.Context, err error) {
	detail := errorDetail{Code: CodeValidation, Message: err.Error(), RequestID: c.GetString(requestIDKey)}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		detail.Fields = verr.Fields
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Error: detail})
}

// bind decodes the JSON body into dst, answering 400 on malformed JSON
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// check runs struct validation and any extra checks, answering 422 on the
// first failure.
func (s *Server) check(c *gin.Context, v any, extra ...func() error) bool {
	if err := s.validator.Struct(v); err != nil {
		invalid(c, err)
		return false
	}
	for _, fn := range extra {
		if err := fn(); err != nil {
			invalid(c, err)
			return false
		}
	}
	return true
}

// paginate filters rows by the search term, applies sort_order and answers
// with one page of the list envelope.
func paginate[T any](c *gin.Context, rows []T, search func(T) string) {
	if term := strings.ToLower(strings.TrimSpace(c.Query("search"))); term != "" && search != nil {
		rows = slices.DeleteFunc(rows, func(r T) bool {
			return !strings.Contains(strings.ToLower(search(r)), term)
		})
	}
	if strings.EqualFold(c.Query("sort_order"), "desc") {
		slices.Reverse(rows)
	}

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := queryInt(c, "page_size", defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	size = min(size, maxPageSize)

	total := len(rows)
	start := min((page-1)*size, total)
	end := min(start+size, total)

	c.JSON(http.StatusOK, listResponse[T]{
		Items:    append([]T{}, rows[start:end]...),
		Total:    int64(total),
		Page:     page,
		PageSize: size,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// requestID echoes or assigns the correlation ID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}
