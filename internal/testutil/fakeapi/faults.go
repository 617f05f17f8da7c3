package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Fault replaces or delays the response of one route. Routes are named by
// method and gin pattern relative to APIPrefix, for example
// "GET /companies/:company_id/inventory/valuation".
type Fault struct {
	Status  int    // Error status to answer with; 0 lets the handler run after Delay
	Code    string // Error code, derived from Status when empty
	Message string
	Body    []byte        // Raw body sent instead of an error, with Status or 200
	Delay   time.Duration // Wait before answering; aborted if the client gives up
	Times   int           // Number of requests affected, 0 for all until cleared
}

// SentEmail records one purchase order email
type SentEmail struct {
	CompanyID string
	OrderID   string
	To        []string
	Subject   string
}

// Route joins a method and a route pattern into a fault key
func Route(method, pattern string) string {
	return method + " " + pattern
}

// Inject installs a fault for a route, replacing any previous one
func (s *Server) Inject(route string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = &f
}

// ClearFaults removes every injected fault
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.faults)
}

// Calls returns how many requests reached a route, faulted or not
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Emails returns the purchase order emails sent so far
func (s *Server) Emails() []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentEmail(nil), s.emails...)
}

func (s *Server) takeFault(route string) (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[route]++
	f, ok := s.faults[route]
	if !ok {
		return Fault{}, false
	}
	if f.Times > 0 {
		f.Times--
		if f.Times == 0 {
			delete(s.faults, route)
		}
	}
	return *f, true
}

func (s *Server) faultInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := Route(c.Request.Method, strings.TrimPrefix(c.FullPath(), APIPrefix))
		f, ok := s.takeFault(route)
		if !ok {
			c.Next()
			return
		}

		if f.Delay > 0 {
			t := time.NewTimer(f.Delay)
			select {
			case <-t.C:
			case <-c.Request.Context().Done():
				t.Stop()
				c.Abort()
				return
			}
		}

		switch {
		case f.Body != nil:
			status := f.Status
			if status == 0 {
				status = http.StatusOK
			}
			c.Data(status, "application/json", f.Body)
			c.Abort()
		case f.Status != 0:
			code := f.Code
			if code == "" {
				code = codeForStatus(f.Status)
			}
			msg := f.Message
			if msg == "" {
				msg = http.StatusText(f.Status)
			}
			fail(c, f.Status, code, msg)
		default:
			c.Next()
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodeValidation
	default:
		return CodeInternal
	}
}
