package fakeapi

import (
	"net/http/httptest"
	"testing"
)

// Start runs a seeded Server on a local port for the duration of the test and
// returns it with the base URL clients should use.
func Start(t testing.TB, opts Options) (*Server, string) {
	t.Helper()
	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts.URL + APIPrefix
}
