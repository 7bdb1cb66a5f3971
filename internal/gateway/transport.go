package gateway

import (
	"net/http"
	"net/http/httptest"
)

// inProcessBaseURL addresses the handler transport; the host is never dialed.
const inProcessBaseURL = "http://in-process"

// handlerTransport serves requests with a co-located handler instead of the
// network.
type handlerTransport struct {
	handler http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}
