package backend

import (
	"fmt"

	"github.com/golang/mock/gomock"
)

// RequestMatcher matches a Request on method and path only, which is what
// handler tests care about when bodies are built from multipart streams.
type RequestMatcher struct {
	Method string
	Path   string
}

var _ gomock.Matcher = RequestMatcher{}

// MatchRequest returns a gomock matcher for method and path.
func MatchRequest(method, path string) RequestMatcher {
	return RequestMatcher{Method: method, Path: path}
}

func (m RequestMatcher) Matches(x interface{}) bool {
	req, ok := x.(Request)
	if !ok {
		return false
	}
	return req.Method == m.Method && req.Path == m.Path
}

func (m RequestMatcher) String() string {
	return fmt.Sprintf("request %s %s", m.Method, m.Path)
}

// JSONResponse builds a response with a literal JSON body for mocks.
func JSONResponse(status int, body string) *Response {
	return &Response{Status: status, Body: []byte(body)}
}
