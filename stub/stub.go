// Package stub answers requests with the sample data of a target instead of
// reaching the network.
package stub

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

// NewResponse returns a response carrying the sample data of t.
// A zero status means 200.
func NewResponse(t target.SampleDataType, req *http.Request, status int) *http.Response {
	if status == 0 {
		status = http.StatusOK
	}
	data := t.SampleData()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Length": []string{fmt.Sprint(len(data))}},
		Body:          ioutil.NopCloser(bytes.NewReader(data)),
		ContentLength: int64(len(data)),
		Request:       req,
	}
}

// Transport is an http.RoundTripper that responds to every request with the
// sample data of Target.
type Transport struct {
	Target     target.SampleDataType
	StatusCode int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		_, err := io.Copy(ioutil.Discard, req.Body)
		req.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, "reading request body")
		}
	}
	return NewResponse(t.Target, req, t.StatusCode), nil
}
