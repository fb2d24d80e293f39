// Package encoding provides target.ParameterEncoding strategies.
package encoding

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

var (
	// Default puts parameters in the query string or a form body depending on the method.
	Default target.ParameterEncoding = URLEncoding{}
	// JSON writes parameters as a JSON object body.
	JSON target.ParameterEncoding = JSONEncoding{}
)

var errNilRequest = errors.New("encoding parameters into nil request")

func setBody(r *http.Request, body []byte, contentType string) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.Body = ioutil.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return ioutil.NopCloser(bytes.NewReader(body)), nil
	}
}

// clone copies r so that encoding never mutates the caller's request.
func clone(r *http.Request) *http.Request {
	c := r.Clone(r.Context())
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	return c
}
