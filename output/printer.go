// Package output prints endpoint descriptions and the requests built from them.
package output

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/nojima/apitarget/encoding"
	"github.com/nojima/apitarget/exchange"
	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

type Printer interface {
	PrintTarget(name string, t target.Target) error
	PrintRequestLine(r *http.Request) error
	PrintHeader(header http.Header) error
	PrintBody(r *exchange.Request) error
}

// Print writes the parts of r selected by options.
func Print(p Printer, name string, t target.Target, r *exchange.Request, options *Options) error {
	if options.PrintTarget {
		if err := p.PrintTarget(name, t); err != nil {
			return err
		}
	}
	if r == nil {
		return nil
	}
	if options.PrintRequestHeader {
		if err := p.PrintRequestLine(r.HTTP); err != nil {
			return err
		}
		if err := p.PrintHeader(requestHeader(r.HTTP)); err != nil {
			return err
		}
	}
	if options.PrintRequestBody {
		if err := p.PrintBody(r); err != nil {
			return err
		}
	}
	return nil
}

// requestHeader adds the headers net/http derives from the request itself.
func requestHeader(r *http.Request) http.Header {
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if header.Get("Host") == "" {
		header.Set("Host", r.URL.Host)
	}
	if r.ContentLength > 0 {
		header.Set("Content-Length", strconv.FormatInt(r.ContentLength, 10))
	}
	return header
}

func sortedHeaderNames(header http.Header) []string {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readBody returns the body of r without consuming it.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if r.GetBody != nil {
		rc, err := r.GetBody()
		if err != nil {
			return nil, errors.Wrap(err, "reading request body")
		}
		defer rc.Close()
		return ioutil.ReadAll(rc)
	}
	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading request body")
	}
	r.Body.Close()
	r.Body = ioutil.NopCloser(bytes.NewReader(b))
	return b, nil
}

func isBinary(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/octet-stream" || strings.HasPrefix(mediaType, "multipart/")
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

const binaryNote = "+-----------------------------------------+\n" +
	"| NOTE: binary data not shown in terminal |\n" +
	"+-----------------------------------------+\n"

func encodingName(enc target.ParameterEncoding) string {
	switch e := enc.(type) {
	case nil:
		return "url"
	case encoding.URLEncoding:
		switch e.Destination {
		case encoding.QueryString:
			return "url (query)"
		case encoding.HTTPBody:
			return "url (body)"
		default:
			return "url"
		}
	case encoding.JSONEncoding:
		return "json"
	default:
		return "custom"
	}
}

func marshalParameters(params target.Parameters, indent bool) (string, error) {
	if params == nil {
		return "none", nil
	}
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if indent {
		encoder.SetIndent("    ", "    ")
	}
	if err := encoder.Encode(params); err != nil {
		return "", errors.Wrap(err, "encoding parameters")
	}
	return strings.TrimSuffix(buffer.String(), "\n"), nil
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
