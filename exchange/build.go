// Package exchange turns a target.Target into the transport-level request an
// executor sends. It never sends anything itself.
package exchange

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"

	"github.com/nojima/apitarget/encoding"
	"github.com/nojima/apitarget/target"
	"github.com/nojima/apitarget/version"
	"github.com/pkg/errors"
)

// Request is everything an executor reads off a target to perform it.
type Request struct {
	HTTP     *http.Request
	Validate bool
	// Destination is set only for download tasks.
	Destination target.DownloadDestination
}

func BuildHTTPRequest(t target.Target, options *Options) (*Request, error) {
	if options == nil {
		options = &Options{}
	}

	u, err := URL(t)
	if err != nil {
		return nil, err
	}
	method := t.Method()
	if method == "" {
		return nil, errors.New("HTTP method is missing")
	}

	r, err := http.NewRequest(string(method), u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building HTTP request")
	}
	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("apitarget/%s", version.Current())
	}
	r.Header.Set("User-Agent", userAgent)

	enc := t.ParameterEncoding()
	if enc == nil {
		enc = encoding.Default
	}
	r, err = enc.Encode(r, t.Parameters())
	if err != nil {
		return nil, errors.Wrap(err, "encoding parameters")
	}

	b := &taskBuilder{request: r}
	if err := t.Task().Accept(b); err != nil {
		return nil, err
	}
	return &Request{
		HTTP:        b.request,
		Validate:    t.Validate(),
		Destination: b.destination,
	}, nil
}

// taskBuilder applies the task of a target to its request. An upload body
// replaces whatever body the parameter encoding produced.
type taskBuilder struct {
	request     *http.Request
	destination target.DownloadDestination
}

func (b *taskBuilder) VisitRequest() error {
	return nil
}

func (b *taskBuilder) VisitUpload(u target.UploadType) error {
	return u.Accept(b)
}

func (b *taskBuilder) VisitDownload(d target.DownloadType) error {
	return d.Accept(b)
}

func (b *taskBuilder) VisitDestination(dest target.DownloadDestination) error {
	b.destination = dest
	return nil
}

func (b *taskBuilder) VisitFile(u *url.URL) error {
	if u.Scheme != "" && u.Scheme != "file" {
		return errors.Errorf("upload file must be a file URL: %s", u)
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "reading upload file '%s'", path)
	}
	if info.IsDir() {
		return errors.Errorf("upload file is a directory: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening upload file '%s'", path)
	}

	r := b.request
	r.Body = f
	r.ContentLength = info.Size()
	r.GetBody = func() (io.ReadCloser, error) {
		return os.Open(path)
	}
	r.Header.Set("Content-Type", "application/octet-stream")
	return nil
}

func (b *taskBuilder) VisitMultipart(parts []target.MultipartFormData) error {
	if len(parts) == 0 {
		return errors.New("multipart upload has no parts")
	}
	if !supportsMultipart(target.Method(b.request.Method)) {
		return errors.Errorf("multipart upload is not supported by method %s", b.request.Method)
	}

	var buffer bytes.Buffer
	w := multipart.NewWriter(&buffer)
	for _, part := range parts {
		pw, err := w.CreatePart(partHeader(part))
		if err != nil {
			return errors.Wrapf(err, "creating multipart part '%s'", part.Name)
		}
		if _, err := pw.Write(part.Data); err != nil {
			return errors.Wrapf(err, "writing multipart part '%s'", part.Name)
		}
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing multipart body")
	}

	body := buffer.Bytes()
	r := b.request
	r.Header.Set("Content-Type", w.FormDataContentType())
	r.Body = ioutil.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return ioutil.NopCloser(bytes.NewReader(body)), nil
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(part target.MultipartFormData) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(part.Name))
	if part.FileName != "" {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(part.FileName))
	}
	h.Set("Content-Disposition", disposition)

	mimeType := part.MimeType
	if mimeType == "" && part.FileName != "" {
		mimeType = "application/octet-stream"
	}
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}
	return h
}

func supportsMultipart(m target.Method) bool {
	switch m {
	case target.MethodPost, target.MethodPut, target.MethodPatch, target.MethodConnect:
		return true
	default:
		return false
	}
}
