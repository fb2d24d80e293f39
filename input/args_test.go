package input

import (
	"io/ioutil"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nojima/apitarget/download"
	"github.com/nojima/apitarget/encoding"
	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

type taskRecorder struct {
	kind  string
	file  *url.URL
	parts []target.MultipartFormData
	dest  target.DownloadDestination
}

func (r *taskRecorder) VisitRequest() error { r.kind = "request"; return nil }
func (r *taskRecorder) VisitUpload(u target.UploadType) error {
	r.kind = "upload"
	return u.Accept(r)
}
func (r *taskRecorder) VisitDownload(d target.DownloadType) error {
	r.kind = "download"
	return d.Accept(r)
}
func (r *taskRecorder) VisitFile(u *url.URL) error { r.file = u; return nil }
func (r *taskRecorder) VisitMultipart(parts []target.MultipartFormData) error {
	r.parts = parts
	return nil
}
func (r *taskRecorder) VisitDestination(d target.DownloadDestination) error { r.dest = d; return nil }

func record(t *testing.T, task target.Task) *taskRecorder {
	r := &taskRecorder{}
	if err := task.Accept(r); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	return r
}

func makeFile(t *testing.T, name, content string) string {
	p := filepath.Join(t.TempDir(), name)
	if err := ioutil.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return p
}

func TestParseArgs(t *testing.T) {
	testCases := []struct {
		title            string
		args             []string
		expectedMethod   target.Method
		expectedBaseURL  string
		expectedPath     string
		expectedParams   target.Parameters
		expectedEncoding target.ParameterEncoding
		shouldBeError    bool
	}{
		{
			title:            "Happy case",
			args:             []string{"GET", "http://example.com/hello"},
			expectedMethod:   target.MethodGet,
			expectedBaseURL:  "http://example.com",
			expectedPath:     "/hello",
			expectedEncoding: encoding.JSON,
		},
		{
			title:            "Guessed POST with fields",
			args:             []string{"example.com/users", "name=alice", "age:=42"},
			expectedMethod:   target.MethodPost,
			expectedBaseURL:  "http://example.com",
			expectedPath:     "/users",
			expectedParams:   target.Parameters{"name": "alice", "age": float64(42)},
			expectedEncoding: encoding.JSON,
		},
		{
			title:            "Query items go to the base URL",
			args:             []string{"https://example.com/search?lang=go", "q==gopher"},
			expectedMethod:   target.MethodGet,
			expectedBaseURL:  "https://example.com?lang=go&q=gopher",
			expectedPath:     "/search",
			expectedEncoding: encoding.JSON,
		},
		{
			title:            "Lower case method",
			args:             []string{"delete", ":8080/users/42"},
			expectedMethod:   target.MethodDelete,
			expectedBaseURL:  "http://localhost:8080",
			expectedPath:     "/users/42",
			expectedEncoding: encoding.JSON,
		},
		{
			title:         "Invalid method",
			args:          []string{"GET/POST", "http://example.com/hello"},
			shouldBeError: true,
		},
		{
			title:         "URL missing",
			args:          []string{},
			shouldBeError: true,
		},
		{
			title:         "Header item",
			args:          []string{"example.com", "X-Foo:bar"},
			shouldBeError: true,
		},
		{
			title:         "Unknown item",
			args:          []string{"example.com", "bogus"},
			shouldBeError: true,
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			e, err := ParseArgs(tt.args, strings.NewReader(""), &Options{})
			if (err != nil) != tt.shouldBeError {
				t.Fatalf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if err != nil {
				return
			}
			if e.Method() != tt.expectedMethod {
				t.Errorf("unexpected method: expected=%s, actual=%s", tt.expectedMethod, e.Method())
			}
			if e.BaseURL().String() != tt.expectedBaseURL {
				t.Errorf("unexpected base URL: expected=%s, actual=%s", tt.expectedBaseURL, e.BaseURL())
			}
			if e.Path() != tt.expectedPath {
				t.Errorf("unexpected path: expected=%s, actual=%s", tt.expectedPath, e.Path())
			}
			if !reflect.DeepEqual(e.Parameters(), tt.expectedParams) {
				t.Errorf("unexpected parameters: expected=%+v, actual=%+v", tt.expectedParams, e.Parameters())
			}
			if e.ParameterEncoding() != tt.expectedEncoding {
				t.Errorf("unexpected encoding: expected=%#v, actual=%#v", tt.expectedEncoding, e.ParameterEncoding())
			}
			if e.Validate() {
				t.Errorf("unexpected validate: expected=%v, actual=%v", false, e.Validate())
			}
		})
	}
}

func TestParseArgs_UsageError(t *testing.T) {
	_, err := ParseArgs(nil, strings.NewReader(""), &Options{})
	if _, ok := errors.Cause(err).(*UsageError); !ok {
		t.Errorf("unexpected error: expected UsageError, actual=%v", err)
	}
}

func TestParseArgs_Form(t *testing.T) {
	e, err := ParseArgs([]string{"example.com/login", "user=alice"}, strings.NewReader(""), &Options{Form: true, Validate: true})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	expectedEncoding := encoding.URLEncoding{Destination: encoding.HTTPBody}
	if e.ParameterEncoding() != expectedEncoding {
		t.Errorf("unexpected encoding: expected=%#v, actual=%#v", expectedEncoding, e.ParameterEncoding())
	}
	if !e.Validate() {
		t.Errorf("unexpected validate: expected=%v, actual=%v", true, e.Validate())
	}
	if _, err := ParseArgs([]string{"example.com", "a:=1"}, strings.NewReader(""), &Options{Form: true}); err == nil {
		t.Errorf("raw JSON in a form body should be rejected")
	}
	if _, err := ParseArgs([]string{"example.com"}, strings.NewReader(""), &Options{Form: true, JSON: true}); err == nil {
		t.Errorf("--json and --form should be rejected together")
	}
}

func TestParseArgs_Multipart(t *testing.T) {
	// Setup
	fileName := makeFile(t, "avatar.png", "PNG")
	args := []string{"example.com/me", "caption=hello", "avatar@" + fileName}

	// Exercise
	e, err := ParseArgs(args, strings.NewReader(""), &Options{Form: true})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if e.Method() != target.MethodPost {
		t.Errorf("unexpected method: expected=%s, actual=%s", target.MethodPost, e.Method())
	}
	if e.Parameters() != nil {
		t.Errorf("parameters should move into parts: %v", e.Parameters())
	}
	r := record(t, e.Task())
	expected := []target.MultipartFormData{
		{Name: "caption", Data: []byte("hello")},
		{Name: "avatar", FileName: "avatar.png", Data: []byte("PNG")},
	}
	if diff := cmp.Diff(expected, r.parts); diff != "" {
		t.Errorf("unexpected parts (-expected +actual):\n%s", diff)
	}

	if _, err := ParseArgs(args, strings.NewReader(""), &Options{}); err == nil {
		t.Errorf("file item without --form should be rejected")
	}
}

func TestParseArgs_UploadFile(t *testing.T) {
	fileName := makeFile(t, "payload.bin", "data")

	e, err := ParseArgs([]string{"PUT", "example.com/files"}, strings.NewReader(""), &Options{UploadFile: fileName})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	r := record(t, e.Task())
	if r.kind != "upload" || r.file == nil || filepath.FromSlash(r.file.Path) != fileName {
		t.Errorf("unexpected task: kind=%s, file=%v", r.kind, r.file)
	}
}

func TestParseArgs_UploadFileWithItems(t *testing.T) {
	fileName := makeFile(t, "payload.bin", "data")

	e, err := ParseArgs([]string{"PUT", "example.com/files", "v==2"}, strings.NewReader(""), &Options{UploadFile: fileName})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if e.BaseURL().RawQuery != "v=2" {
		t.Errorf("unexpected query: expected=%s, actual=%s", "v=2", e.BaseURL().RawQuery)
	}
	if e.Parameters() != nil {
		t.Errorf("unexpected parameters: %v", e.Parameters())
	}

	// Fields would be dropped by the file body.
	for _, item := range []string{"name=alice", "age:=3"} {
		if _, err := ParseArgs([]string{"PUT", "example.com/files", item}, strings.NewReader(""), &Options{UploadFile: fileName}); err == nil {
			t.Errorf("--upload with %s should be rejected", item)
		}
	}
}

func TestParseArgs_Download(t *testing.T) {
	e, err := ParseArgs([]string{"example.com/files/report.pdf"}, strings.NewReader(""), &Options{
		Download:   true,
		OutputFile: filepath.Join("out", "r.pdf"),
		Overwrite:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if e.Method() != target.MethodGet {
		t.Errorf("unexpected method: expected=%s, actual=%s", target.MethodGet, e.Method())
	}
	r := record(t, e.Task())
	expected := download.FileDestination{
		Dir:      "out",
		FileName: "r.pdf",
		Options:  target.DownloadOptions{RemovePreviousFile: true},
	}
	if r.dest != expected {
		t.Errorf("unexpected destination: expected=%+v, actual=%+v", expected, r.dest)
	}

	if _, err := ParseArgs([]string{"example.com"}, strings.NewReader(""), &Options{Download: true, UploadFile: "x"}); err == nil {
		t.Errorf("--download and --upload should be rejected together")
	}
}

func TestParseArgs_Stdin(t *testing.T) {
	e, err := ParseArgs([]string{"example.com/users/42"}, strings.NewReader(`{"id": 42}`), &Options{ReadStdin: true})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if string(e.SampleData()) != `{"id": 42}` {
		t.Errorf("unexpected sample data: %s", e.SampleData())
	}

	e, err = ParseArgs([]string{"example.com/notes", "body=@-"}, strings.NewReader("from stdin"), &Options{ReadStdin: true})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if e.SampleData() != nil {
		t.Errorf("consumed stdin should not become sample data: %s", e.SampleData())
	}
	if e.Parameters()["body"] != "from stdin" {
		t.Errorf("unexpected parameter: %v", e.Parameters()["body"])
	}
}

func TestParseItem(t *testing.T) {
	fileName := makeFile(t, "world.txt", "file world")
	testCases := []struct {
		title          string
		input          string
		expectedParams target.Parameters
		expectedQuery  url.Values
		shouldBeError  bool
	}{
		{
			title:          "Data field",
			input:          "hello=world",
			expectedParams: target.Parameters{"hello": "world"},
		},
		{
			title:          "Data field with empty value",
			input:          "hello=",
			expectedParams: target.Parameters{"hello": ""},
		},
		{
			title:          "Data field from file",
			input:          "hello=@" + fileName,
			expectedParams: target.Parameters{"hello": "file world"},
		},
		{
			title:          "Raw JSON field",
			input:          `hello:=[1, true, "world"]`,
			expectedParams: target.Parameters{"hello": []interface{}{float64(1), true, "world"}},
		},
		{
			title:         "Raw JSON field with invalid JSON",
			input:         `hello:={invalid: JSON}`,
			shouldBeError: true,
		},
		{
			title:          "URL parameter",
			input:          "hello==world",
			expectedParams: target.Parameters{},
			expectedQuery:  url.Values{"hello": []string{"world"}},
		},
		{
			title:          "URL parameter with empty value",
			input:          "hello==",
			expectedParams: target.Parameters{},
			expectedQuery:  url.Values{"hello": []string{""}},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			st := state{query: url.Values{}, params: target.Parameters{}}
			err := parseItem(tt.input, strings.NewReader(""), &st)
			if (err != nil) != tt.shouldBeError {
				t.Fatalf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(st.params, tt.expectedParams) {
				t.Errorf("unexpected parameters: expected=%+v, actual=%+v", tt.expectedParams, st.params)
			}
			expectedQuery := tt.expectedQuery
			if expectedQuery == nil {
				expectedQuery = url.Values{}
			}
			if !reflect.DeepEqual(st.query, expectedQuery) {
				t.Errorf("unexpected query: expected=%+v, actual=%+v", expectedQuery, st.query)
			}
		})
	}
}

func TestParseURL(t *testing.T) {
	testCases := []struct {
		title    string
		input    string
		expected url.URL
	}{
		{
			title:    "Typical case",
			input:    "http://example.com/hello/world",
			expected: url.URL{Scheme: "http", Host: "example.com", Path: "/hello/world"},
		},
		{
			title:    "No scheme",
			input:    "example.com/hello/world",
			expected: url.URL{Scheme: "http", Host: "example.com", Path: "/hello/world"},
		},
		{
			title:    "No host and port",
			input:    "/hello/world",
			expected: url.URL{Scheme: "http", Host: "localhost", Path: "/hello/world"},
		},
		{
			title:    "Only colon",
			input:    ":",
			expected: url.URL{Scheme: "http", Host: "localhost", Path: "/"},
		},
		{
			title:    "No host but has port",
			input:    ":8080/hello/world",
			expected: url.URL{Scheme: "http", Host: "localhost:8080", Path: "/hello/world"},
		},
		{
			title:    "Has query parameters",
			input:    "http://example.com/?q=hello&lang=ja",
			expected: url.URL{Scheme: "http", Host: "example.com", Path: "/", RawQuery: "q=hello&lang=ja"},
		},
		{
			title:    "No path",
			input:    "https://example.com",
			expected: url.URL{Scheme: "https", Host: "example.com", Path: "/"},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			u, err := parseURL(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: err=%v", err)
			}
			if !reflect.DeepEqual(*u, tt.expected) {
				t.Errorf("unexpected result: expected=%+v, actual=%+v", tt.expected, *u)
			}
		})
	}
}
