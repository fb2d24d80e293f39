package input

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nojima/apitarget/download"
	"github.com/nojima/apitarget/encoding"
	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

var (
	reMethod = regexp.MustCompile(`^[a-zA-Z]+$`)
	reScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+-.]*://`)
)

type itemType int

const (
	unknownItem itemType = iota
	httpHeaderItem
	urlParameterItem
	dataFieldItem
	rawJSONFieldItem
	formFileFieldItem
)

type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

func newUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

type bodyKind int

const (
	jsonBody bodyKind = iota
	formBody
)

type field struct {
	name  string
	value string
}

type state struct {
	preferredBody bodyKind
	stdinConsumed bool
	query         url.Values
	params        target.Parameters
	fields        []field
	files         []target.MultipartFormData
}

func ParseArgs(args []string, stdin io.Reader, options *Options) (*Endpoint, error) {
	var argMethod string
	var argURL string
	var argItems []string
	switch len(args) {
	case 0:
		return nil, newUsageError("URL is required")
	case 1:
		argURL = args[0]
	default:
		if reMethod.MatchString(args[0]) {
			argMethod = args[0]
			argURL = args[1]
			argItems = args[2:]
		} else {
			argURL = args[0]
			argItems = args[1:]
		}
	}

	u, err := parseURL(argURL)
	if err != nil {
		return nil, err
	}

	st := state{query: u.Query(), params: target.Parameters{}}
	st.preferredBody, err = determinePreferredBody(options)
	if err != nil {
		return nil, err
	}
	for _, arg := range argItems {
		if err := parseItem(arg, stdin, &st); err != nil {
			return nil, err
		}
	}

	e := &Endpoint{
		baseURL:  &url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host},
		path:     u.Path,
		validate: options.Validate,
	}
	if len(st.query) > 0 {
		e.baseURL.RawQuery = st.query.Encode()
	}

	if options.ReadStdin && !st.stdinConsumed {
		e.sampleData, err = ioutil.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
	}

	if err := buildTask(e, &st, options); err != nil {
		return nil, err
	}

	if argMethod != "" {
		method, err := target.ParseMethod(argMethod)
		if err != nil {
			return nil, err
		}
		e.method = method
	} else {
		e.method = guessMethod(e)
	}
	return e, nil
}

func determinePreferredBody(options *Options) (bodyKind, error) {
	if options.JSON && options.Form {
		return jsonBody, errors.New("You cannot specify both of --json and --form")
	}
	if options.Form {
		return formBody, nil
	}
	return jsonBody, nil
}

// buildTask decides the task and moves parameters into multipart parts when
// files are attached.
func buildTask(e *Endpoint, st *state, options *Options) error {
	kinds := 0
	for _, b := range []bool{options.UploadFile != "", len(st.files) > 0, options.Download} {
		if b {
			kinds++
		}
	}
	if kinds > 1 {
		return errors.New("--upload, form file items and --download cannot be mixed")
	}

	switch {
	case len(st.files) > 0:
		parts := make([]target.MultipartFormData, 0, len(st.fields)+len(st.files))
		for _, f := range st.fields {
			parts = append(parts, target.MultipartFormData{Name: f.name, Data: []byte(f.value)})
		}
		parts = append(parts, st.files...)
		e.task = target.Upload(target.UploadMultipart(parts...))
		e.encoding = encoding.Default
		return nil
	case options.UploadFile != "":
		if len(st.params) > 0 {
			return errors.New("--upload cannot be combined with data field items (use key==value for query parameters)")
		}
		p, err := filepath.Abs(options.UploadFile)
		if err != nil {
			return errors.Wrap(err, "resolving upload file")
		}
		e.task = target.Upload(target.UploadFile(&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}))
	case options.Download:
		dest := download.FileDestination{Options: target.DownloadOptions{RemovePreviousFile: options.Overwrite}}
		if options.OutputFile != "" {
			dest.Dir = filepath.Dir(options.OutputFile)
			dest.FileName = filepath.Base(options.OutputFile)
		}
		e.task = target.Download(target.DownloadRequest(dest))
	default:
		e.task = target.Request()
	}

	if len(st.params) > 0 {
		e.parameters = st.params
	}
	if st.preferredBody == formBody {
		e.encoding = encoding.URLEncoding{Destination: encoding.HTTPBody}
	} else {
		e.encoding = encoding.JSON
	}
	return nil
}

func guessMethod(e *Endpoint) target.Method {
	isPlain := true
	_ = e.task.Accept(methodGuesser{isPlain: &isPlain})
	if isPlain && len(e.parameters) == 0 {
		return target.MethodGet
	}
	return target.MethodPost
}

type methodGuesser struct {
	isPlain *bool
}

func (g methodGuesser) VisitRequest() error                     { return nil }
func (g methodGuesser) VisitDownload(target.DownloadType) error { return nil }
func (g methodGuesser) VisitUpload(target.UploadType) error {
	*g.isPlain = false
	return nil
}

func parseURL(s string) (*url.URL, error) {
	defaultScheme := "http"
	defaultHost := "localhost"

	// ex) :8080/hello or /hello
	if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "/") {
		s = defaultHost + s
	}

	// ex) example.com/hello
	if !reScheme.MatchString(s) {
		s = defaultScheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, newUsageError("Invalid URL: " + s)
	}
	u.Host = strings.TrimSuffix(u.Host, ":")
	if u.Host == "" {
		return nil, newUsageError("Invalid URL: " + s)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

func parseItem(s string, stdin io.Reader, st *state) error {
	itemType, name, value := splitItem(s)
	switch itemType {
	case dataFieldItem:
		value, err := parseFieldValue(name, value, stdin, st)
		if err != nil {
			return err
		}
		st.params[name] = value
		st.fields = append(st.fields, field{name: name, value: value})
	case rawJSONFieldItem:
		if st.preferredBody != jsonBody {
			return errors.New("raw JSON field item cannot be used in non-JSON body")
		}
		value, err := parseFieldValue(name, value, stdin, st)
		if err != nil {
			return err
		}
		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return errors.Errorf("invalid JSON at '%s': %s", name, value)
		}
		st.params[name] = v
	case urlParameterItem:
		value, err := parseFieldValue(name, value, stdin, st)
		if err != nil {
			return err
		}
		st.query.Add(name, value)
	case formFileFieldItem:
		if st.preferredBody != formBody {
			return errors.New("form file field item cannot be used in non-form body (perhaps you meant --form?)")
		}
		data, err := ioutil.ReadFile(value)
		if err != nil {
			return errors.Wrapf(err, "reading form file of '%s'", name)
		}
		st.files = append(st.files, target.MultipartFormData{
			Name:     name,
			FileName: filepath.Base(value),
			Data:     data,
		})
	case httpHeaderItem:
		return errors.Errorf("header items are not part of an endpoint description: %s", s)
	default:
		return errors.Errorf("unknown request item: %s", s)
	}
	return nil
}

func splitItem(s string) (itemType, string, string) {
	for i, c := range s {
		switch c {
		case ':':
			if i+1 < len(s) && s[i+1] == '=' {
				return rawJSONFieldItem, s[:i], s[i+2:]
			} else {
				return httpHeaderItem, s[:i], s[i+1:]
			}
		case '=':
			if i+1 < len(s) && s[i+1] == '=' {
				return urlParameterItem, s[:i], s[i+2:]
			} else {
				return dataFieldItem, s[:i], s[i+1:]
			}
		case '@':
			return formFileFieldItem, s[:i], s[i+1:]
		}
	}
	return unknownItem, "", ""
}

// parseFieldValue resolves "@file" and "@-" (stdin) values.
func parseFieldValue(name, value string, stdin io.Reader, st *state) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	if value[1:] == "-" {
		b, err := ioutil.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrapf(err, "reading stdin for '%s'", name)
		}
		st.stdinConsumed = true
		return string(b), nil
	}
	data, err := ioutil.ReadFile(value[1:])
	if err != nil {
		return "", errors.Wrapf(err, "reading field value of '%s'", name)
	}
	return string(data), nil
}
