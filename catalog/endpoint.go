package catalog

import (
	"fmt"
	"io/ioutil"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/nojima/apitarget/download"
	"github.com/nojima/apitarget/encoding"
	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

// Endpoint is a catalog entry. It implements target.Target.
type Endpoint struct {
	name       string
	baseURL    *url.URL
	path       string
	method     target.Method
	parameters target.Parameters
	encoding   target.ParameterEncoding
	sampleData []byte
	task       target.Task
	validate   *bool
}

var _ target.Target = (*Endpoint)(nil)

func (e *Endpoint) Name() string { return e.name }

func (e *Endpoint) BaseURL() *url.URL {
	u := *e.baseURL
	return &u
}

func (e *Endpoint) Path() string                                { return e.path }
func (e *Endpoint) Method() target.Method                       { return e.method }
func (e *Endpoint) Parameters() target.Parameters               { return e.parameters }
func (e *Endpoint) ParameterEncoding() target.ParameterEncoding { return e.encoding }
func (e *Endpoint) SampleData() []byte                          { return e.sampleData }
func (e *Endpoint) Task() target.Task                           { return e.task }

func (e *Endpoint) Validate() bool {
	if e.validate == nil {
		return target.DefaultValidate()
	}
	return *e.validate
}

type endpointSpec struct {
	Name       string                 `yaml:"name"`
	BaseURL    string                 `yaml:"base_url"`
	Method     string                 `yaml:"method"`
	Path       string                 `yaml:"path"`
	Encoding   string                 `yaml:"encoding"`
	Parameters map[string]interface{} `yaml:"parameters"`
	Sample     string                 `yaml:"sample"`
	SampleFile string                 `yaml:"sample_file"`
	Validate   *bool                  `yaml:"validate"`
	Task       *taskSpec              `yaml:"task"`
}

type taskSpec struct {
	UploadFile string        `yaml:"upload_file"`
	Multipart  []partSpec    `yaml:"multipart"`
	Download   *downloadSpec `yaml:"download"`
}

type partSpec struct {
	Name     string `yaml:"name"`
	FileName string `yaml:"file_name"`
	MimeType string `yaml:"mime_type"`
	Value    string `yaml:"value"`
	File     string `yaml:"file"`
}

type downloadSpec struct {
	Dir        string `yaml:"dir"`
	FileName   string `yaml:"file_name"`
	CreateDirs bool   `yaml:"create_dirs"`
	Overwrite  bool   `yaml:"overwrite"`
}

func (s endpointSpec) build(defaultBaseURL, dir string) (*Endpoint, error) {
	rawBase := s.BaseURL
	if rawBase == "" {
		rawBase = defaultBaseURL
	}
	baseURL, err := parseBaseURL(rawBase)
	if err != nil {
		return nil, err
	}

	method := target.MethodGet
	if s.Method != "" {
		method, err = target.ParseMethod(s.Method)
		if err != nil {
			return nil, err
		}
	}

	enc, err := parseEncoding(s.Encoding)
	if err != nil {
		return nil, err
	}

	sample := []byte(s.Sample)
	if s.SampleFile != "" {
		if s.Sample != "" {
			return nil, errors.New("sample and sample_file cannot be mixed")
		}
		sample, err = ioutil.ReadFile(resolve(dir, s.SampleFile))
		if err != nil {
			return nil, errors.Wrap(err, "reading sample_file")
		}
	}

	task, err := s.Task.build(dir)
	if err != nil {
		return nil, err
	}

	var params target.Parameters
	if s.Parameters != nil {
		params = make(target.Parameters, len(s.Parameters))
		for key, value := range s.Parameters {
			v, err := normalizeParameter(key, value)
			if err != nil {
				return nil, err
			}
			params[key] = v
		}
	}

	return &Endpoint{
		name:       s.Name,
		baseURL:    baseURL,
		path:       s.Path,
		method:     method,
		parameters: params,
		encoding:   enc,
		sampleData: sample,
		task:       task,
		validate:   s.Validate,
	}, nil
}

func parseBaseURL(s string) (*url.URL, error) {
	if s == "" {
		return nil, errors.New("base_url is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing base_url")
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, errors.Errorf("base_url must be an absolute URL: %s", s)
	}
	return u, nil
}

func parseEncoding(s string) (target.ParameterEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "url":
		return encoding.Default, nil
	case "query":
		return encoding.URLEncoding{Destination: encoding.QueryString}, nil
	case "body", "form":
		return encoding.URLEncoding{Destination: encoding.HTTPBody}, nil
	case "json":
		return encoding.JSON, nil
	default:
		return nil, errors.Errorf("unknown encoding: %s", s)
	}
}

func (s *taskSpec) build(dir string) (target.Task, error) {
	if s == nil {
		return target.Request(), nil
	}

	kinds := 0
	if s.UploadFile != "" {
		kinds++
	}
	if len(s.Multipart) > 0 {
		kinds++
	}
	if s.Download != nil {
		kinds++
	}
	if kinds != 1 {
		return nil, errors.New("task must be exactly one of upload_file, multipart and download")
	}

	switch {
	case s.UploadFile != "":
		p, err := filepath.Abs(resolve(dir, s.UploadFile))
		if err != nil {
			return nil, errors.Wrap(err, "resolving upload_file")
		}
		return target.Upload(target.UploadFile(&url.URL{Scheme: "file", Path: filepath.ToSlash(p)})), nil
	case len(s.Multipart) > 0:
		parts := make([]target.MultipartFormData, 0, len(s.Multipart))
		for _, ps := range s.Multipart {
			part, err := ps.build(dir)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return target.Upload(target.UploadMultipart(parts...)), nil
	case s.Download != nil:
		dest := download.FileDestination{
			Dir:      s.Download.Dir,
			FileName: s.Download.FileName,
			Options: target.DownloadOptions{
				CreateIntermediateDirectories: s.Download.CreateDirs,
				RemovePreviousFile:            s.Download.Overwrite,
			},
		}
		if dest.Dir != "" {
			dest.Dir = resolve(dir, dest.Dir)
		}
		return target.Download(target.DownloadRequest(dest)), nil
	default:
		return target.Request(), nil
	}
}

func (s partSpec) build(dir string) (target.MultipartFormData, error) {
	if s.Name == "" {
		return target.MultipartFormData{}, errors.New("multipart part has no name")
	}
	part := target.MultipartFormData{
		Name:     s.Name,
		FileName: s.FileName,
		MimeType: s.MimeType,
		Data:     []byte(s.Value),
	}
	if s.File != "" {
		if s.Value != "" {
			return target.MultipartFormData{}, errors.Errorf("multipart part '%s' has both value and file", s.Name)
		}
		data, err := ioutil.ReadFile(resolve(dir, s.File))
		if err != nil {
			return target.MultipartFormData{}, errors.Wrapf(err, "reading multipart part '%s'", s.Name)
		}
		part.Data = data
		if part.FileName == "" {
			part.FileName = filepath.Base(s.File)
		}
	}
	return part, nil
}

// normalizeParameter turns the map[interface{}]interface{} yaml.v3 produces
// for mappings with non-string keys into string-keyed maps.
func normalizeParameter(path string, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for key, elem := range v {
			n, err := normalizeParameter(path+"."+key, elem)
			if err != nil {
				return nil, err
			}
			m[key] = n
		}
		return m, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for key, elem := range v {
			switch key.(type) {
			case map[string]interface{}, map[interface{}]interface{}, []interface{}:
				return nil, errors.Errorf("parameter '%s' has a non-scalar key", path)
			}
			k := fmt.Sprint(key)
			if _, ok := m[k]; ok {
				return nil, errors.Errorf("parameter '%s' has duplicate key '%s'", path, k)
			}
			n, err := normalizeParameter(path+"."+k, elem)
			if err != nil {
				return nil, err
			}
			m[k] = n
		}
		return m, nil
	case []interface{}:
		l := make([]interface{}, len(v))
		for i, elem := range v {
			n, err := normalizeParameter(fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			l[i] = n
		}
		return l, nil
	default:
		return value, nil
	}
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
