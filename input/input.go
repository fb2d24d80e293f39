// Package input builds an ad-hoc endpoint description from httpie-style
// command-line arguments.
package input

import (
	"net/url"

	"github.com/nojima/apitarget/target"
)

type Options struct {
	JSON      bool
	Form      bool
	ReadStdin bool
	Validate  bool

	// UploadFile makes the endpoint upload the named file.
	UploadFile string

	Download   bool
	OutputFile string
	Overwrite  bool
}

// Endpoint is a target.Target parsed from arguments.
type Endpoint struct {
	baseURL    *url.URL
	path       string
	method     target.Method
	parameters target.Parameters
	encoding   target.ParameterEncoding
	sampleData []byte
	task       target.Task
	validate   bool
}

var _ target.Target = (*Endpoint)(nil)

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
func (e *Endpoint) Validate() bool                              { return e.validate }
