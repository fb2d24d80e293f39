package encoding

import (
	"encoding/json"
	"net/http"

	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

// JSONEncoding writes parameters as a JSON object in the request body.
type JSONEncoding struct {
	Pretty bool
}

func (e JSONEncoding) Encode(r *http.Request, params target.Parameters) (*http.Request, error) {
	if r == nil {
		return nil, errNilRequest
	}
	if len(params) == 0 {
		return r, nil
	}

	var body []byte
	var err error
	if e.Pretty {
		body, err = json.MarshalIndent(params, "", "    ")
	} else {
		body, err = json.Marshal(params)
	}
	if err != nil {
		return nil, errors.Wrap(err, "marshaling JSON of HTTP body")
	}

	r = clone(r)
	setBody(r, body, "application/json")
	return r, nil
}
