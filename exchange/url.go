package exchange

import (
	"net/url"
	"strings"

	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

// URL joins the base URL and the path of t with exactly one slash.
// An empty path yields the base URL.
func URL(t target.URLType) (*url.URL, error) {
	base := t.BaseURL()
	if base == nil {
		return nil, errors.New("base URL is missing")
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, errors.Errorf("base URL must be absolute: %s", base)
	}

	u := *base
	p := t.Path()
	if p == "" {
		return &u, nil
	}
	u.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(p, "/")
	u.RawPath = ""
	return &u, nil
}
