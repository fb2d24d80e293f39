// Package download stores downloaded bodies in local files.
package download

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

// FileDestination places a download in Dir. FileName overrides the name
// suggested by the executor.
type FileDestination struct {
	Dir      string
	FileName string
	Options  target.DownloadOptions
}

var _ target.DownloadDestination = FileDestination{}

// Destination returns the path to write to. Unless RemovePreviousFile is
// set, an existing file is never chosen: a numeric suffix is appended or
// incremented instead.
func (d FileDestination) Destination(suggestedFilename string) (string, target.DownloadOptions, error) {
	name := d.FileName
	if name == "" {
		name = filepath.Base(suggestedFilename)
	}
	if name == "" || name == "." || name == "/" || name == string(filepath.Separator) {
		name = "index"
	}

	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	fullPath := filepath.Join(dir, name)

	if !d.Options.RemovePreviousFile {
		p, err := makeNonOverlappingFilename(fullPath)
		if err != nil {
			return "", d.Options, err
		}
		fullPath = p
	}
	return fullPath, d.Options, nil
}

// makeNonOverlappingFilename returns p, or p with the first free ".N"
// suffix. Digits already in p are part of the name and never counted.
func makeNonOverlappingFilename(p string) (string, error) {
	candidate := p
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", errors.Wrapf(err, "checking download destination '%s'", candidate)
		}
		candidate = fmt.Sprintf("%s.%d", p, i)
	}
}

// Prepare makes p ready to be written according to opts.
func Prepare(p string, opts target.DownloadOptions) error {
	if opts.CreateIntermediateDirectories {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return errors.Wrapf(err, "creating directories for '%s'", p)
		}
	}
	if opts.RemovePreviousFile {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing previous file '%s'", p)
		}
	}
	return nil
}

// SuggestedFilename returns the last segment of the URL path.
func SuggestedFilename(u *url.URL) string {
	if u == nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
