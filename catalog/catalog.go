// Package catalog loads a fixed set of endpoint descriptions from YAML.
package catalog

import (
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Catalog is an ordered set of named endpoints.
type Catalog struct {
	endpoints []*Endpoint
	byName    map[string]*Endpoint
}

type document struct {
	BaseURL   string         `yaml:"base_url"`
	Endpoints []endpointSpec `yaml:"endpoints"`
}

// Load reads the catalog at path. Relative file references inside the
// catalog resolve against the directory of path.
func Load(path string) (*Catalog, error) {
	clean := filepath.Clean(path)
	log.WithField("path", clean).Debug("loading endpoint catalog")

	f, err := os.Open(clean)
	if err != nil {
		return nil, errors.Wrap(err, "opening endpoint catalog")
	}
	defer f.Close()

	c, err := Decode(f, filepath.Dir(clean))
	if err != nil {
		return nil, errors.Wrapf(err, "loading '%s'", clean)
	}
	return c, nil
}

// Decode reads a catalog from r. dir is the base for relative file references.
func Decode(r io.Reader, dir string) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding endpoint catalog")
	}

	c := &Catalog{byName: map[string]*Endpoint{}}
	for i, spec := range doc.Endpoints {
		if spec.Name == "" {
			return nil, errors.Errorf("endpoint #%d has no name", i+1)
		}
		if _, ok := c.byName[spec.Name]; ok {
			return nil, errors.Errorf("duplicate endpoint name: %s", spec.Name)
		}
		e, err := spec.build(doc.BaseURL, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "endpoint '%s'", spec.Name)
		}
		log.WithFields(log.Fields{
			"name":   e.name,
			"method": e.method,
			"task":   e.task,
		}).Debug("loaded endpoint")
		c.endpoints = append(c.endpoints, e)
		c.byName[e.name] = e
	}
	return c, nil
}

// Endpoints returns the endpoints in file order.
func (c *Catalog) Endpoints() []*Endpoint {
	endpoints := make([]*Endpoint, len(c.endpoints))
	copy(endpoints, c.endpoints)
	return endpoints
}

func (c *Catalog) Lookup(name string) (*Endpoint, bool) {
	e, ok := c.byName[name]
	return e, ok
}
