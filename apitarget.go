// Package apitarget describes HTTP API endpoints as typed targets and prints
// the requests an executor would build from them.
package apitarget

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/nojima/apitarget/catalog"
	"github.com/nojima/apitarget/exchange"
	"github.com/nojima/apitarget/flags"
	"github.com/nojima/apitarget/input"
	"github.com/nojima/apitarget/output"
	"github.com/nojima/apitarget/target"
	"github.com/nojima/apitarget/version"
	"github.com/pkg/errors"
)

func Main() error {
	return run(os.Args, os.Stdin, os.Stdout, os.Stderr)
}

type namedTarget struct {
	name   string
	target target.Target
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// Parse flags
	args, usage, optionSet, err := flags.Parse(args)
	if err != nil {
		return err
	}
	log.SetHandler(cli.New(stderr))
	log.SetLevel(log.InfoLevel)
	if optionSet.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	// Show version and/or license if requested
	if optionSet.PrintVersion {
		fmt.Fprintf(stdout, "apitarget %s\n", version.Current())
		return nil
	}
	if optionSet.PrintLicense {
		version.PrintLicenses(stdout)
		return nil
	}

	// Collect targets
	var targets []namedTarget
	if optionSet.CatalogPath != "" {
		targets, err = catalogTargets(optionSet.CatalogPath, args)
	} else {
		targets, err = adHocTargets(args, stdin, &optionSet.InputOptions)
		if _, ok := errors.Cause(err).(*input.UsageError); ok {
			usage.PrintUsage(stderr)
			return err
		}
	}
	if err != nil {
		return err
	}

	// Print targets and the requests built from them
	writer := bufio.NewWriter(stdout)
	defer writer.Flush()
	printer := output.NewPrettyPrinter(output.PrettyPrinterConfig{
		Writer:      writer,
		EnableColor: optionSet.OutputOptions.EnableColor,
	})
	outputOptions := &optionSet.OutputOptions
	for _, nt := range targets {
		if err := printTarget(printer, nt, &optionSet.ExchangeOptions, outputOptions); err != nil {
			return errors.Wrapf(err, "printing '%s'", nt.name)
		}
	}
	return nil
}

func printTarget(printer output.Printer, nt namedTarget, exchangeOptions *exchange.Options, outputOptions *output.Options) error {
	var r *exchange.Request
	if outputOptions.PrintRequestHeader || outputOptions.PrintRequestBody {
		var err error
		r, err = exchange.BuildHTTPRequest(nt.target, exchangeOptions)
		if err != nil {
			return err
		}
		if r.HTTP.Body != nil {
			defer r.HTTP.Body.Close()
		}
		log.WithFields(log.Fields{
			"name":   nt.name,
			"method": r.HTTP.Method,
			"url":    r.HTTP.URL.String(),
		}).Debug("built request")
	}
	return output.Print(printer, nt.name, nt.target, r, outputOptions)
}

func catalogTargets(path string, names []string) ([]namedTarget, error) {
	c, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	var targets []namedTarget
	if len(names) == 0 {
		for _, e := range c.Endpoints() {
			targets = append(targets, namedTarget{name: e.Name(), target: e})
		}
		return targets, nil
	}
	for _, name := range names {
		e, ok := c.Lookup(name)
		if !ok {
			return nil, errors.Errorf("no endpoint named '%s' in %s", name, path)
		}
		targets = append(targets, namedTarget{name: e.Name(), target: e})
	}
	return targets, nil
}

func adHocTargets(args []string, stdin io.Reader, options *input.Options) ([]namedTarget, error) {
	e, err := input.ParseArgs(args, stdin, options)
	if err != nil {
		return nil, err
	}
	u, err := exchange.URL(e)
	if err != nil {
		return nil, err
	}
	return []namedTarget{{name: u.String(), target: e}}, nil
}
