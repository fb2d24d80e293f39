package flags

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nojima/apitarget/exchange"
	"github.com/nojima/apitarget/input"
	"github.com/nojima/apitarget/output"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

type Usage interface {
	PrintUsage(w io.Writer)
}

type OptionSet struct {
	CatalogPath     string
	Verbose         bool
	PrintVersion    bool
	PrintLicense    bool
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

func Parse(args []string) ([]string, Usage, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminalInfo terminalInfo) ([]string, Usage, *OptionSet, error) {
	optionSet := &OptionSet{}
	inputOptions := &optionSet.InputOptions
	var ignoreStdin bool
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print

	flagSet := getopt.New()
	flagSet.SetParameters("[NAME...] | [METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.StringVarLong(&optionSet.CatalogPath, "catalog", 'c', "describe the endpoints of a YAML catalog", "FILE")
	flagSet.BoolVarLong(&inputOptions.JSON, "json", 'j', "encode parameters as JSON (default)")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "encode parameters as application/x-www-form-urlencoded")
	flagSet.BoolVarLong(&inputOptions.Validate, "validate", 0, "apply default response validation")
	flagSet.StringVarLong(&inputOptions.UploadFile, "upload", 0, "upload the file as the request body", "FILE")
	flagSet.BoolVarLong(&inputOptions.Download, "download", 'd', "download the response body to a file")
	flagSet.StringVarLong(&inputOptions.OutputFile, "output", 'o', "destination of --download", "FILE")
	flagSet.BoolVarLong(&inputOptions.Overwrite, "overwrite", 0, "overwrite an existing --download destination")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (THB)")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not read sample data from stdin")
	flagSet.StringVarLong(&optionSet.ExchangeOptions.UserAgent, "user-agent", 0, "User-Agent of built requests")
	flagSet.BoolVarLong(&optionSet.Verbose, "verbose", 'v', "enable verbose log output")
	flagSet.BoolVarLong(&optionSet.PrintVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&optionSet.PrintLicense, "license", 0, "print license information and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, flagSet, nil, errors.WithStack(err)
	}

	// Check stdin
	if !ignoreStdin && !terminalInfo.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if err := parsePrintFlag(printFlag, terminalInfo.stdoutIsTerminal, &optionSet.OutputOptions); err != nil {
		return nil, flagSet, nil, err
	}

	if inputOptions.OutputFile != "" && !inputOptions.Download {
		return nil, flagSet, nil, errors.New("--output requires --download")
	}

	// Color
	optionSet.OutputOptions.EnableColor = terminalInfo.stdoutIsTerminal

	return flagSet.Args(), flagSet, optionSet, nil
}

func parsePrintFlag(printFlag string, stdoutIsTerminal bool, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		outputOptions.PrintTarget = true
		if stdoutIsTerminal {
			outputOptions.PrintRequestHeader = true
		}
		return nil
	}
	for _, c := range printFlag {
		switch c {
		case 'T':
			outputOptions.PrintTarget = true
		case 'H':
			outputOptions.PrintRequestHeader = true
		case 'B':
			outputOptions.PrintRequestBody = true
		default:
			return errors.Errorf("Invalid char in --print value (must be consist of THB): %c", c)
		}
	}
	return nil
}
