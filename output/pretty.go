package output

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"code.cloudfoundry.org/bytefmt"
	"github.com/logrusorgru/aurora"
	"github.com/nojima/apitarget/exchange"
	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	targetPalette *TargetPalette
	headerPalette *HeaderPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool
}

type TargetPalette struct {
	Name   aurora.Color
	Method aurora.Color
	URL    aurora.Color
	Label  aurora.Color
	Value  aurora.Color
}

var defaultTargetPalette = TargetPalette{
	Name:   aurora.BoldFm,
	Method: aurora.GreenFg | aurora.BoldFm,
	URL:    aurora.CyanFg,
	Label:  aurora.GrayFg,
	Value:  aurora.BlueFg,
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.GreenFg | aurora.BoldFm,
	URL:            aurora.CyanFg,
	Proto:          aurora.BlueFg,
	FieldName:      aurora.GrayFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.GrayFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		targetPalette: &defaultTargetPalette,
		headerPalette: &defaultHeaderPalette,
	}
}

func (p *PrettyPrinter) PrintTarget(name string, t target.Target) error {
	params, err := marshalParameters(t.Parameters(), true)
	if err != nil {
		return err
	}
	c := p.targetPalette
	fmt.Fprintf(p.writer, "%s\n", p.aurora.Colorize(name, c.Name))
	fmt.Fprintf(p.writer, "    %s %s %s\n",
		p.aurora.Colorize(t.Method().String(), c.Method),
		p.aurora.Colorize(t.BaseURL().String(), c.URL),
		p.aurora.Colorize(t.Path(), c.URL))
	p.printField("parameters", params)
	p.printField("encoding", encodingName(t.ParameterEncoding()))
	p.printField("task", t.Task().String())
	p.printField("validate", fmt.Sprint(t.Validate()))
	p.printField("sample data", bytefmt.ByteSize(uint64(len(t.SampleData()))))
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PrettyPrinter) printField(label, value string) {
	fmt.Fprintf(p.writer, "    %s %s\n",
		p.aurora.Colorize(label+":", p.targetPalette.Label),
		p.aurora.Colorize(value, p.targetPalette.Value))
}

func (p *PrettyPrinter) PrintRequestLine(r *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(r.Method, p.headerPalette.Method),
		p.aurora.Colorize(r.URL.RequestURI(), p.headerPalette.URL),
		p.aurora.Colorize(r.Proto, p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedHeaderNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PrettyPrinter) PrintBody(r *exchange.Request) error {
	// Fallback to PlainPrinter when the body is not JSON
	if r.HTTP.Body == nil || !isJSON(r.HTTP.Header.Get("Content-Type")) {
		return p.plain.PrintBody(r)
	}

	body, err := readBody(r.HTTP)
	if err != nil {
		return err
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return errors.Wrap(err, "parsing request body as JSON")
	}

	encoder := json.NewEncoder(p.writer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(v); err != nil {
		return errors.Wrap(err, "encoding JSON")
	}

	fmt.Fprintln(p.writer)
	return nil
}
