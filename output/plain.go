package output

import (
	"fmt"
	"io"
	"net/http"

	"code.cloudfoundry.org/bytefmt"
	"github.com/nojima/apitarget/exchange"
	"github.com/nojima/apitarget/target"
)

type PlainPrinter struct {
	writer io.Writer
}

func NewPlainPrinter(writer io.Writer) Printer {
	return &PlainPrinter{
		writer: writer,
	}
}

func (p *PlainPrinter) PrintTarget(name string, t target.Target) error {
	params, err := marshalParameters(t.Parameters(), false)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.writer, "%s\n", name)
	fmt.Fprintf(p.writer, "    %s %s %s\n", t.Method(), t.BaseURL(), t.Path())
	fmt.Fprintf(p.writer, "    parameters: %s\n", params)
	fmt.Fprintf(p.writer, "    encoding: %s\n", encodingName(t.ParameterEncoding()))
	fmt.Fprintf(p.writer, "    task: %s\n", t.Task())
	fmt.Fprintf(p.writer, "    validate: %v\n", t.Validate())
	fmt.Fprintf(p.writer, "    sample data: %s\n", bytefmt.ByteSize(uint64(len(t.SampleData()))))
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PlainPrinter) PrintRequestLine(r *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n", r.Method, r.URL.RequestURI(), r.Proto)
	return nil
}

func (p *PlainPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedHeaderNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PlainPrinter) PrintBody(r *exchange.Request) error {
	if r.HTTP.Body == nil {
		return nil
	}
	if isBinary(r.HTTP.Header.Get("Content-Type")) {
		return writeString(p.writer, binaryNote+"\n")
	}
	body, err := readBody(r.HTTP)
	if err != nil {
		return err
	}
	if _, err := p.writer.Write(body); err != nil {
		return err
	}
	fmt.Fprintln(p.writer)
	return nil
}
