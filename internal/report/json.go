package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/stacksniffer/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Each call to Write emits one JSON document followed by a newline, so
// batch scans with compact output produce JSON Lines.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...Option) *JSONWriter {
	return &JSONWriter{baseWriter: newBaseWriter(output, opts)}
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	if !w.opts.showSnippets {
		report = redact(report)
	}
	return w.writeJSON(report)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.opts.indent != "" {
		data, err = json.MarshalIndent(v, "", w.opts.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
