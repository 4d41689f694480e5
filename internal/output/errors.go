package output

import (
	"fmt"
	"io"

	"github.com/StinkyLord/jarinspect/internal/model"
)

// WriteErrors prints the errors of sink grouped by unit, in unit order. An
// empty sink prints nothing.
//
// Example:
//
//	-------------------------------
//	There were 3 errors:
//	  /srv/a.jar: not a zip file
//	  /srv/app.war!/META-INF/lib/b.jar:
//	    Failed to read GAV definition: missing version
//	    module-info.class: invalid module descriptor
func WriteErrors(w io.Writer, sink *model.ErrorSink) error {
	if sink == nil || sink.Empty() {
		return nil
	}
	ew := &errWriter{w: w}
	ew.printf("-------------------------------\n")
	ew.printf("There were %d errors:\n", sink.Len())
	for _, unit := range sink.Units() {
		messages := sink.Messages(unit)
		if len(messages) == 1 {
			ew.printf("  %s: %s\n", unit, messages[0])
			continue
		}
		ew.printf("  %s:\n", unit)
		for _, m := range messages {
			ew.printf("    %s\n", m)
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
