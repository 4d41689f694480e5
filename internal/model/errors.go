package model

// ErrorSink collects non-fatal errors per archive unit. It is append-only
// during a run and read once at the end to print a summary.
type ErrorSink struct {
	messages map[ArchiveUnit][]string
	count    int
}

// NewErrorSink returns an empty sink.
func NewErrorSink() *ErrorSink {
	return &ErrorSink{messages: map[ArchiveUnit][]string{}}
}

// Add records a message for unit.
func (s *ErrorSink) Add(unit ArchiveUnit, message string) {
	key := unit.Key()
	s.messages[key] = append(s.messages[key], message)
	s.count++
}

// AddError records err for unit. A nil error is ignored.
func (s *ErrorSink) AddError(unit ArchiveUnit, err error) {
	if err == nil {
		return
	}
	s.Add(unit, err.Error())
}

// Len returns the total number of recorded messages.
func (s *ErrorSink) Len() int {
	return s.count
}

// Empty reports whether nothing was recorded.
func (s *ErrorSink) Empty() bool {
	return s.count == 0
}

// Units returns every unit with at least one message, in Compare order.
func (s *ErrorSink) Units() []ArchiveUnit {
	return SortedKeys(s.messages)
}

// Messages returns the messages recorded for unit in insertion order.
func (s *ErrorSink) Messages(unit ArchiveUnit) []string {
	return s.messages[unit.Key()]
}
