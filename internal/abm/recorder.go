package abm

import "fmt"

// varSeries is one recorded time series. Recording appends exactly one
// value per call; the series starts at the step of its first request
// and is never back-filled.
type varSeries struct {
	steps  []int
	values []any
}

// recordLog holds an object's recorded series keyed by variable name,
// in first-recorded order.
type recordLog struct {
	names  []string
	series map[string]*varSeries
}

func (l *recordLog) append(name string, t int, v any) {
	if l.series == nil {
		l.series = make(map[string]*varSeries)
	}
	s, ok := l.series[name]
	if !ok {
		s = &varSeries{}
		l.series[name] = s
		l.names = append(l.names, name)
	}
	s.steps = append(s.steps, t)
	s.values = append(s.values, v)
}

func (l *recordLog) empty() bool { return len(l.names) == 0 }

// Record appends the current value of each named attribute to that
// variable's series, keyed by the model's current time. Recording a
// name that does not resolve on the object fails with
// [ErrAttributeRecord].
func (o *Object) Record(names ...string) error {
	for _, name := range names {
		v, ok := o.attrs[name]
		if !ok {
			return fmt.Errorf("abm: %s #%d has no attribute %q: %w",
				o.kind, o.id, name, ErrAttributeRecord)
		}
		o.log.append(name, o.model.t, v)
	}
	return nil
}

// RecordAll records every dynamic variable the object currently
// carries, without the names having to be re-specified. A variable
// introduced mid-run is picked up from the step it first appears.
func (o *Object) RecordAll() error {
	return o.Record(o.keys...)
}

// Series returns the recorded steps and values for a variable, or nil
// if the variable was never recorded.
func (o *Object) Series(name string) ([]int, []any) {
	s, ok := o.log.series[name]
	if !ok {
		return nil, nil
	}
	return s.steps, s.values
}

// RecordedVars lists the recorded variable names in first-recorded order.
func (o *Object) RecordedVars() []string {
	return append([]string(nil), o.log.names...)
}
