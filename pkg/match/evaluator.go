package match

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"soul-hq/gateway/pkg/dto"
)

// TimeLayout is the format of TimeBefore and TimeAfter condition values.
const TimeLayout = "2006-01-02 15:04:05"

// Evaluator evaluates conditions. It caches compiled regular expressions and
// is safe for concurrent use.
type Evaluator struct {
	now      func() time.Time
	location *time.Location
	patterns sync.Map // pattern -> *regexp.Regexp, nil when invalid
}

// NewEvaluator creates an evaluator using the local wall clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now, location: time.Local}
}

// WithClock replaces the clock used by time operators.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// WithLocation sets the zone time condition values are parsed in.
func (e *Evaluator) WithLocation(loc *time.Location) *Evaluator {
	e.location = loc
	return e
}

var defaultEvaluator = NewEvaluator()

// Evaluate evaluates one condition with the shared default evaluator.
func Evaluate(cond dto.ConditionData, params Params) bool {
	return defaultEvaluator.Evaluate(cond, params)
}

// Evaluate reports whether the request satisfies cond.
func (e *Evaluator) Evaluate(cond dto.ConditionData, params Params) bool {
	switch cond.Operator {
	case dto.OpTimeBefore:
		deadline, ok := e.parseTime(cond.ParamValue)
		return ok && e.now().Before(deadline)
	case dto.OpTimeAfter:
		start, ok := e.parseTime(cond.ParamValue)
		return ok && e.now().After(start)
	}

	if params == nil {
		return false
	}
	actual, ok := params.Param(cond.ParamType, cond.ParamName)
	if !ok {
		return false
	}
	expected := strings.TrimSpace(cond.ParamValue)

	switch cond.Operator {
	case dto.OpEquals:
		return actual == expected
	case dto.OpExclude:
		return actual != expected
	case dto.OpMatch:
		return antMatch(expected, actual)
	case dto.OpLike, dto.OpContains:
		return strings.Contains(actual, expected)
	case dto.OpRegex:
		re := e.compile(expected)
		return re != nil && re.MatchString(actual)
	case dto.OpGreater:
		a, b, ok := numbers(actual, expected)
		return ok && a > b
	case dto.OpLess:
		a, b, ok := numbers(actual, expected)
		return ok && a < b
	default:
		return false
	}
}

// compile returns the anchored regexp for pattern, or nil if it does not
// compile. Both outcomes are cached.
func (e *Evaluator) compile(pattern string) *regexp.Regexp {
	if v, ok := e.patterns.Load(pattern); ok {
		re, _ := v.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		e.patterns.Store(pattern, (*regexp.Regexp)(nil))
		return nil
	}
	e.patterns.Store(pattern, re)
	return re
}

func (e *Evaluator) parseTime(value string) (time.Time, bool) {
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(value), e.location)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func numbers(actual, expected string) (float64, float64, bool) {
	a, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.ParseFloat(expected, 64)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
