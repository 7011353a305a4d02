package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CastFunc converts a raw record value to its declared type. The registry
// below is closed by construction — there is no code path that evaluates a
// user-supplied expression, satisfying SPEC_FULL.md/spec.md §9's
// requirement that type-caster strings be parsed against a whitelist of
// primitive constructors rather than evaluated as arbitrary code.
type CastFunc func(v interface{}) (interface{}, error)

var castRegistry = map[string]CastFunc{
	"str":   castString,
	"string": castString,
	"int":   castInt,
	"float": castFloat,
	"bool":  castBool,
	"datetime": castDatetime,
}

// ResolveCast looks up a type expression against the closed registry. An
// unrecognized expression is not an error here — per §4.1's failure
// behaviour, the caller drops and logs the field rather than evaluating
// it.
func ResolveCast(expr string) (CastFunc, bool) {
	fn, ok := castRegistry[strings.TrimSpace(strings.ToLower(expr))]
	return fn, ok
}

func castString(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

func castInt(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return nil, fmt.Errorf("cannot cast %T to int", v)
	}
}

func castFloat(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return nil, fmt.Errorf("cannot cast %T to float", v)
	}
}

func castBool(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	default:
		return nil, fmt.Errorf("cannot cast %T to bool", v)
	}
}

func castDatetime(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339, strings.TrimSpace(t))
	default:
		return nil, fmt.Errorf("cannot cast %T to datetime", v)
	}
}
