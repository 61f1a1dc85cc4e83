package form

import "strconv"

// ValueKind tags a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
)

// Value is what a control reads as: nothing, a flag, a number or text.
type Value struct {
	Kind ValueKind
	Bool bool
	Num  float64
	Str  string
}

func Null() Value {
	return Value{}
}

func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Text renders the value the way a control's value property would hold it.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}
