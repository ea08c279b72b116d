package vt

// UnaryFunction holds either a constant Result or a closure from Argument
// to Result, so that CartoCSS zoom-dependent expressions (`[zoom]` lookups
// compiled to a stop function) and plain constants share one type without
// every style field needing its own "is this dynamic" flag.
type UnaryFunction[Result, Argument any] struct {
	value Result
	fn    func(Argument) Result
}

// ConstFunction builds a UnaryFunction that ignores its argument and always
// returns val.
func ConstFunction[Result, Argument any](val Result) UnaryFunction[Result, Argument] {
	return UnaryFunction[Result, Argument]{value: val}
}

// DynamicFunction builds a UnaryFunction backed by a closure, used for
// CartoCSS properties whose value depends on the ViewState (zoom-interpolated
// stops, camera-relative sizing).
func DynamicFunction[Result, Argument any](fn func(Argument) Result) UnaryFunction[Result, Argument] {
	return UnaryFunction[Result, Argument]{fn: fn}
}

// Value returns the function's constant value; meaningless if the function
// was built with DynamicFunction.
func (f UnaryFunction[Result, Argument]) Value() Result {
	return f.value
}

// IsDynamic reports whether the function is backed by a closure rather than
// a constant.
func (f UnaryFunction[Result, Argument]) IsDynamic() bool {
	return f.fn != nil
}

// Eval evaluates the function at arg, returning the constant value if one
// was set.
func (f UnaryFunction[Result, Argument]) Eval(arg Argument) Result {
	if f.fn == nil {
		return f.value
	}
	return f.fn(arg)
}

// FloatFunction evaluates to a float32 size/width/radius given a ViewState.
type FloatFunction = UnaryFunction[float32, ViewState]

// ColorFunction evaluates to a Color given a ViewState.
type ColorFunction = UnaryFunction[Color, ViewState]
