package flow

import "reflect"

// reflectFuncPC returns the entry program counter of fn, used to recover a
// stable symbol name for fingerprinting. Two Jobs built from the same
// function value always yield the same symbol, regardless of which Job
// instance wraps it.
func reflectFuncPC(fn Main) uintptr {
	return reflect.ValueOf(fn).Pointer()
}
