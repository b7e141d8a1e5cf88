// Package debug provides cheap invariant checks compiled into every build,
// mirroring aistore's cmn/debug: assertions that guard programmer errors
// (a nil store handle, a negative dt) rather than user input, which the
// Broker validates and reports as cmn.BadInput instead of panicking.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import "fmt"

func Assert(cond bool, msg ...interface{}) {
	if !cond {
		panic(fmt.Sprint("assertion failed: ", fmt.Sprint(msg...)))
	}
}

func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
