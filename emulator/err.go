package emulator

import (
	"errors"

	"github.com/ezrec/woodstock/translate"
)

var f = translate.From

var (
	ErrBreakpoint = errors.New(f("breakpoint"))
	ErrKeyUnknown = errors.New(f("key unknown"))
)
