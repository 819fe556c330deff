package model

import (
	"errors"

	"github.com/ezrec/woodstock/translate"
)

var f = translate.From

var (
	ErrModelName    = errors.New(f("model name missing"))
	ErrModelDigits  = errors.New(f("digit count invalid"))
	ErrModelBanks   = errors.New(f("bank count invalid"))
	ErrModelMemory  = errors.New(f("data register count invalid"))
	ErrModelKeycode = errors.New(f("keycode out of range"))
)
