package rom

import (
	"errors"

	"github.com/ezrec/woodstock/translate"
)

var f = translate.From

var (
	ErrBankCount = errors.New(f("bank count invalid"))
	ErrImageSize = errors.New(f("image larger than bank count"))
	ErrWordRange = errors.New(f("word wider than 10 bits"))
)

// ErrListing indicates an unparsable token in an octal word listing.
type ErrListing struct {
	LineNo int
	Token  string
}

func (err *ErrListing) Error() string {
	return f("line %d '%v' is not an octal word", err.LineNo, err.Token)
}
