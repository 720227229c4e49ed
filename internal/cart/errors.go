package cart

import "errors"

var (
	ErrStockExceeded       = errors.New("requested quantity exceeds available stock")
	ErrInvalidInput        = errors.New("invalid cart input")
	ErrGiftIndexOutOfRange = errors.New("gift index out of range")
)
