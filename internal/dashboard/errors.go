package dashboard

import "errors"

var (
	// ErrTransport marks a fetch that never produced a response
	ErrTransport = errors.New("transport failure")

	// ErrDecode marks a response with a non-success status or an unexpected body
	ErrDecode = errors.New("decode failure")

	// ErrEmptyDataset is returned when no usable records remain after all fallbacks
	ErrEmptyDataset = errors.New("empty dataset")
)
