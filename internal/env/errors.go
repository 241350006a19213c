package env

import "errors"

var (
	// ErrShortFrame indicates a wire frame shorter than its fixed size.
	ErrShortFrame = errors.New("env: short frame")

	// ErrEpisodeDone indicates Step was called after the episode ended
	// without an intervening Reset.
	ErrEpisodeDone = errors.New("env: episode is done, call Reset")
)
