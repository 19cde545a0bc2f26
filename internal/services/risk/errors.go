package risk

import "errors"

// ErrNoScores is returned when a series yields no scored day.
var ErrNoScores = errors.New("no risk scores produced")
