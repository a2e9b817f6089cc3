package ports

import "time"

// Clock supplies the current time; injected so tests can control it.
type Clock interface {
	Now() time.Time
}
