package app

import (
	"time"

	"toolpin/internal/ports"
)

// Service wires the application operations. Backend is normally nil and
// constructed per request from the backend flags; tests inject a fake.
type Service struct {
	Backend ports.BackendPort
	Clock   func() time.Time
}

func NewService() Service {
	return Service{
		Clock: time.Now,
	}
}
