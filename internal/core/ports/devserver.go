package ports

import (
	"context"

	"go.trai.ch/swatch/internal/core/domain"
)

//go:generate mockgen -source=devserver.go -destination=mocks/mock_devserver.go -package=mocks

// Reloader pushes reload notifications to connected browsers.
type Reloader interface {
	// Reload notifies every connected client. It returns the number of clients notified.
	Reload(r domain.Reload) int
}

// DevServer serves the destination tree with live reload.
type DevServer interface {
	Reloader
	// Serve listens on addr and serves files under dir until ctx is done.
	// ready is called with the bound address once the listener is open.
	Serve(ctx context.Context, addr, dir string, ready func(addr string)) error
}
