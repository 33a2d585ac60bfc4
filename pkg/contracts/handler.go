// Package contracts holds the small interfaces shared between the
// application shell and the domain handlers.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every domain handler; the application shell
// collects them and lets each register its own routes.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
