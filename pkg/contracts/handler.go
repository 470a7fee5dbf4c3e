package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every HTTP handler group a service mounts.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Chain mounts several handler groups on one router.
type Chain []Handler

func (c Chain) RegisterRoutes(router *httprouter.Router) {
	for _, h := range c {
		h.RegisterRoutes(router)
	}
}
