// Package handler defines the request, response and handler abstractions
// shared by the registry, the dispatch pipeline and the hosting adapters.
//
// Handlers declare their kind explicitly. A Terminal handler produces the
// response and ends the chain; an Intermediate handler receives a Next
// continuation and decides whether the chain proceeds:
//
//	auth := handler.Intermediate(func(req *handler.Request, res handler.ResponseWriter, next handler.Next) error {
//		if req.Header.Get("Authorization") == "" {
//			return res.Status(http.StatusUnauthorized).Send("missing credentials")
//		}
//		return next()
//	})
//	hello := handler.Terminal(func(req *handler.Request, res handler.ResponseWriter) error {
//		name, _ := req.Params().String("username")
//		return res.Send("Hello " + name)
//	})
package handler
