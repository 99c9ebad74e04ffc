package middleware

import "github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"

// Middleware allows wrapping a MacroStore to add behavior.
type Middleware func(ports.MacroStore) ports.MacroStore

// Chain wraps store with mws. The first middleware is the outermost.
func Chain(store ports.MacroStore, mws ...Middleware) ports.MacroStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
