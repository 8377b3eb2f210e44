package handlers

import (
	"github.com/gorilla/mux"
)

// Group is a downstream handler group mounted under the API prefix. The
// security chain wraps every group; groups never opt out.
type Group struct {
	Name     string
	Prefix   string
	Register func(r *mux.Router)
}

// Mount registers each group on a subrouter under apiPrefix, in declared
// order, and returns the mounted prefixes for the root metadata endpoint.
func Mount(api *mux.Router, apiPrefix string, groups []Group) []string {
	mounted := make([]string, 0, len(groups))
	for _, g := range groups {
		sub := api.PathPrefix(g.Prefix).Subrouter()
		g.Register(sub)
		mounted = append(mounted, apiPrefix+g.Prefix)
	}
	return mounted
}
