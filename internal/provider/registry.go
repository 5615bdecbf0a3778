package provider

// Registry groups the capability lookups a build consults.
// It is populated at startup and read during builds.
type Registry struct {
	Dynamic    *Lookup[DynamicNodeProvider]
	URL        *Lookup[URLResolver]
	Visibility *Lookup[VisibilityProvider]
}

// NewRegistry returns a registry with no dynamic providers, the route table
// as fallback URL resolver and AlwaysVisible as fallback visibility provider.
func NewRegistry(routes *RouteTable) *Registry {
	r := &Registry{
		Dynamic:    NewLookup[DynamicNodeProvider](KindDynamicNodeProvider),
		URL:        NewLookup[URLResolver](KindURLResolver),
		Visibility: NewLookup[VisibilityProvider](KindVisibilityProvider),
	}
	if routes == nil {
		routes = NewRouteTable()
	}
	r.URL.SetFallback(routes)
	r.Visibility.SetFallback(AlwaysVisible)
	return r
}
