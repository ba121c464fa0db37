package registry

// NewRegistry creates the Registry implementation matching url's scheme
// (file:// or http(s)://), attaching apiToken for registries that need
// authenticated writes. This is a thin, named entry point kept separate
// from New so call sites reading "registry.NewRegistry(...)" read the
// same way the rest of the codebase's other New*-style constructors do.
func NewRegistry(url, apiToken string) (Registry, error) {
	return New(url, apiToken)
}
