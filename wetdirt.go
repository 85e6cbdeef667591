package wetdirt

// DefaultNamespace is used for host callbacks when no explicit namespace is provided.
const DefaultNamespace = "tarmac"

// OK is the status sentinel the database returns for a successful handshake or statement.
const OK = "OK"

// IsOK reports whether a decoded status field holds the OK sentinel.
func IsOK(status any) bool {
	s, ok := status.(string)
	return ok && s == OK
}

// RuntimeConfig carries configuration shared by the host-backed components
// (httpclient, logging, metrics, function).
type RuntimeConfig struct {
	// Namespace is the function namespace used to scope host interactions.
	Namespace string
}

// WithDefaults returns a copy of the config with empty fields defaulted.
func (c RuntimeConfig) WithDefaults() RuntimeConfig {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	return c
}
