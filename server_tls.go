//go:build !tinygo

package sonar

import (
	"golang.org/x/crypto/acme/autocert"
)

// ServeTLS serves HTTPS for host with a Let's Encrypt certificate.  With a
// cacheDir, certificates survive restarts instead of being requested again.
func (s *Server) ServeTLS(host, cacheDir string) error {
	return s.Serve(certManager(host, cacheDir).Listener())
}

func certManager(host, cacheDir string) *autocert.Manager {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(host),
	}
	if cacheDir != "" {
		m.Cache = autocert.DirCache(cacheDir)
	}
	return m
}
