package armorhttp

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfSignedTLS(t *testing.T) {
	cfg, err := SelfSignedTLS([]string{"127.0.0.1", "localhost"}, time.Hour)
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
	leaf := cfg.Certificates[0].Leaf
	assert.Equal(t, []string{"localhost"}, leaf.DNSNames)
	require.Len(t, leaf.IPAddresses, 1)
	assert.True(t, leaf.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))

	h, _ := testServer(t)
	srv := httptest.NewUnstartedServer(h.Router())
	srv.TLS = cfg
	srv.StartTLS()
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}}}
	resp, err := client.Get(srv.URL + "/livez")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSelfSignedTLS_Neg(t *testing.T) {
	tests := map[string]struct {
		hosts []string
		valid time.Duration
	}{
		"No hosts":        {valid: time.Hour},
		"Empty host":      {hosts: []string{" "}, valid: time.Hour},
		"Scheme":          {hosts: []string{"https://localhost"}, valid: time.Hour},
		"No validity":     {hosts: []string{"localhost"}},
		"Negative period": {hosts: []string{"localhost"}, valid: -time.Hour},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := SelfSignedTLS(tc.hosts, tc.valid)
			assert.Error(t, err)
		})
	}
}
