package realtime

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedQueryDeterministic(t *testing.T) {
	client := NewHostedClient("broker.example.com", "123", "app-key", "app-secret")
	client.now = func() time.Time { return time.Unix(1700000000, 0) }

	body := []byte(`{"name":"incoming_message","channels":["chat__u1--u2"],"data":"{}"}`)
	first := client.signedQuery("POST", "/apps/123/events", body)
	second := client.signedQuery("POST", "/apps/123/events", body)
	assert.Equal(t, first, second)
}

func TestSignedQuerySignature(t *testing.T) {
	client := NewHostedClient("broker.example.com", "123", "app-key", "app-secret")
	client.now = func() time.Time { return time.Unix(1700000000, 0) }

	body := []byte(`{}`)
	query := client.signedQuery("POST", "/apps/123/events", body)

	values, err := url.ParseQuery(query)
	require.NoError(t, err)
	assert.Equal(t, "app-key", values.Get("auth_key"))
	assert.Equal(t, "1700000000", values.Get("auth_timestamp"))
	assert.Equal(t, "1.0", values.Get("auth_version"))
	require.NotEmpty(t, values.Get("body_md5"))
	require.NotEmpty(t, values.Get("auth_signature"))

	// Recompute the signature over the unsigned part of the query.
	unsigned := query[:strings.Index(query, "&auth_signature=")]
	mac := hmac.New(sha256.New, []byte("app-secret"))
	fmt.Fprintf(mac, "POST\n/apps/123/events\n%s", unsigned)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), values.Get("auth_signature"))
}
