package twilio

import (
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550001111", r.PostForm.Get("From"))
		assert.Equal(t, "+5491144445555", r.PostForm.Get("To"))
		assert.Equal(t, "Hola!", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1","status":"queued","to":"+5491144445555","from":"+15550001111","body":"Hola!"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("AC123", "secret", "+15550001111", WithBaseURL(srv.URL))
	msg, err := c.SendMessage(context.Background(), "+5491144445555", "Hola!")
	require.NoError(t, err)
	assert.Equal(t, "SM1", msg.SID)
	assert.Equal(t, "queued", msg.Status)
	assert.Nil(t, msg.ErrorCode)
}

func TestSendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","more_info":"https://www.twilio.com/docs/errors/21211","status":400}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("AC123", "secret", "+1", WithBaseURL(srv.URL)).SendMessage(context.Background(), "bad", "x")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 21211, apiErr.Code)
	assert.Contains(t, err.Error(), "code 21211")
}

func TestSendMessage_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down")) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("AC123", "secret", "+1", WithBaseURL(srv.URL)).SendMessage(context.Background(), "+2", "x")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "twilio: status 502: upstream down", apiErr.Error())
}

func TestSendMessage_RateLimitHonorsContext(t *testing.T) {
	c := NewClient("AC123", "secret", "+1", WithBaseURL("http://127.0.0.1:0"), WithRateLimit(0.001))
	hc := c.(*httpClient)
	hc.limiter.Allow() // drain the single token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.SendMessage(ctx, "+2", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twilio: rate limit")
}

func TestOptions(t *testing.T) {
	hc := &http.Client{}
	c := NewClient("a", "b", "c", WithBaseURL(""), WithHTTPClient(hc), WithRateLimit(0)).(*httpClient)
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Same(t, hc, c.http)
	assert.Nil(t, c.limiter)

	c = NewClient("a", "b", "c", WithBaseURL("http://x/")).(*httpClient)
	assert.Equal(t, "http://x", c.baseURL)
}

func TestSignature(t *testing.T) {
	params := url.Values{
		"From":       {"+5491144445555"},
		"Body":       {"Si, me interesa"},
		"MessageSid": {"SM1"},
	}
	fullURL := "https://leads.example.com/webhook/twilio"

	mac := hmac.New(sha1.New, []byte("token"))
	mac.Write([]byte(fullURL + "BodySi, me interesaFrom+5491144445555MessageSidSM1")) //nolint:errcheck
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Signature("token", fullURL, params))
	assert.True(t, ValidSignature("token", fullURL, params, want))
	assert.False(t, ValidSignature("other", fullURL, params, want))
	assert.False(t, ValidSignature("token", fullURL+"?x=1", params, want))
	assert.False(t, ValidSignature("token", fullURL, params, ""))
}
