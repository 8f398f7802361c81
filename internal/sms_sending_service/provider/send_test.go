package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_MultipartStopsAtFirstFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte("01"))
			return
		}
		_, _ = w.Write([]byte("103"))
	}))
	defer server.Close()

	sc := testSendContext(server.URL+"?", qp("body", "$smsText", true, 1))
	sc.Text = strings.Repeat("a", 400) // three parts

	result, parts, err := Send(context.Background(), NewSilverstreet(testDeps()), sc)
	require.NoError(t, err)
	assert.Equal(t, 3, parts)
	assert.Equal(t, Failure("14155550100", "103"), result)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSend_MultipartJoinsDistinctIDs(t *testing.T) {
	m := NewMockAdapter(discardLogger())
	m.SplitParts = true
	sc := testSendContext("")
	sc.Text = strings.Repeat("b", 170)

	result, parts, err := Send(context.Background(), m, sc)
	require.NoError(t, err)
	assert.Equal(t, 2, parts)
	assert.True(t, result.OK)
	assert.Equal(t, "mock-tag123", result.MessageID)
	assert.Equal(t, 2, m.Calls())
}

func TestSend_TransportErrorIsReturned(t *testing.T) {
	m := NewMockAdapter(discardLogger())
	m.ExecErr = &ProviderError{Kind: KindTimeout, Provider: "mock", Err: context.DeadlineExceeded}

	_, _, err := Send(context.Background(), m, testSendContext(""))
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Provider: Timeout Exception", err.Error())
}

func TestRegistry_Resolve(t *testing.T) {
	r := DefaultRegistry(testDeps())

	a, err := r.Resolve(&domain.ServiceProvider{ID: 1, ModuleName: " Nexmo "})
	require.NoError(t, err)
	assert.Equal(t, "nexmo", a.Name())

	_, err = r.Resolve(&domain.ServiceProvider{ID: 2, ModuleName: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrUnknownProviderModule)

	assert.Contains(t, r.Modules(), "silverstreet")
}
