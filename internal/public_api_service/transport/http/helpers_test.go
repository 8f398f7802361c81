package http_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	deliverydomain "github.com/aradsms/sms_engine/internal/delivery_retrieval_service/domain"
	inbounddomain "github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	httptransport "github.com/aradsms/sms_engine/internal/public_api_service/transport/http"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type MockSubmitter struct{ mock.Mock }

func (m *MockSubmitter) Submit(ctx context.Context, req domain.SendRequest) (*domain.SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubmitResult), args.Error(1)
}

type MockStatusReader struct{ mock.Mock }

func (m *MockStatusReader) GetStatus(ctx context.Context, smsID string) (*domain.StatusView, error) {
	args := m.Called(ctx, smsID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusView), args.Error(1)
}

type MockReceiver struct{ mock.Mock }

func (m *MockReceiver) SubmitPart(ctx context.Context, providerName string, raw map[string]string) (*inbounddomain.SubmitResult, error) {
	args := m.Called(ctx, providerName, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbounddomain.SubmitResult), args.Error(1)
}

type MockRepusher struct{ mock.Mock }

func (m *MockRepusher) RepushByIDs(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockRepusher) RepushByAccountIDs(ctx context.Context, accountIDs []int64) (int, error) {
	args := m.Called(ctx, accountIDs)
	return args.Int(0), args.Error(1)
}

type MockDLR struct{ mock.Mock }

func (m *MockDLR) HandleCallback(ctx context.Context, providerName string, cb deliverydomain.ProviderCallback) (*deliverydomain.DeliveryReport, error) {
	args := m.Called(ctx, providerName, cb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deliverydomain.DeliveryReport), args.Error(1)
}

type testDeps struct {
	submitter *MockSubmitter
	status    *MockStatusReader
	receiver  *MockReceiver
	repusher  *MockRepusher
	dlr       *MockDLR
	router    chi.Router
}

func newTestRouter() *testDeps {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := &testDeps{
		submitter: new(MockSubmitter),
		status:    new(MockStatusReader),
		receiver:  new(MockReceiver),
		repusher:  new(MockRepusher),
		dlr:       new(MockDLR),
	}
	validate := httptransport.NewValidator()
	messages := httptransport.NewMessageHandler(d.submitter, d.status, validate, 1, logger)
	incoming := httptransport.NewIncomingHandler(d.receiver, d.repusher, d.dlr, validate, logger)
	d.router = httptransport.NewRouter(messages, incoming, 5*time.Second, logger)
	return d
}
