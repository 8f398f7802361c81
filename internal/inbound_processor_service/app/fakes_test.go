package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/platform/webhook"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memRouting struct {
	providers []domain.IncomingProvider
	numbers   map[string]domain.InboundNumber
	configs   []domain.IncomingConfig
	err       error
}

func (m *memRouting) GetProviderByAPIName(_ context.Context, apiName string) (*domain.IncomingProvider, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.providers {
		if strings.EqualFold(m.providers[i].APIName, apiName) {
			p := m.providers[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memRouting) GetProviderByID(_ context.Context, id string) (*domain.IncomingProvider, error) {
	for i := range m.providers {
		if m.providers[i].ID == id {
			p := m.providers[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memRouting) GetInboundNumber(_ context.Context, shortCode string) (*domain.InboundNumber, error) {
	n, ok := m.numbers[shortCode]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *memRouting) FindConfig(_ context.Context, shortCode, keyword, subKeyword string) (*domain.IncomingConfig, error) {
	for i := range m.configs {
		c := m.configs[i]
		if !strings.EqualFold(c.ShortCode, shortCode) {
			continue
		}
		if keyword != "" && !strings.EqualFold(c.Keyword, keyword) {
			continue
		}
		if subKeyword != "" && !strings.EqualFold(c.SubKeyword, subKeyword) {
			continue
		}
		return &c, nil
	}
	return nil, nil
}

func (m *memRouting) ListAccountConfigs(_ context.Context, accountID int64) ([]domain.IncomingConfig, error) {
	var out []domain.IncomingConfig
	for _, c := range m.configs {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

// memInbox mimics the pending-only unique part index and consume.
type memInbox struct {
	mu         sync.Mutex
	messages   []domain.IncomingSms
	parts      []domain.IncomingSmsPart
	pushStatus map[string]bool
	pushResp   map[string]string
	staleFrom  time.Time
	staleTo    time.Time
	createErr  error
}

func newMemInbox() *memInbox {
	return &memInbox{pushStatus: map[string]bool{}, pushResp: map[string]string{}}
}

func (m *memInbox) Create(_ context.Context, sms *domain.IncomingSms) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.messages = append(m.messages, *sms)
	return nil
}

func (m *memInbox) SavePart(_ context.Context, part *domain.IncomingSmsPart) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.parts {
		if p.Status == domain.PartStatusPending && p.Key() == part.Key() && p.PartNumber == part.PartNumber {
			return false, nil
		}
	}
	m.parts = append(m.parts, *part)
	return true, nil
}

func (m *memInbox) PendingParts(_ context.Context, key domain.PartGroupKey) ([]domain.IncomingSmsPart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.IncomingSmsPart
	for _, p := range m.parts {
		if p.Key() == key && p.Status == domain.PartStatusPending {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	return out, nil
}

func (m *memInbox) ConsumeGroup(_ context.Context, key domain.PartGroupKey, maxPart int, sms *domain.IncomingSms) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	consumed := 0
	for i := range m.parts {
		p := &m.parts[i]
		if p.Key() == key && p.Status == domain.PartStatusPending && p.PartNumber <= maxPart {
			p.Status = domain.PartStatusConsumed
			id := sms.ID
			p.IncomingMessageID = &id
			consumed++
		}
	}
	if consumed == 0 {
		return domain.ErrGroupConsumed
	}
	m.messages = append(m.messages, *sms)
	return nil
}

func (m *memInbox) StaleGroups(_ context.Context, from, to time.Time) ([]domain.StaleGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleFrom, m.staleTo = from, to
	seen := map[domain.PartGroupKey]bool{}
	var out []domain.StaleGroup
	for _, p := range m.parts {
		if p.Status != domain.PartStatusPending || p.CreatedAt.Before(from) || !p.CreatedAt.Before(to) || seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		out = append(out, domain.StaleGroup{PartGroupKey: p.Key(), IncomingProviderID: p.IncomingProviderID, TotalParts: p.TotalParts, OldestPart: p.CreatedAt})
	}
	return out, nil
}

func (m *memInbox) UpdatePushStatus(_ context.Context, id string, ok bool, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages[i].PushURLStatus = ok
			m.pushStatus[id] = ok
			m.pushResp[id] = response
			return nil
		}
	}
	return domain.ErrIncomingSmsNotFound
}

func (m *memInbox) unpushed(keep func(domain.IncomingSms) bool) []domain.IncomingSms {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.IncomingSms
	for _, s := range m.messages {
		if !s.PushURLStatus && keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (m *memInbox) ListUnpushedByIDs(_ context.Context, ids []string) ([]domain.IncomingSms, error) {
	return m.unpushed(func(s domain.IncomingSms) bool { return slices.Contains(ids, s.ID) }), nil
}

func (m *memInbox) ListUnpushedByAccounts(_ context.Context, accountIDs []int64) ([]domain.IncomingSms, error) {
	return m.unpushed(func(s domain.IncomingSms) bool { return slices.Contains(accountIDs, s.AccountID) }), nil
}

func (m *memInbox) ListUnpushedSince(_ context.Context, since time.Time) ([]domain.IncomingSms, error) {
	return m.unpushed(func(s domain.IncomingSms) bool { return s.CreatedAt.After(since) }), nil
}

func (m *memInbox) stored() []domain.IncomingSms {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.IncomingSms(nil), m.messages...)
}

type enqueuedTask struct {
	name    string
	payload domain.PushPayload
	queue   string
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []enqueuedTask
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, taskName string, payload any, queue string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, _ := payload.(domain.PushPayload)
	f.tasks = append(f.tasks, enqueuedTask{name: taskName, payload: p, queue: queue})
	return nil
}

func (f *fakeEnqueuer) pushes() []enqueuedTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]enqueuedTask(nil), f.tasks...)
}

var _ messagebroker.TaskEnqueuer = (*fakeEnqueuer)(nil)

// fakeNormalizer returns mapped numbers and echoes everything else.
type fakeNormalizer struct {
	mapped  map[string]string
	invalid map[string]bool
}

func (f fakeNormalizer) Normalize(number, _ string) (string, bool) {
	if f.invalid[number] {
		return "", false
	}
	if n, ok := f.mapped[number]; ok {
		return n, true
	}
	return number, true
}

type fakeLocker struct {
	held     bool
	err      error
	locked   int
	released int
	lastTTL  time.Duration
}

func (f *fakeLocker) TryLock(_ context.Context, _ string, ttl time.Duration) (string, bool, error) {
	f.lastTTL = ttl
	if f.err != nil {
		return "", false, f.err
	}
	if f.held {
		return "", false, nil
	}
	f.locked++
	return "token", true, nil
}

func (f *fakeLocker) Release(_ context.Context, _, token string) error {
	if token == "token" {
		f.released++
	}
	return nil
}

type webhookCall struct {
	method string
	target string
	fields map[string]string
}

type fakeWebhook struct {
	calls  []webhookCall
	result *webhook.Result
	err    error
}

func (f *fakeWebhook) Push(_ context.Context, method, target string, fields map[string]string) (*webhook.Result, error) {
	f.calls = append(f.calls, webhookCall{method: method, target: target, fields: fields})
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

var errBoom = errors.New("boom")
