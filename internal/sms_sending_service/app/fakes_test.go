package app

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	billingapp "github.com/aradsms/sms_engine/internal/billing_service/app"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type labelKey struct {
	accountID int64
	name      string
}

type defaultKey struct {
	accountID int64
	country   string
}

// memCatalog is an in-memory CatalogRepository.
type memCatalog struct {
	mu            sync.Mutex
	labels        map[labelKey]domain.Label
	products      map[string]domain.Product
	defaults      map[defaultKey][]domain.DefaultProduct
	countries     []domain.Country
	globalPrices  []domain.GlobalProductPrice
	defaultCalls  [][]string
	globalLookups int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		labels:   map[labelKey]domain.Label{},
		products: map[string]domain.Product{},
		defaults: map[defaultKey][]domain.DefaultProduct{},
		countries: []domain.Country{
			{ISOCode: "US", CallingCode: "1"},
			{ISOCode: "GB", CallingCode: "44"},
			{ISOCode: "IN", CallingCode: "91"},
		},
	}
}

func (c *memCatalog) addProduct(p domain.Product) {
	c.products[p.ID] = p
}

func (c *memCatalog) addLabel(l domain.Label) {
	l.IsActive = true
	c.labels[labelKey{l.AccountID, l.Name}] = l
}

func (c *memCatalog) addDefault(accountID int64, country, subtype, productID string) {
	k := defaultKey{accountID, country}
	c.defaults[k] = append(c.defaults[k], domain.DefaultProduct{
		ID:          int64(len(c.defaults[k]) + 1),
		AccountID:   accountID,
		Subtype:     subtype,
		CountryCode: country,
		ProductID:   productID,
		IsActive:    true,
	})
}

func (c *memCatalog) GetActiveLabel(_ context.Context, accountID int64, name string) (*domain.Label, error) {
	l, ok := c.labels[labelKey{accountID, name}]
	if !ok || !l.IsActive {
		return nil, domain.ErrLabelNotFound
	}
	return &l, nil
}

func (c *memCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (c *memCatalog) ListDefaultProducts(_ context.Context, accountID int64, subtypes []string, countryCode string) ([]domain.DefaultProduct, error) {
	c.mu.Lock()
	c.defaultCalls = append(c.defaultCalls, append([]string{countryCode}, subtypes...))
	c.mu.Unlock()

	var out []domain.DefaultProduct
	for _, row := range c.defaults[defaultKey{accountID, countryCode}] {
		if len(subtypes) > 0 && !containsString(subtypes, row.Subtype) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (c *memCatalog) ListCountries(context.Context) ([]domain.Country, error) {
	return c.countries, nil
}

func (c *memCatalog) ListGlobalPrices(context.Context) ([]domain.GlobalProductPrice, error) {
	return c.globalPrices, nil
}

func (c *memCatalog) GetGlobalPrice(_ context.Context, productID, countryCode string) (*domain.GlobalProductPrice, error) {
	c.mu.Lock()
	c.globalLookups++
	c.mu.Unlock()
	for _, p := range c.globalPrices {
		if p.ProductID == productID && p.CountryCode == countryCode {
			return &p, nil
		}
	}
	return nil, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type memProviders map[int64]domain.ServiceProvider

func (m memProviders) GetByID(_ context.Context, id int64) (*domain.ServiceProvider, error) {
	sp, ok := m[id]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return &sp, nil
}

// memAccounts is an in-memory AccountRepository.
type memAccounts struct {
	countries map[int64]string
	noAPI     map[int64]bool
	apiErr    error
}

func (m *memAccounts) GetAccount(_ context.Context, id int64) (*domain.Account, error) {
	country, ok := m.countries[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &domain.Account{ID: id, CountryCode: country, APIAccess: !m.noAPI[id]}, nil
}

func (m *memAccounts) GetCustomerCountry(_ context.Context, accountID int64) (string, error) {
	country, ok := m.countries[accountID]
	if !ok {
		return "", domain.ErrAccountNotFound
	}
	return country, nil
}

func (m *memAccounts) HasAPIAccess(_ context.Context, accountID int64) (bool, error) {
	if m.apiErr != nil {
		return false, m.apiErr
	}
	return !m.noAPI[accountID], nil
}

type creditKey struct {
	accountID int64
	productID string
}

// fakeLedger keeps balances per (account, product) in the product currency.
type fakeLedger struct {
	mu      sync.Mutex
	balance map[creditKey]decimal.Decimal
	used    map[creditKey]decimal.Decimal
	debits  []billingapp.DebitRequest
	failErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balance: map[creditKey]decimal.Decimal{}, used: map[creditKey]decimal.Decimal{}}
}

func (l *fakeLedger) fund(accountID int64, productID, amount string) {
	l.balance[creditKey{accountID, productID}] = mustDecimal(amount)
}

func (l *fakeLedger) CheckBalance(_ context.Context, accountID int64, productID string, price decimal.Decimal, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balance[creditKey{accountID, productID}]
	if !ok {
		return false, nil
	}
	return b.GreaterThanOrEqual(price), nil
}

func (l *fakeLedger) Debit(_ context.Context, req billingapp.DebitRequest) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debits = append(l.debits, req)
	if l.failErr != nil {
		return decimal.Zero, l.failErr
	}
	k := creditKey{req.AccountID, req.ProductID}
	charge := req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Parts)))
	l.balance[k] = l.balance[k].Sub(charge)
	l.used[k] = l.used[k].Add(charge)
	return charge, nil
}

// fakeNormalizer prefixes the calling code to national numbers.
type fakeNormalizer struct{}

func (fakeNormalizer) Normalize(number, callingCode string) (string, bool) {
	digits := strings.TrimLeft(DigitsOnly(number), "0")
	if len(digits) < 6 {
		return "", false
	}
	if strings.HasPrefix(digits, callingCode) && len(digits) > 10 {
		return digits, true
	}
	return callingCode + digits, true
}

func (fakeNormalizer) CallingCodeOf(number string) (string, bool) {
	digits := DigitsOnly(number)
	for _, cc := range []string{"44", "91", "1"} {
		if strings.HasPrefix(digits, cc) {
			return cc, true
		}
	}
	return "", false
}

// memHistory is an in-memory HistoryRepository.
type memHistory struct {
	mu             sync.Mutex
	rows           map[string]domain.SmsHistory
	snapshots      map[string]domain.SmsHistorySnapshot
	creates        int
	deliveryStatus map[string]string
	createErr      error
}

func newMemHistory() *memHistory {
	return &memHistory{
		rows:           map[string]domain.SmsHistory{},
		snapshots:      map[string]domain.SmsHistorySnapshot{},
		deliveryStatus: map[string]string{},
	}
}

func (h *memHistory) Create(_ context.Context, row *domain.SmsHistory, snapshot *domain.SmsHistorySnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.createErr != nil {
		return h.createErr
	}
	h.creates++
	h.rows[row.ID] = *row
	if snapshot != nil {
		h.snapshots[snapshot.SmsID] = *snapshot
	}
	return nil
}

func (h *memHistory) UpdateDeliveryStatus(_ context.Context, smsID, status string, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliveryStatus[smsID] = status
	if row, ok := h.rows[smsID]; ok {
		row.DeliveryStatus = &status
		row.DRReceivedOn = &at
		h.rows[smsID] = row
	}
	return nil
}

func (h *memHistory) GetByID(_ context.Context, smsID string) (*domain.SmsHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	row, ok := h.rows[smsID]
	if !ok {
		return nil, domain.ErrInvalidSmsID
	}
	return &row, nil
}

func (h *memHistory) GetSnapshotBySmsID(_ context.Context, smsID string) (*domain.SmsHistorySnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.snapshots[smsID]
	if !ok {
		return nil, domain.ErrInvalidSmsID
	}
	return &s, nil
}

type staticDeliveryURL string

func (u staticDeliveryURL) GetDeliveryURL(context.Context, int64, string) (string, error) {
	return string(u), nil
}

type enqueuedTask struct {
	name    string
	payload any
	queue   string
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []enqueuedTask
}

func (e *fakeEnqueuer) Enqueue(_ context.Context, taskName string, payload any, queue string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, enqueuedTask{name: taskName, payload: payload, queue: queue})
	return nil
}

type memQueue struct {
	mu        sync.Mutex
	entries   map[string]domain.SmsQueueEntry
	createErr error
}

func newMemQueue() *memQueue {
	return &memQueue{entries: map[string]domain.SmsQueueEntry{}}
}

func (q *memQueue) Create(_ context.Context, e *domain.SmsQueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.createErr != nil {
		return q.createErr
	}
	q.entries[e.SmsID] = *e
	return nil
}

func (q *memQueue) Delete(_ context.Context, smsID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, smsID)
	return nil
}

func (q *memQueue) ListStale(_ context.Context, cutoff time.Time, maxReplays, limit int) ([]domain.SmsQueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.SmsQueueEntry
	for _, e := range q.entries {
		if e.LastQueuedAt().Before(cutoff) && e.ReplayCount < maxReplays {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *memQueue) ClaimReplay(_ context.Context, smsID string, seenCount int, at time.Time) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[smsID]
	if !ok || e.ReplayCount != seenCount {
		return false, nil
	}
	e.ReplayCount++
	e.ReplayedAt = &at
	q.entries[smsID] = e
	return true, nil
}

func (q *memQueue) get(smsID string) (domain.SmsQueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[smsID]
	return e, ok
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subject: subject, data: data})
	return nil
}
