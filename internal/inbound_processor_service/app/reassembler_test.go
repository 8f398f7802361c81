package app

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPushQueue = "push_incoming"
	merchantURL   = "https://merchant.test/incoming"
)

type reassemblerFixture struct {
	routing *memRouting
	inbox   *memInbox
	tasks   *fakeEnqueuer
	r       *Reassembler
	clock   time.Time
}

func newReassemblerFixture(t *testing.T) *reassemblerFixture {
	t.Helper()
	routing := &memRouting{
		providers: []domain.IncomingProvider{
			{
				ID: "prov-acme", Name: "Acme", APIName: "acme",
				Params: []domain.IncomingProviderParam{
					{ParamName: "from", CanonicalName: domain.FieldMobileNumber},
					{ParamName: "to", CanonicalName: domain.FieldShortCode},
					{ParamName: "text", CanonicalName: domain.FieldMessage},
					{ParamName: "msgid", CanonicalName: domain.FieldMessageID},
					{ParamName: "concat", CanonicalName: domain.FieldIsMultiPart},
					{ParamName: "total", CanonicalName: domain.FieldTotalParts},
					{ParamName: "seq", CanonicalName: domain.FieldPartNumber},
					{ParamName: "ref", CanonicalName: domain.FieldReferenceID},
				},
			},
			{
				ID: "prov-om", Name: "OpenMarket", APIName: "openmarket",
				Params: []domain.IncomingProviderParam{
					{ParamName: "source", CanonicalName: domain.FieldMobileNumber},
					{ParamName: "destination", CanonicalName: domain.FieldShortCode},
					{ParamName: "data", CanonicalName: domain.FieldMessage},
				},
			},
			{
				ID: "prov-tw", Name: "Twilio", APIName: "twilio",
				Params: []domain.IncomingProviderParam{
					{ParamName: "From", CanonicalName: domain.FieldMobileNumber},
					{ParamName: "To", CanonicalName: domain.FieldShortCode},
					{ParamName: "Body", CanonicalName: domain.FieldMessage},
				},
			},
		},
		numbers: map[string]domain.InboundNumber{
			"12345":       {ID: "in-1", ShortCode: "12345", CountryISO: "US", CallingCode: "1"},
			"5555":        {ID: "in-2", ShortCode: "5555", CountryISO: "US", CallingCode: "1", IsShared: true},
			"4155550123":  {ID: "in-3", ShortCode: "4155550123", CountryISO: "US", CallingCode: "1"},
			"14155550123": {ID: "in-4", ShortCode: "14155550123", CountryISO: "US", CallingCode: "1"},
			"777":         {ID: "in-5", ShortCode: "777", CountryISO: "US", CallingCode: "1"},
		},
		configs: []domain.IncomingConfig{
			{ID: "cfg-1", AccountID: 7, ShortCode: "12345", PushToURL: merchantURL, HTTPMethod: "POST"},
			{ID: "cfg-2", AccountID: 8, ShortCode: "5555", Keyword: "JOIN", PushToURL: merchantURL + "/join", HTTPMethod: "GET", SharedNumber: true},
			{ID: "cfg-3", AccountID: 9, ShortCode: "5555", Keyword: "join", SubKeyword: "gold", PushToURL: merchantURL + "/gold", HTTPMethod: "POST", SharedNumber: true},
			{ID: "cfg-4", AccountID: 10, ShortCode: "14155550123", PushToURL: merchantURL + "/long", HTTPMethod: "POST"},
			{ID: "cfg-5", AccountID: 11, ShortCode: "777"},
		},
	}
	inbox := newMemInbox()
	tasks := &fakeEnqueuer{}
	normalizer := fakeNormalizer{mapped: map[string]string{"4155550123": "14155550123"}}

	f := &reassemblerFixture{
		routing: routing,
		inbox:   inbox,
		tasks:   tasks,
		clock:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.r = NewReassembler(routing, inbox, normalizer, tasks, testPushQueue, discardLogger())
	f.r.now = func() time.Time { return f.clock }
	return f
}

func acmePart(text string, ref, seq, total int) map[string]string {
	return map[string]string{
		"from":   "+44 7700 900123",
		"to":     "12345",
		"text":   text,
		"msgid":  "m-" + strconv.Itoa(seq),
		"concat": "true",
		"total":  strconv.Itoa(total),
		"seq":    strconv.Itoa(seq),
		"ref":    strconv.Itoa(ref),
	}
}

func TestReassembler_SinglePartStoredAndPushed(t *testing.T) {
	f := newReassemblerFixture(t)

	res, err := f.r.SubmitPart(context.Background(), "acme", map[string]string{
		"from": "0044 7700 900123", "to": "12345", "text": "hello", "msgid": "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, res.AllPartsReceived)
	require.NotNil(t, res.ID)
	assert.Contains(t, res.ProviderReply, `"status":"success"`)

	stored := f.inbox.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, *res.ID, stored[0].ID)
	assert.Equal(t, int64(7), stored[0].AccountID)
	assert.Equal(t, "447700900123", stored[0].MobileNumber)
	assert.Equal(t, "abc", stored[0].Response)
	assert.Equal(t, "prov-acme", stored[0].IncomingProviderID)

	pushes := f.tasks.pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, domain.TaskPushIncomingToURL, pushes[0].name)
	assert.Equal(t, testPushQueue, pushes[0].queue)
	assert.Equal(t, domain.PushPayload{
		ID:         *res.ID,
		SentFrom:   "447700900123",
		SentTo:     "12345",
		Msg:        "hello",
		Timestamp:  "2024-03-01 09:00:00",
		URL:        merchantURL,
		HTTPMethod: "POST",
	}, pushes[0].payload)
}

func TestReassembler_TwoPartsJoinedWithOnePush(t *testing.T) {
	f := newReassemblerFixture(t)
	ctx := context.Background()

	first, err := f.r.SubmitPart(ctx, "acme", acmePart("Hello ", 42, 1, 2))
	require.NoError(t, err)
	assert.False(t, first.AllPartsReceived)
	assert.Nil(t, first.ID)
	assert.Empty(t, f.tasks.pushes())
	assert.Empty(t, f.inbox.stored())

	f.clock = f.clock.Add(3 * time.Second)
	second, err := f.r.SubmitPart(ctx, "acme", acmePart("world", 42, 2, 2))
	require.NoError(t, err)
	assert.True(t, second.AllPartsReceived)
	assert.Equal(t, "Hello world", second.Message)
	require.NotNil(t, second.ID)

	pushes := f.tasks.pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, "Hello world", pushes[0].payload.Msg)

	for _, p := range f.inbox.parts {
		assert.Equal(t, domain.PartStatusConsumed, p.Status)
		require.NotNil(t, p.IncomingMessageID)
		assert.Equal(t, *second.ID, *p.IncomingMessageID)
	}
}

func permutations(n int) [][]int {
	if n == 1 {
		return [][]int{{1}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			perm := make([]int, 0, n)
			perm = append(perm, p[:i]...)
			perm = append(perm, n)
			perm = append(perm, p[i:]...)
			out = append(out, perm)
		}
	}
	return out
}

func TestReassembler_AnyArrivalOrderJoinsOnce(t *testing.T) {
	texts := map[int]string{1: "al", 2: "pha", 3: "bet", 4: "!"}
	const total = 4

	for _, order := range permutations(total) {
		order := order
		t.Run(strings.ReplaceAll(intsToString(order), " ", "-"), func(t *testing.T) {
			f := newReassemblerFixture(t)
			ctx := context.Background()

			var last *domain.SubmitResult
			for i, seq := range order {
				res, err := f.r.SubmitPart(ctx, "acme", acmePart(texts[seq], 9, seq, total))
				require.NoError(t, err)
				if i < len(order)-1 {
					assert.False(t, res.AllPartsReceived)
				}
				last = res
			}
			require.True(t, last.AllPartsReceived)
			assert.Equal(t, "alphabet!", last.Message)

			// later fragments for the same reference leave the joined message alone
			res, err := f.r.SubmitPart(ctx, "acme", acmePart("dup", 9, 1, total))
			require.NoError(t, err)
			assert.False(t, res.AllPartsReceived)

			_, err = f.r.SubmitPart(ctx, "acme", acmePart("tail", 9, total+1, total))
			assert.ErrorIs(t, err, domain.ErrInvalidMultipart)

			stored := f.inbox.stored()
			require.Len(t, stored, 1)
			assert.Equal(t, "alphabet!", stored[0].Message)
			assert.Len(t, f.tasks.pushes(), 1)
		})
	}
}

func intsToString(ints []int) string {
	parts := make([]string, len(ints))
	for i, n := range ints {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

func TestReassembler_DuplicatePartDoesNotFillGap(t *testing.T) {
	f := newReassemblerFixture(t)
	ctx := context.Background()

	for _, part := range []map[string]string{
		acmePart("one-", 5, 1, 3),
		acmePart("one again-", 5, 1, 3),
		acmePart("three", 5, 3, 3),
	} {
		res, err := f.r.SubmitPart(ctx, "acme", part)
		require.NoError(t, err)
		assert.False(t, res.AllPartsReceived)
	}
	assert.Empty(t, f.inbox.stored())
	assert.Len(t, f.inbox.parts, 2)

	res, err := f.r.SubmitPart(ctx, "acme", acmePart("two-", 5, 2, 3))
	require.NoError(t, err)
	assert.True(t, res.AllPartsReceived)
	assert.Equal(t, "one-two-three", res.Message)
}

func TestReassembler_RecycledReferenceStartsNewGroup(t *testing.T) {
	f := newReassemblerFixture(t)
	ctx := context.Background()

	_, err := f.r.SubmitPart(ctx, "acme", acmePart("first-a ", 5, 1, 2))
	require.NoError(t, err)
	res, err := f.r.SubmitPart(ctx, "acme", acmePart("first-b", 5, 2, 2))
	require.NoError(t, err)
	require.True(t, res.AllPartsReceived)
	assert.Equal(t, "first-a first-b", res.Message)

	res, err = f.r.SubmitPart(ctx, "acme", acmePart("second-a ", 5, 1, 2))
	require.NoError(t, err)
	assert.False(t, res.AllPartsReceived)
	res, err = f.r.SubmitPart(ctx, "acme", acmePart("second-b", 5, 2, 2))
	require.NoError(t, err)
	require.True(t, res.AllPartsReceived)
	assert.Equal(t, "second-a second-b", res.Message)

	stored := f.inbox.stored()
	require.Len(t, stored, 2)
	assert.Equal(t, "first-a first-b", stored[0].Message)
	assert.Equal(t, "second-a second-b", stored[1].Message)
	assert.Len(t, f.tasks.pushes(), 2)
	assert.Len(t, f.inbox.parts, 4)
}

func TestReassembler_GroupsAreKeyedByReference(t *testing.T) {
	f := newReassemblerFixture(t)
	ctx := context.Background()

	_, err := f.r.SubmitPart(ctx, "acme", acmePart("a1", 1, 1, 2))
	require.NoError(t, err)
	res, err := f.r.SubmitPart(ctx, "acme", acmePart("b2", 2, 2, 2))
	require.NoError(t, err)
	assert.False(t, res.AllPartsReceived)
}

func TestReassembler_SingleFlaggedPartIsNotMultipart(t *testing.T) {
	f := newReassemblerFixture(t)

	res, err := f.r.SubmitPart(context.Background(), "acme", acmePart("whole", 1, 1, 1))
	require.NoError(t, err)
	assert.True(t, res.AllPartsReceived)
	assert.Empty(t, f.inbox.parts)
	assert.Len(t, f.inbox.stored(), 1)
}

func TestReassembler_OpenMarketUDH(t *testing.T) {
	f := newReassemblerFixture(t)
	ctx := context.Background()

	part := func(text, udh string) map[string]string {
		return map[string]string{"source": "447700900123", "destination": "12345", "data": text, "UDH": udh}
	}

	res, err := f.r.SubmitPart(ctx, "openmarket", part("world", "050003CC0202"))
	require.NoError(t, err)
	assert.False(t, res.AllPartsReceived)
	assert.Equal(t, "200", res.ProviderReply)

	res, err = f.r.SubmitPart(ctx, "OpenMarket", part("hello ", "050003CC0201"))
	require.NoError(t, err)
	assert.True(t, res.AllPartsReceived)
	assert.Equal(t, "hello world", res.Message)
	assert.Equal(t, "200", res.ProviderReply)
	require.Len(t, f.inbox.parts, 2)
	assert.Equal(t, 0xCC, f.inbox.parts[0].ReferenceID)
}

func TestReassembler_SharedNumberKeywordRouting(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantAccount int64
		wantKeyword string
		wantSub     string
	}{
		{"keyword only", "JOIN", 8, "JOIN", ""},
		{"keyword and sub keyword", "join gold please", 9, "join", "gold"},
		{"extra whitespace", "  join   gold ", 9, "join", "gold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReassemblerFixture(t)
			res, err := f.r.SubmitPart(context.Background(), "twilio", map[string]string{
				"From": "+447700900123", "To": "5555", "Body": tt.text,
			})
			require.NoError(t, err)
			assert.Equal(t, twilioEmptyResponse, res.ProviderReply)

			stored := f.inbox.stored()
			require.Len(t, stored, 1)
			assert.Equal(t, tt.wantAccount, stored[0].AccountID)
			assert.Equal(t, tt.wantKeyword, stored[0].Keyword)
			assert.Equal(t, tt.wantSub, stored[0].SubKeyword)
		})
	}
}

func TestReassembler_LongCodeIsNormalized(t *testing.T) {
	f := newReassemblerFixture(t)

	_, err := f.r.SubmitPart(context.Background(), "acme", map[string]string{
		"from": "447700900123", "to": "(415) 555-0123", "text": "hi",
	})
	require.NoError(t, err)

	stored := f.inbox.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, "14155550123", stored[0].ShortCode)
	assert.Equal(t, int64(10), stored[0].AccountID)
	require.Len(t, f.tasks.pushes(), 1)
	assert.Equal(t, "14155550123", f.tasks.pushes()[0].payload.SentTo)
}

func TestReassembler_EmptyPushURLStillStores(t *testing.T) {
	f := newReassemblerFixture(t)

	res, err := f.r.SubmitPart(context.Background(), "acme", map[string]string{"from": "447700900123", "to": "777", "text": "hi"})
	require.NoError(t, err)
	assert.True(t, res.AllPartsReceived)
	assert.Len(t, f.inbox.stored(), 1)
	assert.Empty(t, f.tasks.pushes())
}

func TestReassembler_EnqueueFailureIsNotFatal(t *testing.T) {
	f := newReassemblerFixture(t)
	f.tasks.err = errBoom

	res, err := f.r.SubmitPart(context.Background(), "acme", map[string]string{"from": "447700900123", "to": "12345", "text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	require.Len(t, f.inbox.stored(), 1)
	assert.False(t, f.inbox.stored()[0].PushURLStatus)
}

func TestReassembler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		raw      map[string]string
		wantErr  error
		wantCode string
	}{
		{
			name:     "no params",
			provider: "acme",
			raw:      map[string]string{},
			wantErr:  domain.ErrInvalidParams,
		},
		{
			name:     "unknown provider",
			provider: "nobody",
			raw:      map[string]string{"from": "1"},
			wantErr:  domain.ErrInvalidProvider,
		},
		{
			name:     "missing mobile number",
			provider: "acme",
			raw:      map[string]string{"to": "12345", "text": "hi"},
			wantCode: "INCOMING-REQUIRED-MOBILENUMBER",
		},
		{
			name:     "missing short code",
			provider: "acme",
			raw:      map[string]string{"from": "447700900123", "text": "hi"},
			wantCode: "INCOMING-REQUIRED-SHORTCODE",
		},
		{
			name:     "missing message",
			provider: "acme",
			raw:      map[string]string{"from": "447700900123", "to": "12345", "text": " "},
			wantCode: "INCOMING-REQUIRED-MESSAGE",
		},
		{
			name:     "mobile without digits",
			provider: "acme",
			raw:      map[string]string{"from": "unknown", "to": "12345", "text": "hi"},
			wantErr:  domain.ErrInvalidMobileNumber,
		},
		{
			name:     "unprovisioned short code",
			provider: "acme",
			raw:      map[string]string{"from": "447700900123", "to": "99999", "text": "hi"},
			wantErr:  domain.ErrInvalidInboundNumber,
		},
		{
			name:     "unknown keyword on shared number",
			provider: "acme",
			raw:      map[string]string{"from": "447700900123", "to": "5555", "text": "STOP"},
			wantErr:  domain.ErrIncomingConfigNotFound,
		},
		{
			name:     "bad total parts",
			provider: "acme",
			raw:      map[string]string{"from": "447700900123", "to": "12345", "text": "hi", "concat": "1", "total": "two"},
			wantErr:  domain.ErrInvalidMultipart,
		},
		{
			name:     "missing reference",
			provider: "acme",
			raw:      map[string]string{"from": "447700900123", "to": "12345", "text": "hi", "concat": "1", "total": "2", "seq": "1"},
			wantErr:  domain.ErrInvalidMultipart,
		},
		{
			name:     "part above total",
			provider: "acme",
			raw:      acmePart("extra", 9, 3, 2),
			wantErr:  domain.ErrInvalidMultipart,
		},
		{
			name:     "udh part above total",
			provider: "openmarket",
			raw:      map[string]string{"source": "447700900123", "destination": "12345", "data": "hi", "UDH": "050003CC0203"},
			wantErr:  domain.ErrInvalidMultipart,
		},
		{
			name:     "bad udh",
			provider: "openmarket",
			raw:      map[string]string{"source": "447700900123", "destination": "12345", "data": "hi", "UDH": "zz"},
			wantErr:  domain.ErrInvalidMultipart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReassemblerFixture(t)
			res, err := f.r.SubmitPart(context.Background(), tt.provider, tt.raw)
			require.Error(t, err)
			assert.Nil(t, res)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantCode != "" {
				var reqErr *domain.RequiredFieldError
				require.True(t, errors.As(err, &reqErr))
				assert.Equal(t, tt.wantCode, err.Error())
			}
			assert.Empty(t, f.inbox.stored())
			assert.Empty(t, f.tasks.pushes())
		})
	}
}

func TestReassembler_RepositoryErrorIsWrapped(t *testing.T) {
	f := newReassemblerFixture(t)
	f.routing.err = errBoom

	_, err := f.r.SubmitPart(context.Background(), "acme", map[string]string{"from": "1"})
	assert.ErrorIs(t, err, errBoom)
}

func TestReassembler_CompleteStaleJoinsWhatArrived(t *testing.T) {
	f := newReassemblerFixture(t)
	ctx := context.Background()

	for _, seq := range []int{3, 1} {
		_, err := f.r.SubmitPart(ctx, "acme", acmePart("p"+strconv.Itoa(seq), 77, seq, 3))
		require.NoError(t, err)
	}
	key := f.inbox.parts[0].Key()

	sms, err := f.r.CompleteStale(ctx, domain.StaleGroup{PartGroupKey: key, IncomingProviderID: "prov-acme", TotalParts: 3})
	require.NoError(t, err)
	assert.Equal(t, "p1p3", sms.Message)
	assert.Equal(t, int64(7), sms.AccountID)
	require.Len(t, f.tasks.pushes(), 1)
	assert.Equal(t, "p1p3", f.tasks.pushes()[0].payload.Msg)

	_, err = f.r.CompleteStale(ctx, domain.StaleGroup{PartGroupKey: key, TotalParts: 3})
	assert.ErrorIs(t, err, domain.ErrGroupConsumed)
	assert.Len(t, f.inbox.stored(), 1)
}

func TestReassembler_CompleteStaleIgnoresPartsAboveTotal(t *testing.T) {
	f := newReassemblerFixture(t)
	ctx := context.Background()

	_, err := f.r.SubmitPart(ctx, "acme", acmePart("a", 9, 1, 2))
	require.NoError(t, err)
	res, err := f.r.SubmitPart(ctx, "acme", acmePart("b", 9, 2, 2))
	require.NoError(t, err)
	require.True(t, res.AllPartsReceived)
	key := f.inbox.parts[0].Key()

	// a stray fragment numbered past its total, left pending after the join
	_, err = f.inbox.SavePart(ctx, &domain.IncomingSmsPart{
		ID: "stray", AccountID: key.AccountID, ShortCode: key.ShortCode, MobileNumber: key.MobileNumber,
		ReferenceID: key.ReferenceID, IncomingProviderID: "prov-acme", Message: "X",
		PartNumber: 3, TotalParts: 2, Status: domain.PartStatusPending, CreatedAt: f.clock,
	})
	require.NoError(t, err)

	_, err = f.r.CompleteStale(ctx, domain.StaleGroup{PartGroupKey: key, IncomingProviderID: "prov-acme", TotalParts: 2})
	assert.ErrorIs(t, err, domain.ErrNoJoinableParts)

	stored := f.inbox.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, "ab", stored[0].Message)
	assert.Len(t, f.tasks.pushes(), 1)
}

func TestReassembler_CompleteStaleSkipsOutOfRangeFragment(t *testing.T) {
	f := newReassemblerFixture(t)
	ctx := context.Background()

	_, err := f.r.SubmitPart(ctx, "acme", acmePart("p1", 21, 1, 2))
	require.NoError(t, err)
	key := f.inbox.parts[0].Key()
	_, err = f.inbox.SavePart(ctx, &domain.IncomingSmsPart{
		ID: "stray", AccountID: key.AccountID, ShortCode: key.ShortCode, MobileNumber: key.MobileNumber,
		ReferenceID: key.ReferenceID, IncomingProviderID: "prov-acme", Message: "X",
		PartNumber: 3, TotalParts: 2, Status: domain.PartStatusPending, CreatedAt: f.clock,
	})
	require.NoError(t, err)

	sms, err := f.r.CompleteStale(ctx, domain.StaleGroup{PartGroupKey: key, IncomingProviderID: "prov-acme", TotalParts: 2})
	require.NoError(t, err)
	assert.Equal(t, "p1", sms.Message)
	require.Len(t, f.tasks.pushes(), 1)
	assert.Equal(t, "p1", f.tasks.pushes()[0].payload.Msg)
}

func TestDecodeUDH(t *testing.T) {
	tests := []struct {
		udh                    string
		wantRef, wantTot, want int
		wantErr                bool
	}{
		{udh: "050003CC0201", wantRef: 0xCC, wantTot: 2, want: 1},
		{udh: "050003cc0202", wantRef: 0xCC, wantTot: 2, want: 2},
		{udh: "06080412340302", wantRef: 0x1234, wantTot: 3, want: 2},
		{udh: "0A0A0300000000030A0201", wantRef: 0x0A, wantTot: 2, want: 1},
		{udh: "", wantErr: true},
		{udh: "0500", wantErr: true},
		{udh: "050003CC0200", wantErr: true},
		{udh: "050003CC0203", wantErr: true},
		{udh: "0401020304", wantErr: true},
		{udh: "not hex", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.udh, func(t *testing.T) {
			ref, total, part, err := decodeUDH(tt.udh)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidMultipart)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, ref)
			assert.Equal(t, tt.wantTot, total)
			assert.Equal(t, tt.want, part)
		})
	}
}

func TestNumericNumber(t *testing.T) {
	tests := map[string]string{
		"00019393":            "19393",
		"akd kskdfk 020 k299": "20299",
		"101010101..2":        "1010101012",
		"10.2":                "102",
		"000000000000":        "0",
		"+1 (415) 555-0100":   "14155550100",
		"none":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, numericNumber(in), in)
	}
}

func TestFormatReply(t *testing.T) {
	id := "abc"
	res := &domain.SubmitResult{Status: StatusSuccess, AllPartsReceived: true, ID: &id}

	assert.Equal(t, "OK", FormatReply("smsglobal", res))
	assert.Equal(t, "", FormatReply("gupshup", res))
	assert.Equal(t, "True", FormatReply("SMSPortal", res))
	assert.Equal(t, twilioEmptyResponse, FormatReply("twilio", res))
	assert.JSONEq(t, `{"status":"success","all_parts_received":true,"id":"abc"}`, FormatReply("acme", res))

	assert.Equal(t, "application/xml", ReplyContentType("twilio"))
	assert.Equal(t, "application/json", ReplyContentType("acme"))
	assert.Equal(t, "text/plain; charset=utf-8", ReplyContentType("nexmo"))
}
