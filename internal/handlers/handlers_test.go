package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/decred/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cyphera/cyphera-mpc-billing/internal/auth"
	"github.com/cyphera/cyphera-mpc-billing/internal/billing"
	"github.com/cyphera/cyphera-mpc-billing/internal/client/mpc"
	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
	"github.com/cyphera/cyphera-mpc-billing/internal/mocks"
	"github.com/cyphera/cyphera-mpc-billing/internal/near"
	"github.com/cyphera/cyphera-mpc-billing/internal/signature"
	"github.com/cyphera/cyphera-mpc-billing/internal/subscription"
)

const (
	testOperator = "operator.testnet"
	testAPIKey   = "op-key"
	testPeriod   = uint64(60)
)

type testEnv struct {
	router       *gin.Engine
	ledger       *subscription.Ledger
	signer       *mocks.MockSigner
	orchestrator *billing.Orchestrator
	now          uint64
}

func newTestEnv(t *testing.T, waitTimeout time.Duration) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{}
	price, err := near.ParseNearAmount("10")
	require.NoError(t, err)

	env.ledger = subscription.NewLedger(subscription.NewMemoryStore(), subscription.LedgerConfig{
		PeriodLength: testPeriod,
		Price:        price,
		Clock:        func() uint64 { return env.now },
	})
	env.signer = mocks.NewMockSignerForTest(t)
	env.orchestrator = billing.NewOrchestrator(env.ledger, env.signer, billing.NewMemoryContinuationStore(), billing.Config{
		OperatorAccountID:  testOperator,
		ContractAccountID:  "billing.testnet",
		TokenContractID:    "token.testnet",
		TransferReceiverID: "bets.testnet",
		SignTimeout:        time.Second,
	}, nil)

	subs := NewSubscriptionHandler(env.ledger)
	ops := NewOperatorHandler(env.orchestrator, waitTimeout)
	callbacks := NewSignerCallbackHandler(env.orchestrator)

	r := gin.New()
	v1 := r.Group("/v1")
	v1.GET("/subscriptions", subs.ListSubscriptions)
	v1.GET("/subscriptions/:account_id", subs.GetSubscription)
	me := v1.Group("/subscriptions/me", auth.EnsureAccountID())
	me.POST("", subs.Enroll)
	me.POST("/pay", subs.Pay)
	me.POST("/unsubscribe", subs.Unsubscribe)
	op := v1.Group("/operator", auth.EnsureOperatorAPIKey(testAPIKey, testOperator))
	op.POST("/subscriptions/:account_id/charge", ops.ChargeSubscription)
	op.POST("/subscriptions/:account_id/cancel", ops.CancelSubscription)
	op.POST("/subscriptions/:account_id/transfer", ops.DelegateTransfer)
	op.GET("/sign-requests/:request_id", ops.GetSignRequest)
	v1.POST("/signer/callbacks/:request_id", callbacks.HandleSignOutcome)
	env.router = r
	return env
}

func (e *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func asAccount(id string) map[string]string {
	return map[string]string{constants.HeaderAccountID: id}
}

func asOperator() map[string]string {
	return map[string]string{constants.HeaderAPIKey: testAPIKey}
}

func txBody() map[string]interface{} {
	priv := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x42}, 32))
	return map[string]interface{}{
		"public_key":     "secp256k1:" + base58.Encode(priv.PubKey().SerializeUncompressed()[1:]),
		"nonce":          "9007199254740993",
		"block_hash":     base58.Encode(bytes.Repeat([]byte{0x07}, 32)),
		"signer_deposit": "1",
	}
}

func signResult() *mpc.SignResult {
	return &mpc.SignResult{
		BigR: mpc.AffinePoint{AffinePoint: "00" + strings.Repeat("ab", 32)},
		S:    mpc.Scalar{Scalar: strings.Repeat("cd", 32)},
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSubscriptionHandlers_Lifecycle(t *testing.T) {
	env := newTestEnv(t, time.Second)
	alice := asAccount("alice.testnet")
	price := "10000000000000000000000000"

	w := env.do(http.MethodPost, "/v1/subscriptions/me", nil, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	entry := decode[subscription.Entry](t, w)
	assert.Equal(t, "alice.testnet", entry.AccountID)
	assert.Equal(t, testPeriod, entry.NextPaymentDue)

	w = env.do(http.MethodPost, "/v1/subscriptions/me", nil, alice)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/v1/subscriptions/me/pay", map[string]string{"attached_amount": price}, alice)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "not due yet")

	env.now = 61
	w = env.do(http.MethodPost, "/v1/subscriptions/me/pay", map[string]string{"attached_amount": "5"}, alice)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "wrong deposit")

	w = env.do(http.MethodPost, "/v1/subscriptions/me/pay", `{"attached_amount": 10}`, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code, "amounts are strings")

	w = env.do(http.MethodPost, "/v1/subscriptions/me/pay", map[string]string{"attached_amount": price}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2*testPeriod, decode[subscription.Entry](t, w).NextPaymentDue)

	w = env.do(http.MethodPost, "/v1/subscriptions/me/unsubscribe", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, subscription.UnsubscribePendingNextPeriod, decode[subscription.Entry](t, w).UnsubscribeState)

	w = env.do(http.MethodPost, "/v1/subscriptions/me/unsubscribe", nil, alice)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodGet, "/v1/subscriptions/alice.testnet", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]interface{}](t, w)
	assert.Equal(t, "120", got["next_payment_due"])
	assert.Equal(t, "PendingNextPeriod", got["unsubscribe_state"])

	w = env.do(http.MethodGet, "/v1/subscriptions/bob.testnet", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/v1/subscriptions/Not%20Valid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/v1/subscriptions/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListSubscriptions(t *testing.T) {
	env := newTestEnv(t, time.Second)
	for _, id := range []string{"a.testnet", "b.testnet", "c.testnet"} {
		require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, asAccount(id)).Code)
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []string
	}{
		{name: "all", query: "", wantStatus: http.StatusOK, wantIDs: []string{"a.testnet", "b.testnet", "c.testnet"}},
		{name: "page", query: "?offset=1&limit=1", wantStatus: http.StatusOK, wantIDs: []string{"b.testnet"}},
		{name: "zero limit", query: "?limit=0", wantStatus: http.StatusOK, wantIDs: []string{}},
		{name: "past end", query: "?offset=5", wantStatus: http.StatusOK, wantIDs: []string{}},
		{name: "negative offset", query: "?offset=-1", wantStatus: http.StatusBadRequest},
		{name: "bad limit", query: "?limit=ten", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/v1/subscriptions"+tt.query, nil, nil)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp struct {
				Object string               `json:"object"`
				Data   []subscription.Entry `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "list", resp.Object)
			ids := make([]string, 0, len(resp.Data))
			for _, e := range resp.Data {
				ids = append(ids, e.AccountID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestChargeSubscription_Signed(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, asAccount("alice.testnet")).Code)
	env.now = 61

	env.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, call mpc.SignCall) (*mpc.SignResult, error) {
			assert.Equal(t, "alice.testnet", call.Request.Path)
			assert.Equal(t, "1", call.Deposit.String())
			return signResult(), nil
		})

	w := env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/charge", txBody(), asOperator())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[SignResponse](t, w)
	assert.Equal(t, constants.SignStatusSigned, resp.Status)
	assert.NotEmpty(t, resp.RequestID)
	require.Greater(t, len(resp.SignedTransaction), signature.Size)
	tail := resp.SignedTransaction[len(resp.SignedTransaction)-signature.Size:]
	assert.Equal(t, bytes.Repeat([]byte{0xab}, 32), tail[:32])
	assert.Equal(t, byte(0x00), tail[64])

	w = env.do(http.MethodGet, "/v1/operator/sign-requests/"+resp.RequestID, nil, asOperator())
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[billing.Continuation](t, w)
	assert.Equal(t, constants.SignStatusSigned, status.Status)
	assert.Equal(t, resp.SignedTransaction, status.SignedTx)
}

func TestChargeSubscription_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		account    string
		body       interface{}
		headers    map[string]string
		now        uint64
		wantStatus int
	}{
		{name: "not due", account: "alice.testnet", body: txBody(), headers: asOperator(), now: 60, wantStatus: http.StatusUnprocessableEntity},
		{name: "not enrolled", account: "bob.testnet", body: txBody(), headers: asOperator(), now: 61, wantStatus: http.StatusNotFound},
		{name: "missing api key", account: "alice.testnet", body: txBody(), now: 61, wantStatus: http.StatusUnauthorized},
		{name: "missing nonce", account: "alice.testnet", body: map[string]string{"public_key": "x", "block_hash": "y"}, headers: asOperator(), now: 61, wantStatus: http.StatusBadRequest},
		{name: "bad public key", account: "alice.testnet", body: map[string]string{"public_key": "ed25519:!!", "nonce": "1", "block_hash": "y"}, headers: asOperator(), now: 61, wantStatus: http.StatusUnprocessableEntity},
		{name: "bad account", account: "UPPER", body: txBody(), headers: asOperator(), now: 61, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No Sign expectation: any signer call fails the test.
			env := newTestEnv(t, time.Second)
			require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, asAccount("alice.testnet")).Code)
			env.now = tt.now

			w := env.do(http.MethodPost, "/v1/operator/subscriptions/"+tt.account+"/charge", tt.body, tt.headers)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestChargeSubscription_SkipsUnsubscribedAccount(t *testing.T) {
	env := newTestEnv(t, time.Second)
	alice := asAccount("alice.testnet")
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, alice).Code)

	env.now = 10
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/v1/subscriptions/me/unsubscribe", nil, alice).Code)
	env.now = 65
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/v1/subscriptions/me/pay",
		map[string]string{"attached_amount": "10000000000000000000000000"}, alice).Code)

	env.now = 121
	w := env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/charge", txBody(), asOperator())
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]interface{}](t, w)
	assert.Equal(t, constants.SignStatusSkipped, resp["status"])
	assert.NotContains(t, resp, "request_id")

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/v1/subscriptions/alice.testnet", nil, nil).Code)
}

func TestChargeSubscription_DeferredThenCallback(t *testing.T) {
	env := newTestEnv(t, 20*time.Millisecond)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, asAccount("alice.testnet")).Code)
	env.now = 61

	env.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(nil, nil)

	w := env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/charge", txBody(), asOperator())
	require.Equal(t, http.StatusAccepted, w.Code)
	resp := decode[SignResponse](t, w)
	assert.Equal(t, constants.SignStatusPending, resp.Status)
	assert.Zero(t, env.orchestrator.InFlight(), "handle is dropped once the wait window ends")

	w = env.do(http.MethodGet, "/v1/operator/sign-requests/"+resp.RequestID, nil, asOperator())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.SignStatusPending, decode[billing.Continuation](t, w).Status)

	callbackPath := "/v1/signer/callbacks/" + resp.RequestID
	w = env.do(http.MethodPost, callbackPath, mpc.SignOutcome{Result: signResult()}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, constants.SignStatusSigned, decode[CallbackResponse](t, w).Status)

	w = env.do(http.MethodPost, callbackPath, mpc.SignOutcome{Result: signResult()}, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "second delivery")

	w = env.do(http.MethodGet, "/v1/operator/sign-requests/"+resp.RequestID, nil, asOperator())
	require.Equal(t, http.StatusOK, w.Code)
	cont := decode[billing.Continuation](t, w)
	assert.Equal(t, constants.SignStatusSigned, cont.Status)
	assert.NotEmpty(t, cont.SignedTx)
}

func TestSignerCallback_Failures(t *testing.T) {
	env := newTestEnv(t, 20*time.Millisecond)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, asAccount("alice.testnet")).Code)
	env.now = 61
	env.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(nil, nil)

	w := env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/charge", txBody(), asOperator())
	require.Equal(t, http.StatusAccepted, w.Code)
	requestID := decode[SignResponse](t, w).RequestID

	w = env.do(http.MethodPost, "/v1/signer/callbacks/not-a-uuid", mpc.SignOutcome{Result: signResult()}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/v1/signer/callbacks/"+"6f1c1f0e-8f53-4a55-9b59-3f2a1c9d0e11", mpc.SignOutcome{Result: signResult()}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/v1/signer/callbacks/"+requestID,
		fmt.Sprintf(`{"request_id":"%s","error":"quorum lost"}`, "6f1c1f0e-8f53-4a55-9b59-3f2a1c9d0e11"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "mismatched request id")

	w = env.do(http.MethodPost, "/v1/signer/callbacks/"+requestID, mpc.SignOutcome{Error: "quorum lost"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ack := decode[CallbackResponse](t, w)
	assert.Equal(t, constants.SignStatusFailed, ack.Status)
	assert.Contains(t, ack.Error, "quorum lost")

	w = env.do(http.MethodGet, "/v1/operator/sign-requests/"+requestID, nil, asOperator())
	require.Equal(t, http.StatusOK, w.Code)
	cont := decode[billing.Continuation](t, w)
	assert.Equal(t, constants.SignStatusFailed, cont.Status)
	assert.Contains(t, cont.FailureReason, "quorum lost")
}

func TestChargeSubscription_SignerFailure(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, asAccount("alice.testnet")).Code)
	env.now = 61
	env.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	w := env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/charge", txBody(), asOperator())
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDelegateTransfer(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, asAccount("alice.testnet")).Code)

	env.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, call mpc.SignCall) (*mpc.SignResult, error) {
			assert.Equal(t, "1", call.Deposit.String())
			return signResult(), nil
		})

	body := txBody()
	body["match_id"] = "m-7"
	body["team"] = "Team1"
	body["amount"] = "2500000000000000000000000"

	w := env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/transfer", body, asOperator())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, constants.SignStatusSigned, decode[SignResponse](t, w).Status)

	body["team"] = "Team3"
	w = env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/transfer", body, asOperator())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	delete(body, "match_id")
	w = env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/transfer", body, asOperator())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelSubscription(t *testing.T) {
	env := newTestEnv(t, time.Second)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/subscriptions/me", nil, asAccount("alice.testnet")).Code)

	w := env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/cancel", nil, asOperator())
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[CancelResponse](t, w).Removed)

	env.now = 200
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/v1/subscriptions/me/pay",
		map[string]string{"attached_amount": "10000000000000000000000000"}, asAccount("alice.testnet")).Code)

	w = env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/cancel", nil, asOperator())
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[CancelResponse](t, w).Removed)

	w = env.do(http.MethodPost, "/v1/operator/subscriptions/alice.testnet/cancel", nil, asOperator())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{billing.ErrUnauthorized, http.StatusForbidden},
		{subscription.ErrNotEnrolled, http.StatusNotFound},
		{subscription.ErrAlreadyEnrolled, http.StatusConflict},
		{subscription.ErrAlreadyUnsubscribing, http.StatusConflict},
		{fmt.Errorf("charge: %w", subscription.ErrNotDue), http.StatusUnprocessableEntity},
		{subscription.ErrWrongDeposit, http.StatusUnprocessableEntity},
		{near.ErrInvalidPublicKey, http.StatusUnprocessableEntity},
		{near.ErrInvalidBlockAnchor, http.StatusUnprocessableEntity},
		{billing.ErrRemoteSignerFailure, http.StatusBadGateway},
		{signature.ErrMalformedSignatureComponent, http.StatusBadGateway},
		{billing.ErrSerializationFailure, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}
