package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct {
	cred Credential
	err  error
}

func (s staticCreds) GetValidCredential(ctx context.Context, orgID string) (Credential, error) {
	return s.cred, s.err
}

var testCred = Credential{AccessToken: "token-1", RealmID: "realm-9"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(srv.URL, 65, srv.Client(), staticCreds{cred: testCred}, logger)
}

func TestClient_FetchReport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/company/realm-9/reports/ProfitAndLoss", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-05-31", r.URL.Query().Get("end_date"))
		assert.Equal(t, "Month", r.URL.Query().Get("summarize_column_by"))
		assert.Equal(t, "65", r.URL.Query().Get("minorversion"))
		assert.False(t, r.URL.Query().Has("accounting_method"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"Header":{"ReportName":"ProfitAndLoss"},
			"Columns":{"Column":[{"ColTitle":""},{"ColTitle":"Total"}]},
			"Rows":{"Row":[{"ColData":[{"value":"Rent","id":"60"},{"value":"-5.00"}]}]}}`))
	})

	r, err := client.FetchReport(context.Background(), "org-1", "ProfitAndLoss", ReportParams{
		StartDate:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		SummarizeColumnBy: "Month",
	})

	require.NoError(t, err)
	assert.Equal(t, "ProfitAndLoss", r.Name)
	assert.Len(t, r.Nodes, 1)
}

func TestClient_FetchReport_FaultEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"Fault":{"Error":[{"Message":"Invalid Date","Detail":"start_date is after end_date"}],"type":"ValidationFault"}}`))
	})

	_, err := client.FetchReport(context.Background(), "org-1", "ProfitAndLoss", ReportParams{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid Date: start_date is after end_date", apiErr.Message)
}

func TestClient_FetchReport_CredentialError(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client := NewClient("http://unused", 0, nil, staticCreds{err: ErrNoConnection}, logger)

	_, err := client.FetchReport(context.Background(), "org-1", "ProfitAndLoss", ReportParams{})

	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestClient_FindAccount(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v3/company/realm-9/query", r.URL.Path)
			assert.Equal(t,
				"select * from Account where AccountType = 'Other Current Liability' and Name = 'Accrued Liabilities' maxresults 1",
				r.URL.Query().Get("query"))
			w.Write([]byte(`{"QueryResponse":{"Account":[{"Id":"90","Name":"Accrued Liabilities","AccountType":"Other Current Liability","Active":true}]}}`))
		})

		acct, err := client.FindAccount(context.Background(), testCred, AccountTypeOtherCurrentLiability, "Accrued Liabilities")

		require.NoError(t, err)
		assert.Equal(t, "90", acct.ID)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"QueryResponse":{}}`))
		})

		_, err := client.FindAccount(context.Background(), testCred, AccountTypeAccountsPayable, "")

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("transport error is not not-found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"fault":{"error":[{"message":"AuthenticationFailed"}]}}`))
		})

		_, err := client.FindAccount(context.Background(), testCred, AccountTypeAccountsPayable, "")

		assert.False(t, errors.Is(err, ErrAccountNotFound))
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "AuthenticationFailed", apiErr.Message)
	})
}

func TestClient_CreateJournalEntry(t *testing.T) {
	entry := JournalEntry{
		TxnDate:     "2024-06-30",
		PrivateNote: "Accrual",
		Line: []JournalLine{
			{Amount: decimal.NewFromInt(2000), DetailType: "JournalEntryLineDetail",
				JournalEntryLineDetail: JournalEntryLineDetail{PostingType: PostingTypeDebit, AccountRef: Ref{Value: "60"}}},
			{Amount: decimal.NewFromInt(2000), DetailType: "JournalEntryLineDetail",
				JournalEntryLineDetail: JournalEntryLineDetail{PostingType: PostingTypeCredit, AccountRef: Ref{Value: "90"}}},
		},
	}

	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v3/company/realm-9/journalentry", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			lines := body["Line"].([]any)
			require.Len(t, lines, 2)
			assert.Equal(t, 2000.0, lines[0].(map[string]any)["Amount"])
			w.Write([]byte(`{"JournalEntry":{"Id":"501","TxnDate":"2024-06-30"},"time":"2024-07-01T00:00:00Z"}`))
		})

		id, err := client.CreateJournalEntry(context.Background(), testCred, entry)

		require.NoError(t, err)
		assert.Equal(t, "501", id)
	})

	t.Run("missing id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"JournalEntry":{}}`))
		})

		_, err := client.CreateJournalEntry(context.Background(), testCred, entry)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "response did not include a journal entry id", apiErr.Message)
	})

	t.Run("unparsable body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		})

		_, err := client.CreateJournalEntry(context.Background(), testCred, entry)

		assert.ErrorContains(t, err, "unparsable journal entry response")
	})

	t.Run("server error without envelope", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.CreateJournalEntry(context.Background(), testCred, entry)

		assert.EqualError(t, err, "ledger api error 503: HTTP 503")
	})
}

func TestJournalEntry_Balanced(t *testing.T) {
	debit := JournalLine{Amount: decimal.RequireFromString("10.005"), JournalEntryLineDetail: JournalEntryLineDetail{PostingType: PostingTypeDebit}}
	credit := JournalLine{Amount: decimal.RequireFromString("10.005"), JournalEntryLineDetail: JournalEntryLineDetail{PostingType: PostingTypeCredit}}

	assert.True(t, JournalEntry{Line: []JournalLine{debit, credit}}.Balanced())
	assert.False(t, JournalEntry{Line: []JournalLine{debit}}.Balanced())
	assert.False(t, JournalEntry{}.Balanced())
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"fault detail only", `{"Fault":{"Error":[{"Detail":"Account is inactive"}]}}`, "Account is inactive"},
		{"oauth", `{"error":"invalid_grant","error_description":"Token expired"}`, "Token expired"},
		{"error string", `{"error":"invalid_client"}`, "invalid_client"},
		{"error object", `{"error":{"message":"rate limited"}}`, "rate limited"},
		{"message", `{"message":"Gateway timeout"}`, "Gateway timeout"},
		{"not json", `oops`, "HTTP 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMessage([]byte(tt.body), 500))
		})
	}
}
