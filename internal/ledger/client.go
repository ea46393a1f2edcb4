package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"month-end-close-backend/internal/services/report"
)

const dateLayout = "2006-01-02"

// Client talks to the ledger company API (QuickBooks Online v3 shape).
type Client struct {
	baseURL      string
	minorVersion int
	http         *http.Client
	creds        CredentialProvider
	logger       logrus.FieldLogger
}

func NewClient(baseURL string, minorVersion int, httpClient *http.Client, creds CredentialProvider, logger logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		minorVersion: minorVersion,
		http:         httpClient,
		creds:        creds,
		logger:       logger,
	}
}

// FetchReport fetches and normalizes a named report for the org's company.
func (c *Client) FetchReport(ctx context.Context, orgID, name string, params ReportParams) (*report.Report, error) {
	cred, err := c.creds.GetValidCredential(ctx, orgID)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("start_date", params.StartDate.Format(dateLayout))
	q.Set("end_date", params.EndDate.Format(dateLayout))
	if params.SummarizeColumnBy != "" {
		q.Set("summarize_column_by", params.SummarizeColumnBy)
	}

	body, err := c.do(ctx, cred, http.MethodGet, "/reports/"+url.PathEscape(name), q, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s report: %w", name, err)
	}
	r, err := report.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s report: %w", name, err)
	}
	return r, nil
}

// FindAccount returns the first account of accountType, optionally with an exact name.
// It returns ErrAccountNotFound when the query matches nothing.
func (c *Client) FindAccount(ctx context.Context, cred Credential, accountType, name string) (*Account, error) {
	query := fmt.Sprintf("select * from Account where AccountType = '%s'", quote(accountType))
	if name != "" {
		query += fmt.Sprintf(" and Name = '%s'", quote(name))
	}
	query += " maxresults 1"

	body, err := c.do(ctx, cred, http.MethodGet, "/query", url.Values{"query": {query}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	var parsed struct {
		QueryResponse struct {
			Account []Account `json:"Account"`
		} `json:"QueryResponse"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "unparsable account query response"}
	}
	if len(parsed.QueryResponse.Account) == 0 {
		return nil, ErrAccountNotFound
	}
	return &parsed.QueryResponse.Account[0], nil
}

// CreateJournalEntry posts entry and returns the ledger's journal entry id.
func (c *Client) CreateJournalEntry(ctx context.Context, cred Credential, entry JournalEntry) (string, error) {
	body, err := c.do(ctx, cred, http.MethodPost, "/journalentry", nil, entry)
	if err != nil {
		return "", err
	}

	var parsed struct {
		JournalEntry *struct {
			ID string `json:"Id"`
		} `json:"JournalEntry"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &APIError{StatusCode: http.StatusOK, Message: "unparsable journal entry response"}
	}
	if parsed.JournalEntry == nil || strings.TrimSpace(parsed.JournalEntry.ID) == "" {
		msg := extractMessage(body, http.StatusOK)
		if msg == fmt.Sprintf("HTTP %d", http.StatusOK) {
			msg = "response did not include a journal entry id"
		}
		return "", &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return parsed.JournalEntry.ID, nil
}

func (c *Client) do(ctx context.Context, cred Credential, method, path string, q url.Values, payload any) ([]byte, error) {
	if cred.RealmID == "" || cred.AccessToken == "" {
		return nil, errors.New("ledger credential is incomplete")
	}
	if q == nil {
		q = url.Values{}
	}
	if c.minorVersion > 0 {
		q.Set("minorversion", strconv.Itoa(c.minorVersion))
	}
	endpoint := fmt.Sprintf("%s/v3/company/%s%s?%s", c.baseURL, url.PathEscape(cred.RealmID), path, q.Encode())

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"module":      "ledger",
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("ledger request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: extractMessage(body, resp.StatusCode)}
	}
	return body, nil
}

func quote(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}
