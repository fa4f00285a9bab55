// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

// Package metabase is a minimal client for the Metabase HTTP API,
// covering the two operations this program needs: authenticating and
// running a saved question (card) to get its rows.
package metabase

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aruidiaz/mapasalud/utils/httputils"
)

// Common errors returned by the client.
var (
	ErrMissingBaseURL     = errors.New("metabase base URL is required")
	ErrMissingCredentials = errors.New("either an API key or username and password are required")
)

// Options configuration for the Metabase client.
type Options struct {
	// BaseURL is the Metabase instance URL, e.g. https://bi.example.org
	BaseURL string

	// APIKey authenticates every request with the X-API-KEY header.
	// Takes precedence over Username/Password.
	APIKey string

	// Username/Password authenticate via POST /api/session, which
	// yields a session token sent as X-Metabase-Session.
	Username string
	Password string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout for each HTTP request. Defaults to 30s.
	Timeout time.Duration

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

// Client talks to a Metabase instance.
type Client struct {
	baseURL      string
	client       *http.Client
	options      *Options
	sessionToken string
}

// NewClient validates the options and builds the HTTP stack. It does
// not talk to the network: session login happens lazily on the first
// request that needs it.
func NewClient(options *Options) (*Client, error) {
	if options == nil {
		options = &Options{}
	}

	if options.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}

	if options.APIKey == "" && (options.Username == "" || options.Password == "") {
		return nil, ErrMissingCredentials
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableKeepAlives:     false,
		DisableCompression:    false,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "mapasalud/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	}
	if options.APIKey != "" {
		headers["X-API-KEY"] = options.APIKey
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers:   headers,
		Transport: loggingTransport,
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: headerTransport,
	}

	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		client:  client,
		options: options,
	}, nil
}

// login exchanges username/password for a session token.
func (c *Client) login() error {
	body, err := json.Marshal(map[string]string{
		"username": c.options.Username,
		"password": c.options.Password,
	})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/api/session", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("logging into metabase: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logging into metabase: unexpected status %s", resp.Status)
	}

	var session struct {
		ID string `json:"id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}

	if session.ID == "" {
		return errors.New("login response missing session id")
	}

	c.sessionToken = session.ID

	return nil
}

// ensureAuth makes sure requests will carry credentials.
func (c *Client) ensureAuth() error {
	if c.options.APIKey != "" || c.sessionToken != "" {
		return nil
	}

	return c.login()
}

// Logout deletes the session, if one was established. API-key clients
// have nothing to tear down.
func (c *Client) Logout() error {
	if c.sessionToken == "" {
		return nil
	}

	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/api/session", nil)
	if err != nil {
		return fmt.Errorf("building logout request: %w", err)
	}

	req.Header.Set("X-Metabase-Session", c.sessionToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("logging out of metabase: %w", err)
	}
	defer resp.Body.Close()

	c.sessionToken = ""

	return nil
}

// Table is a rectangular result set, ready to be written as CSV.
type Table struct {
	Columns []string
	Rows    [][]string
}

// FetchQuestion runs a saved question and returns its rows. Metabase
// has served this endpoint in two shapes over the years: a flat list
// of row objects, and a legacy {"data": {"cols": …, "rows": …}}
// envelope. Both are accepted.
func (c *Client) FetchQuestion(questionID int) (*Table, error) {
	if err := c.ensureAuth(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/card/%d/query/json", c.baseURL, questionID)
	log.Printf("Fetching metabase question %d", questionID)

	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}

	if c.sessionToken != "" {
		req.Header.Set("X-Metabase-Session", c.sessionToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying question %d: %w", questionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, fmt.Errorf("querying question %d: status %s: %s",
			questionID, resp.Status, strings.TrimSpace(string(snippet)))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading question %d response: %w", questionID, err)
	}

	table, err := decodeTable(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding question %d response: %w", questionID, err)
	}

	log.Printf("Fetched %d rows from question %d", len(table.Rows), questionID)

	return table, nil
}

func decodeTable(payload []byte) (*Table, error) {
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}

	if trimmed[0] == '[' {
		return decodeFlatList(trimmed)
	}

	return decodeLegacyEnvelope(trimmed)
}

// decodeFlatList handles the modern format: a JSON array of objects,
// one per row. Column order is not guaranteed by the wire format, so
// columns are sorted for a deterministic table.
func decodeFlatList(payload []byte) (*Table, error) {
	var rows []map[string]any
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return &Table{}, nil
	}

	columns := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		columns = append(columns, name)
	}

	sort.Strings(columns)

	table := &Table{Columns: columns, Rows: make([][]string, 0, len(rows))}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, name := range columns {
			record[i] = formatCell(row[name])
		}

		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

func decodeLegacyEnvelope(payload []byte) (*Table, error) {
	var envelope struct {
		Data struct {
			Cols []struct {
				DisplayName string `json:"display_name"`
			} `json:"cols"`
			Rows [][]any `json:"rows"`
		} `json:"data"`
	}

	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, err
	}

	if len(envelope.Data.Cols) == 0 {
		return nil, errors.New("unexpected response format")
	}

	table := &Table{
		Columns: make([]string, len(envelope.Data.Cols)),
		Rows:    make([][]string, 0, len(envelope.Data.Rows)),
	}

	for i, col := range envelope.Data.Cols {
		table.Columns[i] = col.DisplayName
	}

	for _, row := range envelope.Data.Rows {
		record := make([]string, len(table.Columns))
		for i := range table.Columns {
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}

		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// WriteCSV writes the table verbatim, header first.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}

	w := csv.NewWriter(file)

	if err := w.Write(t.Columns); err != nil {
		return errors.Join(fmt.Errorf("writing header: %w", err), file.Close())
	}

	if err := w.WriteAll(t.Rows); err != nil {
		return errors.Join(fmt.Errorf("writing rows: %w", err), file.Close())
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Join(fmt.Errorf("flushing %q: %w", path, err), file.Close())
	}

	return file.Close()
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
