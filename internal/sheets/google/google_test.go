package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"intake/internal/core"
	applog "intake/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, testLogger())
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet",
		CredentialsFile: t.TempDir() + "/missing.json",
	}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestClient_Append(t *testing.T) {
	var gotPath string
	var gotQuery string
	var gotBody struct {
		Values [][]any `json:"values"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Deposits!A7:K7"}}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "Deposits"}, testLogger(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	created := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	amount, returned := 5000.0, 5200.0
	date := "2026-10-01"
	ref, err := c.Append(context.Background(), core.DepositRecord{
		ID:             "rec-1",
		FullName:       "Ann Lee",
		MobileNo:       "9876543210",
		DepositType:    core.DepositFixed,
		DepositDate:    &date,
		Amount:         &amount,
		ReturnedAmount: &returned,
		CreatedAt:      &created,
	})
	require.NoError(t, err)
	assert.Equal(t, "Deposits!A7:K7", ref)

	assert.True(t, strings.Contains(gotPath, "/spreadsheets/sheet-1/values/Deposits!A:K:append"), gotPath)
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	assert.Contains(t, gotQuery, "insertDataOption=INSERT_ROWS")
	require.Len(t, gotBody.Values, 1)
	row := gotBody.Values[0]
	require.Len(t, row, 11)
	assert.Equal(t, "rec-1", row[0])
	assert.Equal(t, "2026-10-16 09:30:00", row[1])
	assert.Equal(t, "Ann Lee", row[2])
	assert.Equal(t, 5000.0, row[8])
	assert.Equal(t, 5200.0, row[9])
	assert.Equal(t, false, row[10])
}

func TestClient_AppendErrors(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	_, err := c.Append(context.Background(), core.DepositRecord{ID: "x"})
	assert.EqualError(t, err, "sheets service not initialized")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	}))
	defer srv.Close()

	c, err = New(context.Background(), Config{SpreadsheetID: "sheet-1"}, testLogger(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Append(context.Background(), core.DepositRecord{})
	assert.EqualError(t, err, "record has no id")

	_, err = c.Append(context.Background(), core.DepositRecord{ID: "rec-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append to sheet Deposits")
}
