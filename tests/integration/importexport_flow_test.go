package integration

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// uploadCSV posts a CSV body as a multipart file upload to a list's import endpoint.
func (app *testApp) uploadCSV(t *testing.T, token, listID, csvBody string, override bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "items.csv")
	if err != nil {
		t.Fatalf("failed to build upload: %v", err)
	}
	if _, err := part.Write([]byte(csvBody)); err != nil {
		t.Fatalf("failed to build upload: %v", err)
	}
	if override {
		if err := writer.WriteField("override", "true"); err != nil {
			t.Fatalf("failed to build upload: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to build upload: %v", err)
	}

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/lists/%s/import", listID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestImportExportFlow_UploadAndDownload(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "csv@test.com", "password123")
	listID := app.createList(t, token, "Imported")

	csvBody := "Name,Quantity,Unit,Category,Priority,Estimated_Price,Bought,Store,Notes\n" +
		"Milk,2,l,Dairy,high,3.5,No,Corner shop,\n" +
		"Bread,1,unit,Bakery,medium,2.5,No,,\n"

	rec := app.uploadCSV(t, token, listID, csvBody, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 importing, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)["result"].(map[string]interface{})
	if result["created"].(float64) != 2 {
		t.Errorf("expected 2 created, got %v", result["created"])
	}
	if _, hasErrors := result["row_errors"]; hasErrors {
		t.Errorf("expected no row errors, got %v", result["row_errors"])
	}

	// The exported CSV contains the header plus both rows.
	rec = app.request("GET", fmt.Sprintf("/api/v1/items/export?list_id=%s", listID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 exporting, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %q", ct)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse exported CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	byName := map[string][]string{}
	for _, record := range records[1:] {
		byName[record[0]] = record
	}
	milk, ok := byName["Milk"]
	if !ok {
		t.Fatal("expected Milk in export")
	}
	if milk[1] != "2" || milk[2] != "l" || milk[3] != "Dairy" || milk[7] != "Corner shop" {
		t.Errorf("unexpected Milk row: %v", milk)
	}
}

func TestImportExportFlow_BadRowsReported(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "badrows@test.com", "password123")
	listID := app.createList(t, token, "Partial")

	csvBody := "Name,Quantity\n" +
		",2\n" +
		"Eggs,12\n"

	rec := app.uploadCSV(t, token, listID, csvBody, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)["result"].(map[string]interface{})
	if result["created"].(float64) != 1 {
		t.Errorf("expected 1 created, got %v", result["created"])
	}
	rowErrors := result["row_errors"].([]interface{})
	if len(rowErrors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(rowErrors))
	}
	if row := rowErrors[0].(map[string]interface{})["row"].(float64); row != 1 {
		t.Errorf("expected error on row 1, got %v", row)
	}
}

func TestImportExportFlow_MissingFile(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "nofile@test.com", "password123")
	listID := app.createList(t, token, "Empty")

	rec := app.request("POST", fmt.Sprintf("/api/v1/lists/%s/import", listID), "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a file, got %d: %s", rec.Code, rec.Body.String())
	}
}
