package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestAnalyticsFlow_BatchAddAndReport(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "reports@test.com", "password123")

	listID := app.createList(t, token, "Party Supplies")
	snacksID := app.createCategory(t, token, "Snacks")

	// Step 1: Batch-add three items sharing category and priority defaults.
	// The last line overrides the priority for itself only.
	rec := app.request("POST", fmt.Sprintf("/api/v1/lists/%s/items/batch", listID),
		fmt.Sprintf(`{
			"default_category_id": %q,
			"default_priority": "high",
			"items": [
				{"name":"Chips","quantity":2,"estimated_price":2.5,"actual_price":2.5},
				{"name":"Soda","quantity":1,"unit":"l","estimated_price":3.0},
				{"name":"Napkins","priority":"low"}
			]
		}`, snacksID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 batch-adding, got %d: %s", rec.Code, rec.Body.String())
	}
	batch := parseJSON(t, rec)
	if batch["created"].(float64) != 3 {
		t.Fatalf("expected 3 created, got %v", batch["created"])
	}
	items := batch["items"].([]interface{})
	first := items[0].(map[string]interface{})
	if first["category_id"].(string) != snacksID {
		t.Errorf("expected default category applied, got %v", first["category_id"])
	}
	if first["priority"].(string) != "high" {
		t.Errorf("expected default priority high, got %v", first["priority"])
	}
	last := items[2].(map[string]interface{})
	if last["priority"].(string) != "low" {
		t.Errorf("expected the line's own priority to win, got %v", last["priority"])
	}
	chipsID := first["id"].(string)

	// Step 2: Buy the chips.
	rec = app.request("POST", fmt.Sprintf("/api/v1/items/%s/bought", chipsID),
		`{"bought":true}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 marking bought, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 3: Today's spend report covers the purchase and the pending items.
	today := time.Now().Format("2006-01-02")
	rec = app.request("GET",
		fmt.Sprintf("/api/v1/analytics/report?start_date=%s&end_date=%s", today, today), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	report := parseJSON(t, rec)["report"].(map[string]interface{})
	if report["total_items"].(float64) != 3 {
		t.Errorf("expected 3 items in report, got %v", report["total_items"])
	}
	if report["bought_items"].(float64) != 1 {
		t.Errorf("expected 1 bought item, got %v", report["bought_items"])
	}
	if report["total_spent"].(float64) != 5.0 {
		t.Errorf("expected 5.0 spent, got %v", report["total_spent"])
	}
	categories := report["categories"].([]interface{})
	if len(categories) != 1 {
		t.Fatalf("expected one category line, got %d", len(categories))
	}
	snacksLine := categories[0].(map[string]interface{})
	if snacksLine["category_name"].(string) != "Snacks" {
		t.Errorf("expected Snacks line, got %v", snacksLine["category_name"])
	}
	if snacksLine["item_count"].(float64) != 3 || snacksLine["bought_count"].(float64) != 1 {
		t.Errorf("expected 1/3 bought, got %v/%v", snacksLine["bought_count"], snacksLine["item_count"])
	}

	// Step 4: The dashboard reflects the same state.
	rec = app.request("GET", "/api/v1/analytics/dashboard", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	dashboard := parseJSON(t, rec)["dashboard"].(map[string]interface{})
	if dashboard["total_lists"].(float64) != 1 {
		t.Errorf("expected 1 list, got %v", dashboard["total_lists"])
	}
	if dashboard["bought_items"].(float64) != 1 {
		t.Errorf("expected 1 bought item, got %v", dashboard["bought_items"])
	}
	if dashboard["used_budget"].(float64) != 5.0 {
		t.Errorf("expected 5.0 used budget, got %v", dashboard["used_budget"])
	}
	priorities := dashboard["priority_counts"].(map[string]interface{})
	if priorities["high"].(float64) != 2 || priorities["low"].(float64) != 1 {
		t.Errorf("expected 2 high / 1 low, got %v/%v", priorities["high"], priorities["low"])
	}
	recent := dashboard["recent_lists"].([]interface{})
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent list, got %d", len(recent))
	}
	if recent[0].(map[string]interface{})["name"].(string) != "Party Supplies" {
		t.Errorf("unexpected recent list: %v", recent[0])
	}
}

func TestAnalyticsFlow_ReportValidation(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "reportedge@test.com", "password123")

	// Missing dates
	rec := app.request("GET", "/api/v1/analytics/report", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without dates, got %d: %s", rec.Code, rec.Body.String())
	}

	// Malformed date
	rec = app.request("GET", "/api/v1/analytics/report?start_date=yesterday&end_date=2026-01-01", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %d: %s", rec.Code, rec.Body.String())
	}

	// Inverted range
	rec = app.request("GET", "/api/v1/analytics/report?start_date=2026-02-01&end_date=2026-01-01", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %d: %s", rec.Code, rec.Body.String())
	}

	// No token
	rec = app.request("GET", "/api/v1/analytics/dashboard", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d: %s", rec.Code, rec.Body.String())
	}
}
