package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		TransactionID: "T001",
		Date:          "2024-12-01",
		ProductID:     "P101",
		ProductName:   "Laptop",
		Quantity:      2,
		UnitPrice:     decimal.NewFromInt(45000),
		CustomerID:    "C001",
		Region:        "North",
	}
}

func TestTransaction_LineTotal(t *testing.T) {
	tx := validTransaction()
	tx.Quantity = 3
	tx.UnitPrice = decimal.RequireFromString("19.99")

	if got := tx.LineTotal(); !got.Equal(decimal.RequireFromString("59.97")) {
		t.Errorf("LineTotal() = %s, want 59.97", got)
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr string
	}{
		{name: "valid", mutate: func(*Transaction) {}},
		{name: "empty customer", mutate: func(tx *Transaction) { tx.CustomerID = "" }, wantErr: "customer ID is empty"},
		{name: "empty region", mutate: func(tx *Transaction) { tx.Region = "" }, wantErr: "region is empty"},
		{name: "zero quantity", mutate: func(tx *Transaction) { tx.Quantity = 0 }, wantErr: "quantity 0"},
		{name: "negative quantity", mutate: func(tx *Transaction) { tx.Quantity = -1 }, wantErr: "quantity -1"},
		{name: "zero price", mutate: func(tx *Transaction) { tx.UnitPrice = decimal.Zero }, wantErr: "unit price 0"},
		{name: "bad id prefix", mutate: func(tx *Transaction) { tx.TransactionID = "X001" }, wantErr: "does not start with"},
		{name: "lower-case prefix", mutate: func(tx *Transaction) { tx.TransactionID = "t001" }, wantErr: "does not start with"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)

			err := tx.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_ValidateReportsEveryProblem(t *testing.T) {
	tx := Transaction{TransactionID: "A1", Quantity: 0, UnitPrice: decimal.NewFromInt(-5)}

	err := tx.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Count(err.Error(), ";"); got != 4 {
		t.Errorf("expected 5 problems joined by ';', got %d separators in %q", got, err.Error())
	}
}

func TestFilterOptions_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterOptions
		want   bool
	}{
		{"zero value", FilterOptions{}, true},
		{"region", FilterOptions{Region: "North"}, false},
		{"min only", FilterOptions{MinAmount: decimal.NewNullDecimal(decimal.NewFromInt(1))}, false},
		{"max only", FilterOptions{MaxAmount: decimal.NewNullDecimal(decimal.Zero)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateRange_String(t *testing.T) {
	var empty *DateRange
	if got := empty.String(); got != "N/A" {
		t.Errorf("nil range = %q, want N/A", got)
	}

	r := &DateRange{From: "2024-12-01", To: "2024-12-05"}
	if got := r.String(); got != "2024-12-01 to 2024-12-05" {
		t.Errorf("String() = %q", got)
	}
}

func TestProductCatalogEntry_JSON(t *testing.T) {
	var entries []ProductCatalogEntry
	payload := `[{"id": 1, "title": "Essence Mascara", "category": "beauty", "brand": "Essence", "rating": 4.94},
		{"title": "No id"},
		{"id": 2, "brand": null}]`

	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if entries[0].ID == nil || *entries[0].ID != 1 || *entries[0].Rating != 4.94 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].ID != nil {
		t.Error("missing id should decode as nil")
	}
	if entries[2].Brand != nil || entries[2].Title != nil {
		t.Error("null and absent fields should decode as nil")
	}
}

func TestEnrichedTransaction_JSONHidesStatus(t *testing.T) {
	category := "laptops"
	enriched := EnrichedTransaction{
		Transaction: validTransaction(),
		APICategory: &category,
		APIMatch:    true,
		Status:      MatchFound,
	}

	data, err := json.Marshal(enriched)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{`"transaction_id":"T001"`, `"api_category":"laptops"`, `"api_brand":null`, `"api_match":true`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, "matched") {
		t.Errorf("match status should not be serialised: %s", out)
	}
}
