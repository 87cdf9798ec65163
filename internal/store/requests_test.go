package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/mklavora/fieldstock/internal/db"
	"github.com/mklavora/fieldstock/internal/model"
)

func newEngineer(t *testing.T, database *sql.DB, username string) *model.User {
	t.Helper()
	user, err := CreateUser(context.Background(), database, username, "", "hash", model.RoleEngineer)
	if err != nil {
		t.Fatalf("creating engineer: %v", err)
	}
	return user
}

func TestCreateRequestPreChecksAvailability(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Cable-5m", 3, false)

	req, err := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 3, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.Status != model.StatusPending {
		t.Errorf("expected pending, got %q", req.Status)
	}
	if req.StockName != "Cable-5m" {
		t.Errorf("expected joined stock name, got %q", req.StockName)
	}

	_, err = CreateRequest(ctx, database, eng.ID, &stock.ID, "", 4, "")
	if err != ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	missing := int64(9999)
	_, err = CreateRequest(ctx, database, eng.ID, &missing, "", 1, "")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRequestExactlyOneTarget(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Widget", 5, false)

	if _, err := CreateRequest(ctx, database, eng.ID, nil, "", 1, ""); err == nil {
		t.Error("expected error with neither target set")
	}
	if _, err := CreateRequest(ctx, database, eng.ID, &stock.ID, "Widget", 1, ""); err == nil {
		t.Error("expected error with both targets set")
	}
}

func TestApproveDecrementsLedger(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Cable-5m", 10, false)
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 4, "")

	if err := ApproveRequest(ctx, database, req.ID, "ok"); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	got, _ := GetRequest(ctx, database, req.ID)
	if got.Status != model.StatusApproved {
		t.Errorf("expected approved, got %q", got.Status)
	}
	if got.HODComment != "ok" {
		t.Errorf("expected comment 'ok', got %q", got.HODComment)
	}

	s, _ := GetStock(ctx, database, stock.ID)
	if s.Quantity != 6 {
		t.Errorf("expected quantity 6 after approval, got %d", s.Quantity)
	}

	// Approve is only valid from pending.
	if err := ApproveRequest(ctx, database, req.ID, ""); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApproveInsufficientStockLeavesPending(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Cable-5m", 5, false)
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 4, "")

	// The quantity moved between creation and approval.
	if err := DecrementStock(ctx, database, stock.ID, 3); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}

	if err := ApproveRequest(ctx, database, req.ID, ""); err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, _ := GetRequest(ctx, database, req.ID)
	if got.Status != model.StatusPending {
		t.Errorf("expected request still pending, got %q", got.Status)
	}
	s, _ := GetStock(ctx, database, stock.ID)
	if s.Quantity != 2 {
		t.Errorf("expected quantity unchanged at 2, got %d", s.Quantity)
	}
}

func TestDenyRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Widget", 5, false)
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 2, "")

	if err := DenyRequest(ctx, database, req.ID, "no budget"); err != nil {
		t.Fatalf("DenyRequest: %v", err)
	}

	got, _ := GetRequest(ctx, database, req.ID)
	if got.Status != model.StatusDenied {
		t.Errorf("expected denied, got %q", got.Status)
	}

	// Deny never touches the ledger.
	s, _ := GetStock(ctx, database, stock.ID)
	if s.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", s.Quantity)
	}
}

func TestDispatchRequiresApproval(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Widget", 5, false)
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 2, "")

	if err := DispatchRequest(ctx, database, req.ID, "D-100", ""); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition for pending request, got %v", err)
	}

	ApproveRequest(ctx, database, req.ID, "")

	if err := DispatchRequest(ctx, database, req.ID, "D-100", "sent"); err != nil {
		t.Fatalf("DispatchRequest: %v", err)
	}

	got, _ := GetRequest(ctx, database, req.ID)
	if got.Status != model.StatusDispatched {
		t.Errorf("expected dispatched, got %q", got.Status)
	}
	if got.DocketNumber != "D-100" {
		t.Errorf("expected docket D-100, got %q", got.DocketNumber)
	}
}

func TestFullLifecycleMovesExactQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Cable-5m", 10, false)
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 4, "")

	if err := ApproveRequest(ctx, database, req.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := DispatchRequest(ctx, database, req.ID, "D-100", ""); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := ReceiveRequest(ctx, database, req.ID, eng.ID); err != nil {
		t.Fatalf("receive: %v", err)
	}

	// Stock decreased by exactly 4, once.
	s, _ := GetStock(ctx, database, stock.ID)
	if s.Quantity != 6 {
		t.Errorf("expected ledger quantity 6, got %d", s.Quantity)
	}

	// Personal stock credited with exactly 4.
	holdings, _ := ListPersonalStocks(ctx, database, eng.ID)
	if len(holdings) != 1 || holdings[0].Quantity != 4 {
		t.Fatalf("expected one holding of 4, got %v", holdings)
	}
	if holdings[0].StockName != "Cable-5m" {
		t.Errorf("expected holding of Cable-5m, got %q", holdings[0].StockName)
	}

	got, _ := GetRequest(ctx, database, req.ID)
	if got.Status != model.StatusReceived {
		t.Errorf("expected received, got %q", got.Status)
	}
}

func TestReceiveRequiresDispatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Widget", 5, false)
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 2, "")
	ApproveRequest(ctx, database, req.ID, "")

	if err := ReceiveRequest(ctx, database, req.ID, eng.ID); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition for approved-but-not-dispatched, got %v", err)
	}
}

func TestReceiveOnlyByOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	other := newEngineer(t, database, "eng2")
	stock, _ := AddStock(ctx, database, "Widget", 5, false)
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 2, "")
	ApproveRequest(ctx, database, req.ID, "")
	DispatchRequest(ctx, database, req.ID, "D-1", "")

	// Another engineer sees absence, not a state error.
	if err := ReceiveRequest(ctx, database, req.ID, other.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestEmergencyRequestCreatesLedgerRowOnReceipt(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	req, err := CreateRequest(ctx, database, eng.ID, nil, "Fiber Patch Cord", 2, "urgent")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	// Approval of a free-text request touches no ledger row.
	if err := ApproveRequest(ctx, database, req.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if stocks, _ := ListStocks(ctx, database); len(stocks) != 0 {
		t.Fatalf("expected empty ledger after approval, got %d rows", len(stocks))
	}

	DispatchRequest(ctx, database, req.ID, "D-7", "")
	if err := ReceiveRequest(ctx, database, req.ID, eng.ID); err != nil {
		t.Fatalf("receive: %v", err)
	}

	// Receipt created the row: quantity 0, emergency flag set.
	stock, _ := GetStockByName(ctx, database, "fiber patch cord")
	if stock == nil {
		t.Fatal("expected emergency stock row to exist")
	}
	if stock.Quantity != 0 || !stock.IsEmergency {
		t.Errorf("expected quantity 0 and emergency flag, got %d/%v", stock.Quantity, stock.IsEmergency)
	}

	holdings, _ := ListPersonalStocks(ctx, database, eng.ID)
	if len(holdings) != 1 || holdings[0].Quantity != 2 {
		t.Fatalf("expected holding of 2, got %v", holdings)
	}
}

func TestCancelRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	stock, _ := AddStock(ctx, database, "Widget", 5, false)

	// Pending requests cancel.
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 1, "")
	if err := CancelRequest(ctx, database, req.ID, eng.ID); err != nil {
		t.Fatalf("CancelRequest: %v", err)
	}
	if got, _ := GetRequest(ctx, database, req.ID); got != nil {
		t.Error("expected request gone after cancel")
	}

	// A second cancel reads as absence.
	if err := CancelRequest(ctx, database, req.ID, eng.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second cancel, got %v", err)
	}

	// Denied requests cancel too.
	req, _ = CreateRequest(ctx, database, eng.ID, &stock.ID, "", 1, "")
	DenyRequest(ctx, database, req.ID, "")
	if err := CancelRequest(ctx, database, req.ID, eng.ID); err != nil {
		t.Errorf("expected denied request cancelable, got %v", err)
	}

	// Approved requests don't.
	req, _ = CreateRequest(ctx, database, eng.ID, &stock.ID, "", 1, "")
	ApproveRequest(ctx, database, req.ID, "")
	if err := CancelRequest(ctx, database, req.ID, eng.ID); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition for approved request, got %v", err)
	}
}

func TestCancelOnlyByOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng := newEngineer(t, database, "eng1")
	other := newEngineer(t, database, "eng2")
	stock, _ := AddStock(ctx, database, "Widget", 5, false)
	req, _ := CreateRequest(ctx, database, eng.ID, &stock.ID, "", 1, "")

	if err := CancelRequest(ctx, database, req.ID, other.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestListRequestsScoped(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	eng1 := newEngineer(t, database, "eng1")
	eng2 := newEngineer(t, database, "eng2")
	stock, _ := AddStock(ctx, database, "Widget", 10, false)

	CreateRequest(ctx, database, eng1.ID, &stock.ID, "", 1, "")
	CreateRequest(ctx, database, eng2.ID, &stock.ID, "", 2, "")

	all, err := ListRequests(ctx, database)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 requests, got %d", len(all))
	}

	mine, _ := ListRequestsByEngineer(ctx, database, eng1.ID)
	if len(mine) != 1 {
		t.Errorf("expected 1 request for eng1, got %d", len(mine))
	}
}
