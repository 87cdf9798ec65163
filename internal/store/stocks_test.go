package store

import (
	"context"
	"sync"
	"testing"

	"github.com/mklavora/fieldstock/internal/db"
)

func TestAddStockAccumulates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	stock, err := AddStock(ctx, database, "Cable-5m", 10, false)
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if stock.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", stock.Quantity)
	}

	// Adding the same name (different case) accumulates.
	stock, err = AddStock(ctx, database, "cable-5M", 5, false)
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if stock.Quantity != 15 {
		t.Errorf("expected quantity 15, got %d", stock.Quantity)
	}

	stocks, _ := ListStocks(ctx, database)
	if len(stocks) != 1 {
		t.Errorf("expected 1 stock row, got %d", len(stocks))
	}
}

func TestAddStockEmergencyFlagSticky(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddStock(ctx, database, "Fiber Patch Cord", 0, true)
	stock, _ := AddStock(ctx, database, "Fiber Patch Cord", 5, false)
	if !stock.IsEmergency {
		t.Error("expected emergency flag to stay set")
	}
}

func TestUpdateStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	stock, _ := AddStock(ctx, database, "Widget", 3, false)

	if err := UpdateStock(ctx, database, stock.ID, "Widget Mk2", 7); err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}

	got, _ := GetStock(ctx, database, stock.ID)
	if got.Name != "Widget Mk2" || got.Quantity != 7 {
		t.Errorf("expected Widget Mk2/7, got %s/%d", got.Name, got.Quantity)
	}

	if err := UpdateStock(ctx, database, 9999, "x", 1); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStockDuplicateName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddStock(ctx, database, "Widget", 1, false)
	other, _ := AddStock(ctx, database, "Gadget", 1, false)

	if err := UpdateStock(ctx, database, other.ID, "widget", 1); err != ErrConflict {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteStockFreesName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	stock, _ := AddStock(ctx, database, "Widget", 5, false)
	if err := DeleteStock(ctx, database, stock.ID); err != nil {
		t.Fatalf("DeleteStock: %v", err)
	}

	if got, _ := GetStock(ctx, database, stock.ID); got != nil {
		t.Error("expected deleted stock to read as absent")
	}

	// Name becomes reusable; the new row starts fresh.
	fresh, err := AddStock(ctx, database, "Widget", 2, false)
	if err != nil {
		t.Fatalf("AddStock after delete: %v", err)
	}
	if fresh.ID == stock.ID {
		t.Error("expected a new row, got the deleted one")
	}
	if fresh.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", fresh.Quantity)
	}
}

func TestDecrementStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	stock, _ := AddStock(ctx, database, "Widget", 5, false)

	if err := DecrementStock(ctx, database, stock.ID, 3); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	got, _ := GetStock(ctx, database, stock.ID)
	if got.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", got.Quantity)
	}

	// Over-decrement fails and leaves the quantity unchanged.
	if err := DecrementStock(ctx, database, stock.ID, 3); err != ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	got, _ = GetStock(ctx, database, stock.ID)
	if got.Quantity != 2 {
		t.Errorf("expected quantity still 2, got %d", got.Quantity)
	}

	if err := DecrementStock(ctx, database, 9999, 1); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDecrementStockConcurrent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	stock, _ := AddStock(ctx, database, "Widget", 5, false)

	// Ten concurrent decrements of 1 against 5 units: exactly 5 succeed.
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- DecrementStock(ctx, database, stock.ID, 1)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch err {
		case nil:
			ok++
		case ErrInsufficientStock:
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 5 || insufficient != 5 {
		t.Errorf("expected 5 successes and 5 failures, got %d/%d", ok, insufficient)
	}

	got, _ := GetStock(ctx, database, stock.ID)
	if got.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", got.Quantity)
	}
}

func TestStockPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	stock, _ := AddStock(ctx, database, "Widget", 1, false)

	if err := SetStockPhoto(ctx, database, stock.ID, []byte("jpegdata"), "image/jpeg"); err != nil {
		t.Fatalf("SetStockPhoto: %v", err)
	}

	data, mime, err := GetStockPhoto(ctx, database, stock.ID)
	if err != nil {
		t.Fatalf("GetStockPhoto: %v", err)
	}
	if string(data) != "jpegdata" || mime != "image/jpeg" {
		t.Errorf("unexpected photo data %q / mime %q", data, mime)
	}

	if _, _, err := GetStockPhoto(ctx, database, 9999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
