package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/adapter/storage"
	"github.com/agriflow/marketplace/internal/config"
	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/core/service"
	"github.com/agriflow/marketplace/internal/port"
)

func main() {
	var (
		driver   = flag.String("driver", config.StorageMemory, "storage driver: memory or mysql (uses MYSQL_DSN)")
		stock    = flag.String("stock", "20", "initial listing stock")
		offers   = flag.Int("offers", 50, "number of concurrent offers to accept")
		quantity = flag.String("quantity", "1", "quantity of every offer")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()

	initialStock := decimal.RequireFromString(*stock)
	offerQty := decimal.RequireFromString(*quantity)

	db, closeDB := openStore(ctx, *driver, cfg)
	defer closeDB()

	nop := zap.NewNop()
	listings := service.NewListingService(db, nil, nop)
	offerSvc := service.NewOfferService(db, storage.NewMemoryCache(time.Hour), nil, nil, nop)
	inventory := service.NewInventoryProcessor(db, nil, nop)

	listing, err := listings.CreateListing(ctx, service.CreateListingInput{
		OwnerID:   "stress-farmer",
		CropName:  "Stress Wheat",
		Quantity:  initialStock,
		UnitPrice: decimal.NewFromInt(10),
	})
	if err != nil {
		log.Fatalf("failed to create listing: %v", err)
	}

	ids := make([]string, *offers)
	for i := range ids {
		offer, err := offerSvc.CreateOffer(ctx, service.CreateOfferInput{
			ListingID: listing.ID,
			BuyerID:   fmt.Sprintf("stress-buyer-%d", i),
			Quantity:  offerQty,
			UnitPrice: decimal.NewFromInt(10),
		})
		if err != nil {
			log.Fatalf("failed to create offer %d: %v", i, err)
		}
		ids[i] = offer.ID
	}

	var (
		successCount      atomic.Int32
		insufficientCount atomic.Int32
		resolvedCount     atomic.Int32
		otherCount        atomic.Int32
	)

	var wg sync.WaitGroup
	start := time.Now()

	for _, id := range ids {
		wg.Add(1)
		go func(offerID string) {
			defer wg.Done()

			_, err := inventory.Accept(ctx, offerID)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficientCount.Add(1)
			case errors.Is(err, domain.ErrAlreadyResolved):
				resolvedCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("accept %s: %v", offerID, err)
			}
		}(id)
	}

	wg.Wait()
	elapsed := time.Since(start)

	final, err := db.GetListing(ctx, listing.ID)
	if err != nil {
		log.Fatalf("failed to read listing: %v", err)
	}
	accepted := offerQty.Mul(decimal.NewFromInt32(successCount.Load()))

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Storage:            %s\n", *driver)
	fmt.Printf("Initial Stock:      %s\n", initialStock)
	fmt.Printf("Offers:             %d x %s\n", *offers, offerQty)
	fmt.Printf("Accepted:           %d\n", successCount.Load())
	fmt.Printf("Insufficient stock: %d\n", insufficientCount.Load())
	fmt.Printf("Already resolved:   %d\n", resolvedCount.Load())
	fmt.Printf("Other errors:       %d\n", otherCount.Load())
	fmt.Printf("Final Stock:        %s (%s)\n", final.Stock, final.Status)
	fmt.Printf("Duration:           %v\n", elapsed)
	fmt.Println("==========================================")

	ok := true
	if final.Stock.IsNegative() {
		fmt.Printf("FAIL: stock went negative: %s\n", final.Stock)
		ok = false
	}
	if accepted.GreaterThan(initialStock) {
		fmt.Printf("FAIL: accepted %s exceeds initial stock %s\n", accepted, initialStock)
		ok = false
	}
	if !final.Stock.Add(accepted).Equal(initialStock) {
		fmt.Printf("FAIL: final stock %s + accepted %s != initial %s\n", final.Stock, accepted, initialStock)
		ok = false
	}
	if otherCount.Load() > 0 {
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
	fmt.Println("PASS: stock conserved and never negative")
}

func openStore(ctx context.Context, driver string, cfg *config.Config) (port.DatabaseRepository, func()) {
	if driver != config.StorageMySQL {
		return storage.NewMemoryAdapter(), func() {}
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	return storage.NewMySQLAdapter(db), func() { db.Close() }
}
