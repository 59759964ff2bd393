package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"blakwhyte-backend/models"
	"blakwhyte-backend/store"
	"blakwhyte-backend/store/storetest"
	"blakwhyte-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func TestNilStoreIsNotReady(t *testing.T) {
	s := store.New(nil, nil)
	if _, err := s.ListBookings(context.Background()); !errors.Is(err, store.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if _, err := s.Watch(store.Bookings, func(uint64) {}); !errors.Is(err, store.ErrNotReady) {
		t.Fatalf("expected ErrNotReady from Watch, got %v", err)
	}
}

func TestWatchersSeeEveryWrite(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	var seen []uint64
	cancel, err := s.Watch(store.Services, func(v uint64) { seen = append(seen, v) })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	svc := &models.Service{Name: "Cut", Price: decimal.NewFromInt(40), Duration: 30, IsActive: true}
	if err := s.SaveService(ctx, svc); err != nil {
		t.Fatalf("save: %v", err)
	}
	svc.Price = decimal.NewFromInt(45)
	if err := s.SaveService(ctx, svc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("expected versions [1 2], got %v", seen)
	}

	cancel()
	cancel()
	if err := s.DeleteService(ctx, svc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("cancelled watcher still called: %v", seen)
	}
	if s.Version(store.Services) != 3 {
		t.Fatalf("expected version 3, got %d", s.Version(store.Services))
	}
}

func TestCreateBookingReusesClientByEmail(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	serviceID := uuid.New()

	first := &models.User{Name: "Alice", Email: "Alice@Example.com", Phone: "0821234567"}
	if err := s.CreateBooking(ctx, first, &models.Booking{ServiceID: serviceID, BookingDate: time.Now()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := &models.User{Name: "Alice J", Email: "alice@example.com", Phone: "0827654321"}
	b := &models.Booking{ServiceID: serviceID, BookingDate: time.Now()}
	if err := s.CreateBooking(ctx, second, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected the same client, got %s and %s", first.ID, second.ID)
	}
	if b.ClientID != first.ID {
		t.Fatalf("booking not linked to client")
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 1 || users[0].Name != "Alice J" || users[0].Phone != "0827654321" {
		t.Fatalf("unexpected users: %+v", users)
	}
	if b.Status != models.StatusPending || b.PaymentStatus != models.PaymentUnpaid {
		t.Fatalf("expected Pending/Unpaid, got %s/%s", b.Status, b.PaymentStatus)
	}
}

func TestCompareAndSetBooking(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	b := &models.Booking{ServiceID: uuid.New(), BookingDate: time.Now()}
	if err := s.CreateBooking(ctx, &models.User{Name: "Ben", Email: "ben@example.com"}, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	next := *b
	next.Status = models.StatusConfirmed
	ok, err := s.CompareAndSetBooking(ctx, *b, next)
	if err != nil || !ok {
		t.Fatalf("expected write, got %v %v", ok, err)
	}

	// the stored row no longer matches the stale copy
	stale := *b
	stale.Status = models.StatusPending
	cancelled := *b
	cancelled.Status = models.StatusCancelled
	ok, err = s.CompareAndSetBooking(ctx, stale, cancelled)
	if err != nil || ok {
		t.Fatalf("expected no write, got %v %v", ok, err)
	}

	got, err := s.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusConfirmed {
		t.Fatalf("expected Confirmed, got %s", got.Status)
	}
}

func TestGetMissingDocuments(t *testing.T) {
	s := storetest.New(t)
	if _, err := s.GetBooking(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteService(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeedRunsOnce(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	seeded, err := s.Seed(ctx)
	if err != nil || !seeded {
		t.Fatalf("expected seed, got %v %v", seeded, err)
	}
	seeded, err = s.Seed(ctx)
	if err != nil || seeded {
		t.Fatalf("expected no second seed, got %v %v", seeded, err)
	}

	services, _ := s.ListServices(ctx)
	products, _ := s.ListProducts(ctx)
	images, _ := s.ListGallery(ctx)
	if len(services) != 6 || len(products) != 4 || len(images) != 8 {
		t.Fatalf("unexpected catalogue sizes %d/%d/%d", len(services), len(products), len(images))
	}
}

func TestUpdateAccountAndNotifications(t *testing.T) {
	utils.PasswordCost = bcrypt.MinCost
	s := storetest.New(t)
	ctx := context.Background()

	account := &models.Account{Email: "Owner@Studio.test", Name: "Owner", Password: "hunter22", IsActive: true}
	if err := s.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := s.UpdateAccount(ctx, account.ID, "Studio Owner", ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.AccountByEmail(ctx, "owner@studio.test")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Name != "Studio Owner" || got.Password != account.Password {
		t.Fatalf("unexpected account %+v", got)
	}
	if err := s.UpdateAccount(ctx, uuid.New(), "Nobody", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	bookingID := uuid.New()
	older := &models.NotificationLog{BookingID: bookingID, Kind: models.NotificationRequest, Status: "sent", SentAt: time.Now().Add(-time.Hour)}
	newer := &models.NotificationLog{BookingID: bookingID, Kind: models.NotificationReminder, Status: "failed", SentAt: time.Now()}
	for _, e := range []*models.NotificationLog{older, newer} {
		if err := s.LogNotification(ctx, e); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	entries, err := s.ListNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].Kind != models.NotificationReminder {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if ok, _ := s.HasNotification(ctx, bookingID, models.NotificationReminder); ok {
		t.Fatalf("a failed reminder must not count as sent")
	}
}

func TestProvisionAccounts(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("owner-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	n, err := s.ProvisionAccounts(ctx, []string{" Owner@Studio.test ", "manager@studio.test", ""}, string(hash))
	if err != nil || n != 2 {
		t.Fatalf("expected 2 accounts, got %d (%v)", n, err)
	}
	owner, err := s.AccountByEmail(ctx, "owner@studio.test")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !utils.CheckPasswordHash("owner-pass", owner.Password) {
		t.Fatalf("provisioned hash must be stored as given")
	}
	if owner.Name != "owner" {
		t.Fatalf("unexpected name %q", owner.Name)
	}

	if n, err := s.ProvisionAccounts(ctx, []string{"owner@studio.test"}, string(hash)); err != nil || n != 0 {
		t.Fatalf("existing accounts are kept, got %d (%v)", n, err)
	}
	if _, err := s.ProvisionAccounts(ctx, []string{"x@studio.test"}, ""); err == nil {
		t.Fatalf("expected an error for an empty hash")
	}
}
