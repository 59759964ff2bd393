package controllers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blakwhyte-backend/live"
	"blakwhyte-backend/models"
	"blakwhyte-backend/store/storetest"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type sseFrame struct {
	event string
	data  string
}

// nextFrame reads one server-sent event, skipping the named events.
func nextFrame(t *testing.T, r *bufio.Reader, skip ...string) sseFrame {
	t.Helper()
	var f sseFrame
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			f.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			f.data += strings.TrimPrefix(line, "data:")
		case line == "" && f.event != "":
			skipped := false
			for _, s := range skip {
				if f.event == s {
					skipped = true
				}
			}
			if !skipped {
				return f
			}
			f = sseFrame{}
		}
	}
}

func TestBookingStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := storetest.New(t)
	ctx := context.Background()
	svc := &models.Service{Name: "Signature Facial", Price: decimal.NewFromInt(80), Duration: 60, IsActive: true}
	if err := st.SaveService(ctx, svc); err != nil {
		t.Fatalf("save service: %v", err)
	}

	bc := &BookingController{
		Join:      live.NewBookingJoin(st, nil),
		Currency:  "ZAR",
		Location:  time.UTC,
		Keepalive: 20 * time.Millisecond,
	}
	r := gin.New()
	r.GET("/stream", bc.Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"/stream", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := bufio.NewReader(resp.Body)

	first := nextFrame(t, body)
	if first.event != "bookings" || !strings.Contains(first.data, `"bookings":[]`) {
		t.Fatalf("unexpected first frame %+v", first)
	}
	if ping := nextFrame(t, body, "bookings", "loading"); ping.event != "ping" {
		t.Fatalf("expected a keepalive ping, got %+v", ping)
	}

	client := &models.User{Name: "Alice Johnson", Email: "alice.j@example.com", Phone: "+27825550103"}
	booking := &models.Booking{
		ServiceID:     svc.ID,
		BookingDate:   time.Now().UTC().AddDate(0, 0, 2),
		TimeSlot:      "10:00 AM",
		PriceSnapshot: svc.Price,
	}
	if err := st.CreateBooking(ctx, client, booking); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	// the join may publish an intermediate view before every collection
	// has reloaded
	for {
		f := nextFrame(t, body, "ping", "loading")
		if f.event != "bookings" {
			t.Fatalf("unexpected frame %+v", f)
		}
		if strings.Contains(f.data, `"clientName":"Alice Johnson"`) {
			if !strings.Contains(f.data, `"serviceName":"Signature Facial"`) {
				t.Fatalf("service not resolved in %s", f.data)
			}
			break
		}
	}
}
