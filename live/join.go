package live

import (
	"context"
	"sync"

	"blakwhyte-backend/models"
	"blakwhyte-backend/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BookingSource is what the booking join reads from. *store.Store
// satisfies it.
type BookingSource interface {
	Source
	ListBookings(ctx context.Context) ([]models.Booking, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// CompositeBooking is a booking with its service and client resolved.
// Either pointer is nil when the referenced document does not exist.
type CompositeBooking struct {
	models.Booking
	Service *models.Service `json:"service"`
	Client  *models.User    `json:"client"`
}

func (c CompositeBooking) ServiceName() string {
	if c.Service == nil {
		return "Unknown service"
	}
	return c.Service.Name
}

func (c CompositeBooking) ClientName() string {
	if c.Client == nil {
		return "Unknown client"
	}
	return c.Client.Name
}

// Amount is the price charged for the booking.
func (c CompositeBooking) Amount() decimal.Decimal {
	return c.Booking.Price(c.Service)
}

// JoinBookings pairs every booking with the first service and user whose
// ids match its references. It scans linearly, O(n·m), which is fine for a
// single studio's catalogue and client list.
func JoinBookings(bookings []models.Booking, services []models.Service, users []models.User) []CompositeBooking {
	out := make([]CompositeBooking, 0, len(bookings))
	for _, b := range bookings {
		row := CompositeBooking{Booking: b}
		for i := range services {
			if services[i].ID == b.ServiceID {
				svc := services[i]
				row.Service = &svc
				break
			}
		}
		for i := range users {
			if users[i].ID == b.ClientID {
				user := users[i]
				row.Client = &user
				break
			}
		}
		out = append(out, row)
	}
	return out
}

// Result is the state of the joined view. Data stays empty until all three
// collections have loaded.
type Result struct {
	Data    []CompositeBooking
	Loading bool
	Err     error
}

type joinKey struct {
	bookings *Snapshot[models.Booking]
	services *Snapshot[models.Service]
	users    *Snapshot[models.User]
}

// BookingJoin is the shared joined view of bookings, services and users.
// It subscribes while at least one holder has retained it.
type BookingJoin struct {
	src BookingSource
	log *zap.Logger

	mu         sync.Mutex
	refs       int
	notReady   bool
	bookings   *Query[models.Booking]
	services   *Query[models.Service]
	users      *Query[models.User]
	memoKey    joinKey
	memo       []CompositeBooking
	recomputes int

	listeners    map[int]func()
	nextListener int
}

func NewBookingJoin(src BookingSource, log *zap.Logger) *BookingJoin {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingJoin{
		src:       src,
		log:       log,
		listeners: make(map[int]func()),
	}
}

// Retain subscribes on first use. The returned func releases the hold;
// when the last hold is released every subscription is closed.
func (j *BookingJoin) Retain() (release func()) {
	j.mu.Lock()
	j.refs++
	if j.refs == 1 {
		j.start()
	}
	j.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			j.mu.Lock()
			defer j.mu.Unlock()
			j.refs--
			if j.refs == 0 {
				j.stop()
			}
		})
	}
}

func (j *BookingJoin) start() {
	j.bookings = NewQuery[models.Booking](j.src, store.Bookings, j.src.ListBookings, j.log)
	j.services = NewQuery[models.Service](j.src, store.Services, j.src.ListServices, j.log)
	j.users = NewQuery[models.User](j.src, store.Users, j.src.ListUsers, j.log)
	j.bookings.OnChange(j.changed)
	j.services.OnChange(j.changed)
	j.users.OnChange(j.changed)

	ready, ok := j.src.(interface{ Ready() bool })
	j.notReady = ok && !ready.Ready()

	j.bookings.Start()
	j.services.Start()
	j.users.Start()
}

func (j *BookingJoin) stop() {
	j.bookings.Close()
	j.services.Close()
	j.users.Close()
	j.bookings, j.services, j.users = nil, nil, nil
	j.memo = nil
	j.memoKey = joinKey{}
}

func (j *BookingJoin) changed() {
	j.mu.Lock()
	fns := make([]func(), 0, len(j.listeners))
	for _, fn := range j.listeners {
		fns = append(fns, fn)
	}
	j.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Listen registers fn to run after any of the joined collections changes.
func (j *BookingJoin) Listen(fn func()) (cancel func()) {
	j.mu.Lock()
	j.nextListener++
	id := j.nextListener
	j.listeners[id] = fn
	j.mu.Unlock()
	return func() {
		j.mu.Lock()
		delete(j.listeners, id)
		j.mu.Unlock()
	}
}

// Wait blocks until every collection has finished its first load. It
// fails fast with store.ErrNotReady when nothing can be loaded.
func (j *BookingJoin) Wait(ctx context.Context) error {
	j.mu.Lock()
	if j.refs == 0 || j.notReady {
		j.mu.Unlock()
		return store.ErrNotReady
	}
	chans := []<-chan struct{}{j.bookings.Ready(), j.services.Ready(), j.users.Ready()}
	j.mu.Unlock()

	for _, ch := range chans {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Result returns the current joined view. The join is recomputed only
// when one of the three snapshots has changed since the last call.
func (j *BookingJoin) Result() Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.refs == 0 {
		return Result{Loading: true}
	}

	bs, bLoading, bErr := j.bookings.Current()
	ss, sLoading, sErr := j.services.Current()
	us, uLoading, uErr := j.users.Current()
	for _, err := range []error{bErr, sErr, uErr} {
		if err != nil {
			return Result{Err: err}
		}
	}
	if bLoading || sLoading || uLoading {
		return Result{Loading: true}
	}

	key := joinKey{bookings: bs, services: ss, users: us}
	if j.memo == nil || key != j.memoKey {
		j.memo = JoinBookings(bs.Docs, ss.Docs, us.Docs)
		j.memoKey = key
		j.recomputes++
	}
	return Result{Data: j.memo}
}

// Find returns the joined row for a booking id from the current view.
func (r Result) Find(id string) (CompositeBooking, bool) {
	for _, row := range r.Data {
		if row.ID.String() == id {
			return row, true
		}
	}
	return CompositeBooking{}, false
}
