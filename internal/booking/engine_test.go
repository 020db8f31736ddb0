package booking

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/repository"
	"github.com/anderle/table-reservation/internal/session"
)

func validRequest() Request {
	return Request{
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Phone:     "+44 20 7946 0000",
		Date:      time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		Time:      model.Clock(19 * 60),
		PartySize: 4,
	}
}

func TestValidateAcceptsCompleteRequest(t *testing.T) {
	assert.Nil(t, validate(validRequest()))
}

func TestValidateCollectsAllFieldErrors(t *testing.T) {
	rej := validate(Request{})
	require.NotNil(t, rej)
	assert.Equal(t, CodeFormError, rej.Code)
	for _, field := range []string{"name", "email", "phone", "date", "party_size"} {
		assert.Contains(t, rej.Fields, field)
	}
}

func TestValidateRejectsMalformedEmail(t *testing.T) {
	req := validRequest()
	req.Email = "not-an-address"
	rej := validate(req)
	require.NotNil(t, rej)
	assert.Contains(t, rej.Fields, "email")
	assert.Len(t, rej.Fields, 1)
}

func TestValidateRejectsZeroPartySize(t *testing.T) {
	req := validRequest()
	req.PartySize = 0
	rej := validate(req)
	require.NotNil(t, rej)
	assert.Contains(t, rej.Fields, "party_size")
}

func TestNormalize(t *testing.T) {
	req := normalize(Request{
		Name:  "  Ada Lovelace  ",
		Email: " Ada@Example.COM ",
		Phone: " 123 ",
	})
	assert.Equal(t, "Ada Lovelace", req.Name)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "123", req.Phone)
}

func TestAsRejection(t *testing.T) {
	rej := &Rejection{Code: CodeSlotFull, Remaining: 2}
	got, ok := AsRejection(error(rej))
	require.True(t, ok)
	assert.Equal(t, CodeSlotFull, got.Code)

	_, ok = AsRejection(assert.AnError)
	assert.False(t, ok)
}

// In-memory stores for the engine.  InTx takes one mutex for the whole
// transaction body, which reproduces the serialization the (date, slot)
// allocation row lock provides: two engine transactions never
// interleave between the seat aggregate and the insert.

type memReservationStore struct {
	txMu   sync.Mutex
	rows   []model.Reservation
	nextID uint64
}

func (s *memReservationStore) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(nil)
}

func (s *memReservationStore) LockAllocationTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64) error {
	return nil
}

func (s *memReservationStore) BookedSeatsTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64, excludeID uint64) (int, error) {
	key := date.Format("2006-01-02")
	total := 0
	for _, r := range s.rows {
		if r.SlotID == slotID && r.DateKey() == key && r.ID != excludeID {
			total += r.PartySize
		}
	}
	return total, nil
}

func (s *memReservationStore) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	s.nextID++
	res.ID = s.nextID
	s.rows = append(s.rows, *res)
	return nil
}

func (s *memReservationStore) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	for i, r := range s.rows {
		if r.ID == res.ID {
			s.rows[i] = *res
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *memReservationStore) GetByIDForEmail(ctx context.Context, id uint64, email string) (model.Reservation, error) {
	for _, r := range s.rows {
		if r.ID == id {
			if r.Email != email {
				return model.Reservation{}, repository.ErrForbidden
			}
			return r, nil
		}
	}
	return model.Reservation{}, sql.ErrNoRows
}

type memSlotStore struct {
	slots []model.TimeSlot
}

func (s *memSlotStore) ListActive(ctx context.Context) ([]model.TimeSlot, error) {
	return s.slots, nil
}

func (s *memSlotStore) LockSharedTx(ctx context.Context, tx *sql.Tx, id uint64) (model.TimeSlot, error) {
	for _, sl := range s.slots {
		if sl.ID == id {
			return sl, nil
		}
	}
	return model.TimeSlot{}, sql.ErrNoRows
}

type memOverrideStore struct{}

func (memOverrideStore) DayClosedTx(ctx context.Context, tx *sql.Tx, date time.Time) (bool, error) {
	return false, nil
}

func (memOverrideStore) SlotBlockTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64) (*model.SlotBlock, error) {
	return nil, nil
}

type memSessionStore struct {
	nextID uint64
}

func (s *memSessionStore) CreateTx(ctx context.Context, tx *sql.Tx, sess model.EmailSession) (uint64, error) {
	s.nextID++
	return s.nextID, nil
}

type memSettingsStore struct{}

func (memSettingsStore) Get(ctx context.Context) (model.SiteSettings, error) {
	return model.DefaultSiteSettings(), nil
}

// nopSessionStore satisfies session.Store for a manager that only mints.
type nopSessionStore struct{}

func (nopSessionStore) Create(ctx context.Context, s model.EmailSession) (uint64, error) {
	return 1, nil
}

func (nopSessionStore) FindByTokenHash(ctx context.Context, hash string) (*model.EmailSession, error) {
	return nil, nil
}

func (nopSessionStore) Revoke(ctx context.Context, id uint64) error { return nil }

func newTestEngine(t *testing.T, res *memReservationStore, slots []model.TimeSlot) *Engine {
	t.Helper()
	return &Engine{
		Reservations: res,
		Slots:        &memSlotStore{slots: slots},
		Overrides:    memOverrideStore{},
		Sessions:     &memSessionStore{},
		Settings:     memSettingsStore{},
		SessionMgr:   session.New(nopSessionStore{}, 30*24*time.Hour),
		Restaurant:   "Test",
		Log:          zerolog.Nop(),
	}
}

func TestCreateCommitsReservation(t *testing.T) {
	store := &memReservationStore{}
	eng := newTestEngine(t, store, []model.TimeSlot{slot(t, 2, "16:00", "22:00", 30)})

	conf, err := eng.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotZero(t, conf.Reservation.ID)
	assert.NotEmpty(t, conf.Reservation.Reference)
	assert.NotEmpty(t, conf.RawToken)
	assert.NotZero(t, conf.Session.ID)
	assert.False(t, conf.NotificationSent)
	assert.Len(t, store.rows, 1)
}

// Two requests racing for the last seat of the same (date, slot) must
// serialize on the allocation lock: exactly one commits, the other is
// refused as full with zero seats remaining.
func TestCreateConcurrentLastSeat(t *testing.T) {
	store := &memReservationStore{}
	eng := newTestEngine(t, store, []model.TimeSlot{slot(t, 2, "16:00", "22:00", 12)})

	seed := validRequest()
	seed.PartySize = 11
	_, err := eng.Create(context.Background(), seed)
	require.NoError(t, err)

	start := make(chan struct{})
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, email := range []string{"grace@example.com", "edsger@example.com"} {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			req := validRequest()
			req.Email = email
			req.PartySize = 1
			<-start
			_, err := eng.Create(context.Background(), req)
			results <- err
		}(email)
	}
	close(start)
	wg.Wait()
	close(results)

	var wins, refusals int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		rej, ok := AsRejection(err)
		require.True(t, ok, "unexpected error: %v", err)
		assert.Equal(t, CodeSlotFull, rej.Code)
		assert.Equal(t, 0, rej.Remaining)
		refusals++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, refusals)

	booked, err := store.BookedSeatsTx(context.Background(), nil, seed.Date, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, booked)
}

func TestUpdateRefusedInsideEditWindow(t *testing.T) {
	store := &memReservationStore{}
	eng := newTestEngine(t, store, []model.TimeSlot{slot(t, 2, "16:00", "22:00", 30)})

	soon := validRequest()
	soon.Date = time.Now().UTC().AddDate(0, 0, 1)
	conf, err := eng.Create(context.Background(), soon)
	require.NoError(t, err)

	soon.PartySize = 2
	_, err = eng.Update(context.Background(), conf.Reservation.ID, soon.Email, soon)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, CodeEditWindowClosed, rej.Code)
}
