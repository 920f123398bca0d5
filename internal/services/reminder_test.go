package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"gatherly/internal/models"

	"github.com/sirupsen/logrus"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeReminderStore keeps reminders in memory and mirrors the query
// semantics of the SQL repository: FindDue returns scheduled reminders with
// send_at <= notAfter, earliest first, capped at limit.
type fakeReminderStore struct {
	mu        sync.Mutex
	reminders []*models.Reminder
	nextID    int

	insertErr error
	findErr   error
	updateErr map[string]error

	updateCalls []string
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{updateErr: make(map[string]error)}
}

func (s *fakeReminderStore) InsertMany(_ context.Context, reminders []*models.Reminder) ([]*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	for _, r := range reminders {
		s.nextID++
		r.ID = fmt.Sprintf("rem-%d", s.nextID)
		s.reminders = append(s.reminders, r)
	}
	return reminders, nil
}

func (s *fakeReminderStore) FindDue(_ context.Context, notAfter time.Time, limit int) ([]*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var due []*models.Reminder
	for _, r := range s.reminders {
		if r.Status == models.ReminderScheduled && !r.SendAt.After(notAfter) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].SendAt.Before(due[j].SendAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *fakeReminderStore) UpdateStatus(_ context.Context, id string, status models.ReminderStatus, sendErr *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls = append(s.updateCalls, id)
	if err := s.updateErr[id]; err != nil {
		return err
	}
	for _, r := range s.reminders {
		if r.ID == id {
			r.Status = status
			r.Error = sendErr
			return nil
		}
	}
	return fmt.Errorf("reminder %s not found", id)
}

func (s *fakeReminderStore) ListByEvent(_ context.Context, eventID string) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reminder
	for _, r := range s.reminders {
		if r.EventID == eventID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) byID(id string) *models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders {
		if r.ID == id {
			return r
		}
	}
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []string
	failFor  map[string]error
	sendErr  error
	subjects []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[string]error)}
}

func (n *fakeNotifier) Send(_ context.Context, recipient, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	if err := n.failFor[recipient]; err != nil {
		return err
	}
	n.sent = append(n.sent, recipient)
	n.subjects = append(n.subjects, subject)
	return nil
}

type fakeEventLookup struct {
	info *models.EventInfo
	err  error
}

func (l *fakeEventLookup) Lookup(context.Context, string) (*models.EventInfo, error) {
	return l.info, l.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(store *fakeReminderStore, notifier *fakeNotifier, lookup *fakeEventLookup, clk *fakeClock) *ReminderService {
	return NewReminderService(store, lookup, notifier, clk, nil, quietLogger(), time.Minute, 50)
}

func TestSeedRemindersOffsets(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	svc := newTestService(store, newFakeNotifier(), &fakeEventLookup{}, clk)

	start := clk.now.Add(48 * time.Hour)
	count, err := svc.SeedReminders(context.Background(), "evt-1", start, []string{"a@example.com"})
	if err != nil {
		t.Fatalf("SeedReminders returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 reminders, got %d", count)
	}

	want := map[time.Time]bool{
		start.Add(-24 * time.Hour): false,
		start.Add(-time.Hour):      false,
	}
	for _, r := range store.reminders {
		if _, ok := want[r.SendAt]; !ok {
			t.Errorf("unexpected send_at %v", r.SendAt)
			continue
		}
		want[r.SendAt] = true
		if r.Status != models.ReminderScheduled {
			t.Errorf("new reminder status = %q, want scheduled", r.Status)
		}
		if r.Channel != models.ChannelEmail {
			t.Errorf("new reminder channel = %q, want email", r.Channel)
		}
	}
	for at, seen := range want {
		if !seen {
			t.Errorf("missing reminder at %v", at)
		}
	}
}

func TestSeedRemindersDropsPastWindows(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	svc := newTestService(store, newFakeNotifier(), &fakeEventLookup{}, clk)

	// Event in 2 hours: the 24h window has passed, only the 1h reminder fits.
	start := clk.now.Add(2 * time.Hour)
	count, err := svc.SeedReminders(context.Background(), "evt-1", start, []string{"a@example.com"})
	if err != nil {
		t.Fatalf("SeedReminders returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reminder, got %d", count)
	}
	if got := store.reminders[0].SendAt; !got.Equal(start.Add(-time.Hour)) {
		t.Errorf("send_at = %v, want %v", got, start.Add(-time.Hour))
	}
}

func TestSeedRemindersBoundaryIsExcluded(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	svc := newTestService(store, newFakeNotifier(), &fakeEventLookup{}, clk)

	// Start exactly 24h out: the 24h reminder lands on now, which is not
	// strictly in the future, so only the 1h reminder is created.
	start := clk.now.Add(24 * time.Hour)
	count, err := svc.SeedReminders(context.Background(), "evt-1", start, []string{"a@example.com"})
	if err != nil {
		t.Fatalf("SeedReminders returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reminder, got %d", count)
	}
}

func TestSeedRemindersNothingToCreate(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	store.insertErr = errors.New("insert should not be called")
	svc := newTestService(store, newFakeNotifier(), &fakeEventLookup{}, clk)

	start := clk.now.Add(30 * time.Minute)
	count, err := svc.SeedReminders(context.Background(), "evt-1", start, []string{"a@example.com"})
	if err != nil {
		t.Fatalf("SeedReminders returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 reminders, got %d", count)
	}
}

func TestSeedRemindersFanOut(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	svc := newTestService(store, newFakeNotifier(), &fakeEventLookup{}, clk)

	recipients := []string{"a@example.com", "b@example.com", "c@example.com"}
	count, err := svc.SeedReminders(context.Background(), "evt-1", clk.now.Add(72*time.Hour), recipients)
	if err != nil {
		t.Fatalf("SeedReminders returned error: %v", err)
	}
	if count != 2*len(recipients) {
		t.Fatalf("expected %d reminders, got %d", 2*len(recipients), count)
	}
}

func TestSeedRemindersMissingStart(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(newFakeReminderStore(), newFakeNotifier(), &fakeEventLookup{}, clk)

	_, err := svc.SeedReminders(context.Background(), "evt-1", time.Time{}, []string{"a@example.com"})
	if !errors.Is(err, ErrMissingStart) {
		t.Fatalf("expected ErrMissingStart, got %v", err)
	}
}

func TestSeedRemindersTwiceDuplicates(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	svc := newTestService(store, newFakeNotifier(), &fakeEventLookup{}, clk)

	start := clk.now.Add(72 * time.Hour)
	for i := 0; i < 2; i++ {
		if _, err := svc.SeedReminders(context.Background(), "evt-1", start, []string{"a@example.com"}); err != nil {
			t.Fatalf("seed %d returned error: %v", i, err)
		}
	}
	if len(store.reminders) != 4 {
		t.Fatalf("expected 4 reminders after re-seed, got %d", len(store.reminders))
	}
}

func seedDue(t *testing.T, store *fakeReminderStore, clk *fakeClock, eventID string, n int) {
	t.Helper()
	var batch []*models.Reminder
	for i := 0; i < n; i++ {
		batch = append(batch, &models.Reminder{
			EventID:   eventID,
			Recipient: fmt.Sprintf("guest%d@example.com", i),
			Channel:   models.ChannelEmail,
			SendAt:    clk.now.Add(-time.Duration(i+1) * time.Minute),
			Status:    models.ReminderScheduled,
			CreatedAt: clk.now,
		})
	}
	if _, err := store.InsertMany(context.Background(), batch); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
}

func TestTickMarksSentTerminal(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	notifier := newFakeNotifier()
	svc := newTestService(store, notifier, &fakeEventLookup{}, clk)

	seedDue(t, store, clk, "evt-1", 1)

	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	r := store.byID("rem-1")
	if r.Status != models.ReminderSent {
		t.Fatalf("status = %q, want sent", r.Status)
	}
	if r.Error != nil {
		t.Errorf("error = %v, want nil", *r.Error)
	}

	// Terminal: a second tick finds nothing and delivers nothing new.
	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("second Tick returned error: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected 1 delivery total, got %d", len(notifier.sent))
	}
}

func TestTickMarksFailedWithError(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	notifier := newFakeNotifier()
	notifier.failFor["guest0@example.com"] = errors.New("relay refused")
	svc := newTestService(store, notifier, &fakeEventLookup{}, clk)

	seedDue(t, store, clk, "evt-1", 2)

	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}

	failed := store.byID("rem-1")
	if failed.Status != models.ReminderFailed {
		t.Fatalf("status = %q, want failed", failed.Status)
	}
	if failed.Error == nil || *failed.Error != "relay refused" {
		t.Errorf("error = %v, want %q", failed.Error, "relay refused")
	}

	ok := store.byID("rem-2")
	if ok.Status != models.ReminderSent {
		t.Errorf("second reminder status = %q, want sent", ok.Status)
	}

	// Failed reminders are terminal; no retry on the next tick.
	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("second Tick returned error: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected no redelivery, got %d sends", len(notifier.sent))
	}
}

func TestTickBatchBound(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	notifier := newFakeNotifier()
	svc := newTestService(store, notifier, &fakeEventLookup{}, clk)

	seedDue(t, store, clk, "evt-1", 75)

	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("first Tick returned error: %v", err)
	}
	if len(notifier.sent) != 50 {
		t.Fatalf("first tick sent %d, want 50", len(notifier.sent))
	}

	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("second Tick returned error: %v", err)
	}
	if len(notifier.sent) != 75 {
		t.Fatalf("after second tick sent %d, want 75", len(notifier.sent))
	}
}

func TestTickSkipsNotYetDue(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	notifier := newFakeNotifier()
	svc := newTestService(store, notifier, &fakeEventLookup{}, clk)

	future := []*models.Reminder{{
		EventID:   "evt-1",
		Recipient: "a@example.com",
		Channel:   models.ChannelEmail,
		SendAt:    clk.now.Add(time.Minute),
		Status:    models.ReminderScheduled,
		CreatedAt: clk.now,
	}}
	if _, err := store.InsertMany(context.Background(), future); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(notifier.sent))
	}
	if store.byID("rem-1").Status != models.ReminderScheduled {
		t.Error("not-yet-due reminder left scheduled state")
	}

	// Advance past its send time and it goes out.
	clk.now = clk.now.Add(2 * time.Minute)
	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 delivery after advancing clock, got %d", len(notifier.sent))
	}
}

func TestTickStoreFailureEndsTickEarly(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	notifier := newFakeNotifier()
	svc := newTestService(store, notifier, &fakeEventLookup{}, clk)

	seedDue(t, store, clk, "evt-1", 3)
	store.updateErr["rem-2"] = errors.New("connection reset")

	if err := svc.Tick(context.Background()); err == nil {
		t.Fatal("expected Tick to surface the store error")
	}
	// rem-3 was never reached; it stays scheduled for the next pass.
	if got := store.byID("rem-3").Status; got != models.ReminderScheduled {
		t.Errorf("untouched reminder status = %q, want scheduled", got)
	}
	if len(notifier.sent) != 2 {
		t.Errorf("expected 2 sends before abort, got %d", len(notifier.sent))
	}
}

func TestTickFindDueFailure(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	store.findErr = errors.New("db down")
	svc := newTestService(store, newFakeNotifier(), &fakeEventLookup{}, clk)

	if err := svc.Tick(context.Background()); err == nil {
		t.Fatal("expected Tick to surface the query error")
	}
}

func TestTickUsesEventDetailsInMessage(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	notifier := newFakeNotifier()
	lookup := &fakeEventLookup{info: &models.EventInfo{
		ID:      "evt-1",
		Title:   "Launch Party",
		StartAt: clk.now.Add(time.Hour),
	}}
	svc := newTestService(store, notifier, lookup, clk)

	seedDue(t, store, clk, "evt-1", 1)

	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if got := notifier.subjects[0]; got != "Reminder: Launch Party" {
		t.Errorf("subject = %q, want %q", got, "Reminder: Launch Party")
	}
}

func TestTickLookupFailureUsesPlaceholder(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeReminderStore()
	notifier := newFakeNotifier()
	lookup := &fakeEventLookup{err: errors.New("db down")}
	svc := newTestService(store, notifier, lookup, clk)

	seedDue(t, store, clk, "evt-1", 1)

	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if got := notifier.subjects[0]; got != "Reminder: Event" {
		t.Errorf("subject = %q, want placeholder %q", got, "Reminder: Event")
	}
	if store.byID("rem-1").Status != models.ReminderSent {
		t.Error("lookup failure must not mark the reminder failed")
	}
}
