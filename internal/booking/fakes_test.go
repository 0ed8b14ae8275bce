package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rendezvous-crm/models"
)

// --- Фейковый календарь ---

type fakeCalendar struct {
	mu         sync.Mutex
	events     map[string]*models.CalendarEvent
	nextID     int
	failInsert int             // отказывать вставке после N успешных, -1 выключено
	inserted   int
	failDelete map[string]bool
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		events:     make(map[string]*models.CalendarEvent),
		failInsert: -1,
		failDelete: make(map[string]bool),
	}
}

func (f *fakeCalendar) put(ev *models.CalendarEvent) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.ID == "" {
		f.nextID++
		ev.ID = fmt.Sprintf("evt-%d", f.nextID)
	}
	cp := *ev
	f.events[ev.ID] = &cp
	return ev.ID
}

func (f *fakeCalendar) get(id string) *models.CalendarEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.events[id]; ok {
		cp := *ev
		return &cp
	}
	return nil
}

func (f *fakeCalendar) Get(ctx context.Context, eventID string) (*models.CalendarEvent, error) {
	if ev := f.get(eventID); ev != nil {
		return ev, nil
	}
	return nil, fmt.Errorf("event %s not found", eventID)
}

func (f *fakeCalendar) List(ctx context.Context, timeMin, timeMax time.Time) ([]*models.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.CalendarEvent
	for _, ev := range f.events {
		if !timeMin.IsZero() && !ev.End.After(timeMin) {
			continue
		}
		if !timeMax.IsZero() && !ev.Start.Before(timeMax) {
			continue
		}
		cp := *ev
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (f *fakeCalendar) Insert(ctx context.Context, ev *models.CalendarEvent) (*models.CalendarEvent, error) {
	f.mu.Lock()
	if f.failInsert >= 0 && f.inserted >= f.failInsert {
		f.mu.Unlock()
		return nil, fmt.Errorf("insert quota exhausted")
	}
	f.inserted++
	f.nextID++
	cp := *ev
	cp.ID = fmt.Sprintf("evt-%d", f.nextID)
	f.events[cp.ID] = &cp
	out := cp
	f.mu.Unlock()
	return &out, nil
}

func (f *fakeCalendar) Update(ctx context.Context, eventID string, ev *models.CalendarEvent) (*models.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[eventID]; !ok {
		return nil, fmt.Errorf("event %s not found", eventID)
	}
	cp := *ev
	cp.ID = eventID
	f.events[eventID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeCalendar) Delete(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[eventID] {
		return fmt.Errorf("delete of %s refused", eventID)
	}
	if _, ok := f.events[eventID]; !ok {
		return fmt.Errorf("event %s not found", eventID)
	}
	delete(f.events, eventID)
	return nil
}

// --- Фейковый мессенджер ---

type sentMessage struct {
	ChannelID uint
	Text      string
}

type fakeMessenger struct {
	mu       sync.Mutex
	nextID   uint
	channels map[uint]*models.Channel
	sent     []sentMessage
	grants   []string
	rebook   map[uint]bool
	pins     map[uint]string
	audits   []models.ChannelAudit
	failSend bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		channels: make(map[uint]*models.Channel),
		rebook:   make(map[uint]bool),
		pins:     make(map[uint]string),
	}
}

func (f *fakeMessenger) addChannel(authorID uint, status string) *models.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ch := &models.Channel{AuthorID: authorID, Status: status}
	ch.ID = f.nextID
	f.channels[ch.ID] = ch
	return ch
}

func (f *fakeMessenger) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeMessenger) SendMessage(ctx context.Context, channelID uint, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return fmt.Errorf("send refused")
	}
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Text: text})
	return nil
}

func (f *fakeMessenger) CreateChannel(ctx context.Context, user *models.User) (*models.Channel, error) {
	ch := f.addChannel(user.ID, models.ChannelActive)
	ch.Name = "rdv-" + user.Login
	return ch, nil
}

func (f *fakeMessenger) ActiveChannelOf(ctx context.Context, userID uint) (*models.Channel, error) {
	return f.channelOf(userID, models.ChannelActive), nil
}

func (f *fakeMessenger) ArchivedChannelOf(ctx context.Context, userID uint) (*models.Channel, error) {
	return f.channelOf(userID, models.ChannelArchived), nil
}

func (f *fakeMessenger) channelOf(userID uint, status string) *models.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.channels {
		if ch.AuthorID == userID && ch.Status == status {
			return ch
		}
	}
	return nil
}

func (f *fakeMessenger) ReactivateChannel(ctx context.Context, ch *models.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch.Status = models.ChannelActive
	ch.ReadRevoked = false
	return nil
}

func (f *fakeMessenger) ArchiveChannel(ctx context.Context, ch *models.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch.Status = models.ChannelArchived
	return nil
}

func (f *fakeMessenger) RevokeAccess(ctx context.Context, ch *models.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch.ReadRevoked = true
	return nil
}

func (f *fakeMessenger) GrantRole(ctx context.Context, login, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, login+":"+role)
	return nil
}

func (f *fakeMessenger) SetRebookEnabled(ctx context.Context, channelID uint, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebook[channelID] = enabled
	return nil
}

func (f *fakeMessenger) PinControlMessage(ctx context.Context, ch *models.Channel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pins[ch.ID] = text
	return nil
}

func (f *fakeMessenger) LogClosure(ctx context.Context, audit models.ChannelAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, audit)
	return nil
}

// --- Фейковые часы ---

// stoppedClock - часы с ручным временем; After никогда не срабатывает.
// Подходит для проверки гвардов и воркфлоу без участия таймеров.
type stoppedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStoppedClock(now time.Time) *stoppedClock { return &stoppedClock{now: now} }

func (c *stoppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stoppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *stoppedClock) After(d time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

// jumpClock - часы, мгновенно перепрыгивающие любое ожидание.
// Таймлайн на таких часах проживает всю жизнь рандеву синхронно.
type jumpClock struct {
	mu  sync.Mutex
	now time.Time
}

func newJumpClock(now time.Time) *jumpClock { return &jumpClock{now: now} }

func (c *jumpClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *jumpClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// --- Сборка сервиса для тестов ---

func testConfig() Config {
	return Config{
		SlotDuration:   30 * time.Minute,
		SlotStride:     40 * time.Minute,
		FormTimeout:    2 * time.Minute,
		ConfirmTimeout: time.Minute,
		Window:         7 * 24 * time.Hour,
		ReminderLead:   10 * time.Minute,
		ClientRole:     "client",
	}
}

func newTestService(cal CalendarAPI, msg Messenger, clock Clock) *Service {
	return NewService(context.Background(), cal, msg, nil, clock, testConfig())
}

func testUser(id uint, login string, roles ...string) *models.User {
	u := &models.User{Login: login}
	u.ID = id
	for _, r := range roles {
		u.Roles = append(u.Roles, models.Role{Name: r})
	}
	return u
}
