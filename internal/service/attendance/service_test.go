package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/clock"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/sse"
	"github.com/afraexpress/attendance-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu     sync.Mutex
	err    error
	seq    int
	marks  []attendance.RemoteMark
	remote []attendance.RemoteRecord
	// rejected employee IDs get a permanent 4xx-style refusal
	rejected map[string]bool
}

func (g *fakeGateway) MarkAttendance(ctx context.Context, mark attendance.RemoteMark) (attendance.RemoteRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return attendance.RemoteRecord{}, g.err
	}
	if g.rejected[mark.EmployeeID] {
		return attendance.RemoteRecord{}, fmt.Errorf("%w: status 422", attendance.ErrRemoteUnavailable)
	}
	g.seq++
	g.marks = append(g.marks, mark)
	return attendance.RemoteRecord{ID: fmt.Sprintf("remote-%d", g.seq), EmployeeID: mark.EmployeeID}, nil
}

func (g *fakeGateway) ListAttendance(ctx context.Context, employeeID, dateFrom, dateTo string) ([]attendance.RemoteRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.remote, nil
}

func (g *fakeGateway) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *fakeGateway) reject(employeeID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rejected == nil {
		g.rejected = make(map[string]bool)
	}
	g.rejected[employeeID] = true
}

func (g *fakeGateway) sent() []attendance.RemoteMark {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]attendance.RemoteMark(nil), g.marks...)
}

// repoDirectory resolves employees straight from a repository
type repoDirectory struct {
	employee.EmployeeRepository
}

func (d repoDirectory) FindByID(ctx context.Context, id string) (employee.Employee, error) {
	return d.GetByID(ctx, id)
}

func (d repoDirectory) FindByFingerprint(ctx context.Context, template string) (employee.Employee, error) {
	return d.GetByFingerprint(ctx, template)
}

func (d repoDirectory) ListActive(ctx context.Context) ([]employee.Employee, error) {
	active := employee.StatusActive
	return d.List(ctx, employee.EmployeeFilter{Status: &active})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) Publish(topic string, event sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	event.Topic = topic
	p.events = append(p.events, event)
}

type testEnv struct {
	svc       attendance.AttendanceService
	repo      attendance.AttendanceRepository
	gateway   *fakeGateway
	clock     *clock.FixedClock
	publisher *recordingPublisher
	john      employee.Employee
	sarah     employee.Employee
	mike      employee.Employee
}

var errRemoteDown = fmt.Errorf("%w: connection refused", attendance.ErrRemoteUnavailable)

func newTestEnv(t *testing.T, policy attendance.StatusPolicy) *testEnv {
	t.Helper()
	ctx := context.Background()

	employees := memory.NewEmployeeRepository()
	create := func(code, name, dept string, fingerprint *string) employee.Employee {
		e, err := employees.Create(ctx, employee.Employee{
			EmployeeCode:        code,
			Name:                name,
			Email:               fmt.Sprintf("%s@afraexpress.com", code),
			Department:          dept,
			Role:                employee.RoleEmployee,
			FingerprintTemplate: fingerprint,
		})
		require.NoError(t, err)
		return e
	}

	env := &testEnv{
		repo:      memory.NewAttendanceRepository(),
		gateway:   &fakeGateway{},
		clock:     clock.NewFixedClock(time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)),
		publisher: &recordingPublisher{},
	}
	env.john = create("EMP001", "John Doe", "Operations", strPtr("FP_JOHN"))
	env.sarah = create("EMP002", "Sarah Smith", "Finance", nil)
	env.mike = create("EMP003", "Mike Johnson", "Logistics", nil)

	env.svc = NewAttendanceService(env.repo, repoDirectory{employees}, env.gateway, env.clock, time.UTC, policy, env.publisher)
	return env
}

func defaultPolicy() attendance.StatusPolicy {
	return attendance.StatusPolicy{WorkStart: "09:00", WorkEnd: "17:00", LateThresholdMinutes: 15}
}

func (e *testEnv) mark(t *testing.T, employeeID string, event attendance.EventType, ts string) attendance.MarkResult {
	t.Helper()
	res, err := e.svc.MarkAttendance(context.Background(), attendance.MarkAttendanceRequest{
		EmployeeID: employeeID,
		Type:       event,
		Timestamp:  &ts,
	})
	require.NoError(t, err)
	return res
}

func TestMarkAttendance_CheckInThenCheckOut(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	in := env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:15")
	require.True(t, in.Applied)
	require.NotNil(t, in.Record)
	assert.Equal(t, env.john.ID, in.Record.EmployeeID)
	assert.Equal(t, "John Doe", in.Record.EmployeeName)
	assert.Equal(t, "2024-06-01", in.Record.Date)
	assert.Equal(t, "09:15", *in.Record.CheckIn)
	assert.Nil(t, in.Record.CheckOut)
	assert.Nil(t, in.Record.WorkingHours)
	assert.Equal(t, attendance.StatusPresent, in.Record.Status)
	assert.True(t, in.Synced)

	out := env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:00")
	require.True(t, out.Applied)
	assert.Equal(t, in.Record.ID, out.Record.ID)
	assert.Equal(t, "09:15", *out.Record.CheckIn)
	assert.Equal(t, "17:00", *out.Record.CheckOut)
	require.NotNil(t, out.Record.WorkingHours)
	assert.InDelta(t, 7.75, *out.Record.WorkingHours, 1e-9)
	assert.True(t, out.Synced)

	records, err := env.repo.List(context.Background(), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	sent := env.gateway.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, attendance.EventCheckIn, sent[0].Type)
	assert.Equal(t, "2024-06-01T09:15:00Z", sent[0].Timestamp)
	assert.Equal(t, attendance.EventCheckOut, sent[1].Type)
	assert.Equal(t, "2024-06-01T17:00:00Z", sent[1].Timestamp)
}

func TestMarkAttendance_DefaultsToClock(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	res, err := env.svc.MarkAttendance(context.Background(), attendance.MarkAttendanceRequest{
		EmployeeID: env.john.ID,
		Type:       attendance.EventCheckIn,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", res.Record.Date)
	assert.Equal(t, "08:30", *res.Record.CheckIn)
}

func TestMarkAttendance_TimeOfDayUsesClockDate(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	in := env.mark(t, "EMP001", attendance.EventCheckIn, "09:15")
	require.True(t, in.Applied)
	assert.Equal(t, "2024-06-01", in.Record.Date)
	assert.Equal(t, "09:15", *in.Record.CheckIn)

	out := env.mark(t, "EMP001", attendance.EventCheckOut, "17:45:30")
	require.True(t, out.Applied)
	assert.Equal(t, in.Record.ID, out.Record.ID)
	assert.Equal(t, "17:45", *out.Record.CheckOut)
	assert.InDelta(t, 8.5, *out.Record.WorkingHours, 1e-9)
}

func TestMarkAttendance_ZonedTimestampUsesConfiguredLocation(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	// 23:30 in UTC-05:00 is already the next day in UTC
	res := env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T23:30:00-05:00")
	assert.Equal(t, "2024-06-02", res.Record.Date)
	assert.Equal(t, "04:30", *res.Record.CheckIn)
}

func TestMarkAttendance_UnknownEmployee(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	ts := "2024-06-01T09:00"
	_, err := env.svc.MarkAttendance(context.Background(), attendance.MarkAttendanceRequest{
		EmployeeID: "EMP999",
		Type:       attendance.EventCheckIn,
		Timestamp:  &ts,
	})
	assert.ErrorIs(t, err, attendance.ErrUnknownEmployee)

	records, err := env.repo.List(context.Background(), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, env.gateway.sent())
}

func TestMarkAttendance_InvalidRequest(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	_, err := env.svc.MarkAttendance(context.Background(), attendance.MarkAttendanceRequest{
		EmployeeID: "EMP001",
		Type:       "lunch",
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, attendance.ErrUnknownEmployee)
}

func TestMarkAttendance_OrphanCheckoutCreatesNothing(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	res := env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:00")
	assert.False(t, res.Applied)
	assert.Equal(t, attendance.NoopOrphanCheckout, res.Noop)
	assert.Nil(t, res.Record)

	got, err := env.repo.GetByEmployeeAndDate(context.Background(), env.john.ID, "2024-06-01")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, env.gateway.sent())
	assert.Empty(t, env.publisher.events)
}

func TestMarkAttendance_DuplicateCheckInKeepsFirst(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	second := env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T10:00")

	assert.False(t, second.Applied)
	assert.Equal(t, attendance.NoopDuplicateCheckIn, second.Noop)
	assert.Equal(t, "09:00", *second.Record.CheckIn)
	assert.Len(t, env.gateway.sent(), 1)
}

func TestMarkAttendance_DuplicateCheckOutIsIdempotent(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:30")
	again := env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T19:00")

	assert.False(t, again.Applied)
	assert.Equal(t, attendance.NoopDuplicateCheckOut, again.Noop)
	assert.Equal(t, "17:30", *again.Record.CheckOut)
	assert.InDelta(t, 8.5, *again.Record.WorkingHours, 1e-9)

	stored, err := env.repo.GetByEmployeeAndDate(context.Background(), env.john.ID, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, "17:30", *stored.CheckOut)
	assert.InDelta(t, 8.5, *stored.WorkingHours, 1e-9)
}

func TestMarkAttendance_CheckOutBeforeCheckInStoresNegativeHours(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T22:00")
	out := env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T06:00")

	require.True(t, out.Applied)
	assert.InDelta(t, -16, *out.Record.WorkingHours, 1e-9)
}

func TestMarkAttendance_RemoteFailureFallsBackLocally(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	env.gateway.fail(errRemoteDown)

	in := env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:15")
	assert.True(t, in.Applied)
	assert.False(t, in.Synced)
	assert.Equal(t, "09:15", *in.Record.CheckIn)

	out := env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:00")
	assert.True(t, out.Applied)
	assert.False(t, out.Synced)
	assert.Equal(t, "09:15", *out.Record.CheckIn)
	assert.Equal(t, "17:00", *out.Record.CheckOut)
	assert.InDelta(t, 7.75, *out.Record.WorkingHours, 1e-9)

	pending, err := env.repo.ListUnsynced(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, in.Record.ID, pending[0].ID)
}

func TestMarkAttendance_CheckOutReplaysUnsyncedCheckIn(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	env.gateway.fail(errRemoteDown)
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	env.gateway.fail(nil)

	out := env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:00")
	assert.True(t, out.Synced)

	sent := env.gateway.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, attendance.EventCheckIn, sent[0].Type)
	assert.Equal(t, attendance.EventCheckOut, sent[1].Type)
}

func TestMarkAttendance_GatewayDisabledKeepsRecordsLocal(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	env.gateway.fail(fmt.Errorf("%w: %w", attendance.ErrRemoteUnavailable, attendance.ErrGatewayDisabled))

	res := env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	assert.True(t, res.Applied)
	assert.False(t, res.Synced)
}

func TestMarkAttendance_ConcurrentCheckInsKeepOneRecord(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	const workers = 25
	results := make([]attendance.MarkResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := fmt.Sprintf("2024-06-01T09:%02d", i)
			res, err := env.svc.MarkAttendance(context.Background(), attendance.MarkAttendanceRequest{
				EmployeeID: env.john.ID,
				Type:       attendance.EventCheckIn,
				Timestamp:  &ts,
			})
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	applied := 0
	for _, r := range results {
		if r.Applied {
			applied++
		} else {
			assert.Equal(t, attendance.NoopDuplicateCheckIn, r.Noop)
		}
	}
	assert.Equal(t, 1, applied)

	records, err := env.repo.ListByDate(context.Background(), "2024-06-01")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, env.gateway.sent(), 1)
}

func TestMarkAttendance_LateDetection(t *testing.T) {
	policy := defaultPolicy()
	policy.LateDetection = true
	env := newTestEnv(t, policy)

	onTime := env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:15")
	late := env.mark(t, "EMP002", attendance.EventCheckIn, "2024-06-01T09:16")

	assert.Equal(t, attendance.StatusPresent, onTime.Record.Status)
	assert.Equal(t, attendance.StatusLate, late.Record.Status)
}

func TestMarkAttendance_PublishesAppliedMarks(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:05")
	env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:00")

	require.Len(t, env.publisher.events, 2)
	assert.Equal(t, TopicAttendance, env.publisher.events[0].Topic)
	assert.Equal(t, "attendance.check-in", env.publisher.events[0].Event)
	assert.Equal(t, "attendance.check-out", env.publisher.events[1].Event)

	payload, ok := env.publisher.events[1].Data.(attendance.AttendanceResponse)
	require.True(t, ok)
	assert.Equal(t, "17:00", *payload.CheckOut)
}

func TestMarkByFingerprint(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ts := "2024-06-01T08:55"

	res, err := env.svc.MarkByFingerprint(context.Background(), attendance.ScanRequest{Template: "FP_JOHN", Timestamp: &ts})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, env.john.ID, res.Record.EmployeeID)
	assert.Equal(t, "08:55", *res.Record.CheckIn)

	_, err = env.svc.MarkByFingerprint(context.Background(), attendance.ScanRequest{Template: "FP_UNKNOWN"})
	assert.ErrorIs(t, err, attendance.ErrFingerprintNotMatched)
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	absent, err := env.svc.GetStatus(ctx, "EMP001", "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, absent.Status)
	assert.Nil(t, absent.Record)

	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")

	present, err := env.svc.GetStatus(ctx, "EMP001", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", present.Date)
	assert.Equal(t, attendance.StatusPresent, present.Status)
	require.NotNil(t, present.Record)
	assert.Equal(t, "09:00", *present.Record.CheckIn)

	_, err = env.svc.GetStatus(ctx, "EMP999", "2024-06-01")
	assert.ErrorIs(t, err, attendance.ErrUnknownEmployee)

	_, err = env.svc.GetStatus(ctx, "EMP001", "01-06-2024")
	assert.Error(t, err)
}

func TestListAttendance_ResolvesEmployeeCode(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())

	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-02T09:00")
	env.mark(t, "EMP002", attendance.EventCheckIn, "2024-06-01T09:00")

	code := "EMP001"
	records, err := env.svc.ListAttendance(context.Background(), attendance.AttendanceFilter{EmployeeID: &code})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-06-02", records[0].Date)

	from, to := "2024-06-02", "2024-06-01"
	_, err = env.svc.ListAttendance(context.Background(), attendance.AttendanceFilter{DateFrom: &from, DateTo: &to})
	assert.Error(t, err)
}

func TestSyncPending(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()

	env.gateway.fail(errRemoteDown)
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:15")
	env.mark(t, "EMP001", attendance.EventCheckOut, "2024-06-01T17:00")
	env.mark(t, "EMP002", attendance.EventCheckIn, "2024-06-01T09:05")

	synced, err := env.svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)

	env.gateway.fail(nil)
	synced, err = env.svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	sent := env.gateway.sent()
	require.Len(t, sent, 3)
	assert.Equal(t, attendance.RemoteMark{EmployeeID: env.john.ID, Type: attendance.EventCheckIn, Timestamp: "2024-06-01T09:15:00Z"}, sent[0])
	assert.Equal(t, attendance.RemoteMark{EmployeeID: env.john.ID, Type: attendance.EventCheckOut, Timestamp: "2024-06-01T17:00:00Z"}, sent[1])
	assert.Equal(t, attendance.EventCheckIn, sent[2].Type)

	pending, err := env.repo.ListUnsynced(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	stored, err := env.repo.GetByEmployeeAndDate(ctx, env.john.ID, "2024-06-01")
	require.NoError(t, err)
	assert.True(t, stored.Synced)
	require.NotNil(t, stored.RemoteID)
	assert.Equal(t, "remote-2", *stored.RemoteID)

	// nothing left to replay
	synced, err = env.svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
	assert.Len(t, env.gateway.sent(), 3)
}

func TestSyncPending_RejectedRecordsDoNotBlockNewerOnes(t *testing.T) {
	env := newTestEnv(t, defaultPolicy())
	ctx := context.Background()
	env.svc.(*AttendanceServiceImpl).syncBatch = 2

	env.gateway.reject(env.john.ID)
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-01T09:00")
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-02T09:00")
	env.mark(t, "EMP001", attendance.EventCheckIn, "2024-06-03T09:00")

	env.gateway.fail(errRemoteDown)
	env.mark(t, "EMP002", attendance.EventCheckIn, "2024-06-01T09:05")
	env.mark(t, "EMP003", attendance.EventCheckIn, "2024-06-01T09:10")
	env.gateway.fail(nil)

	synced, err := env.svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	pending, err := env.repo.ListUnsynced(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for _, p := range pending {
		assert.Equal(t, env.john.ID, p.EmployeeID)
	}

	sarah, err := env.repo.GetByEmployeeAndDate(ctx, env.sarah.ID, "2024-06-01")
	require.NoError(t, err)
	assert.True(t, sarah.Synced)
	mike, err := env.repo.GetByEmployeeAndDate(ctx, env.mike.ID, "2024-06-01")
	require.NoError(t, err)
	assert.True(t, mike.Synced)
}
