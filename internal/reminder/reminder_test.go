package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func dueIn(id string, d time.Duration) entity.Task {
	return entity.Task{ID: id, Title: "task " + id, DueDate: entity.NewDate(base.Add(d))}
}

func TestEvaluate_Windows(t *testing.T) {
	tests := []struct {
		name string
		left time.Duration
		want Kind
	}{
		{name: "exactly 24h", left: 24 * time.Hour, want: KindTomorrow},
		{name: "23h30m", left: 23*time.Hour + 30*time.Minute, want: KindTomorrow},
		{name: "exactly 23h", left: 23 * time.Hour, want: ""},
		{name: "just over 24h", left: 24*time.Hour + time.Second, want: ""},
		{name: "exactly 1h", left: time.Hour, want: KindSoon},
		{name: "one second", left: time.Second, want: KindSoon},
		{name: "due now", left: 0, want: ""},
		{name: "past due", left: -time.Minute, want: ""},
		{name: "between windows", left: 5 * time.Hour, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(base, []entity.Task{dueIn("a", tt.left)})
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Kind)
		})
	}
}

func TestEvaluate_SkipsCompletedAndUndated(t *testing.T) {
	done := dueIn("done", 30*time.Minute)
	done.IsCompleted = true
	undated := entity.Task{ID: "undated", Title: "no due"}

	assert.Empty(t, Evaluate(base, []entity.Task{done, undated}))
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	tasks := []entity.Task{dueIn("b", 23*time.Hour+time.Minute), dueIn("a", 10*time.Minute)}

	first := Evaluate(base, tasks)
	second := Evaluate(base, tasks)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Task.ID)
	assert.NotEqual(t, first[0].Key, first[1].Key)
}

type notification struct {
	title, body, key string
}

type fakeNotifier struct {
	mu         sync.Mutex
	permission Permission
	sent       []notification
	failNext   bool
}

func (n *fakeNotifier) RequestPermission(context.Context) (Permission, error) {
	return n.permission, nil
}

func (n *fakeNotifier) Notify(_ context.Context, title, body, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext {
		n.failNext = false
		return errors.New("notification center unavailable")
	}
	n.sent = append(n.sent, notification{title: title, body: body, key: key})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type staticSource struct {
	tasks []entity.Task
	err   error
}

func (s *staticSource) ListTasks(_ context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return filter.Apply(s.tasks), nil
}

func TestScheduler_DeduplicatesWithinWindow(t *testing.T) {
	now := base
	source := &staticSource{tasks: []entity.Task{dueIn("a", 23*time.Hour+50*time.Minute)}}
	notifier := &fakeNotifier{permission: PermissionGranted}
	s := NewScheduler(source, notifier, WithClock(func() time.Time { return now }))

	n, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	now = now.Add(30 * time.Minute)
	n, err = s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Через 23 часа та же задача попадает в окно "скоро".
	now = base.Add(23 * time.Hour)
	n, err = s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Equal(t, 2, notifier.count())
	assert.Equal(t, "Task due tomorrow", notifier.sent[0].title)
	assert.Equal(t, "Task due soon", notifier.sent[1].title)
	assert.Contains(t, notifier.sent[1].body, "task a")
}

func TestScheduler_NewDueDateAlertsAgain(t *testing.T) {
	source := &staticSource{tasks: []entity.Task{dueIn("a", 30*time.Minute)}}
	notifier := &fakeNotifier{permission: PermissionGranted}
	s := NewScheduler(source, notifier, WithClock(func() time.Time { return base }))

	_, err := s.Tick(context.Background())
	require.NoError(t, err)

	source.tasks = []entity.Task{dueIn("a", 45*time.Minute)}
	n, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScheduler_SkipsCompletedTasks(t *testing.T) {
	done := dueIn("a", 30*time.Minute)
	done.IsCompleted = true
	notifier := &fakeNotifier{permission: PermissionGranted}
	s := NewScheduler(&staticSource{tasks: []entity.Task{done}}, notifier, WithClock(func() time.Time { return base }))

	n, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScheduler_RetriesFailedNotification(t *testing.T) {
	source := &staticSource{tasks: []entity.Task{dueIn("a", 30*time.Minute)}}
	notifier := &fakeNotifier{permission: PermissionGranted, failNext: true}
	s := NewScheduler(source, notifier, WithClock(func() time.Time { return base }))

	n, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScheduler_SourceError(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewScheduler(&staticSource{err: boom}, &fakeNotifier{permission: PermissionGranted})

	_, err := s.Tick(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestScheduler_RunRequiresPermission(t *testing.T) {
	s := NewScheduler(&staticSource{}, &fakeNotifier{permission: PermissionDenied})
	assert.ErrorIs(t, s.Run(context.Background()), ErrPermissionDenied)
}

func TestScheduler_RunChecksImmediately(t *testing.T) {
	source := &staticSource{tasks: []entity.Task{dueIn("a", 30*time.Minute)}}
	notifier := &fakeNotifier{permission: PermissionGranted}
	s := NewScheduler(source, notifier,
		WithClock(func() time.Time { return base }),
		WithInterval(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
