package sched

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job — периодическая задача с явным Start/Stop.
// Один общий примитив вместо разбросанных по компонентам тикеров:
// повторные Start идемпотентны, после Stop таймеров не остаётся.
type Job struct {
	name  string
	every time.Duration
	fn    func()

	mu sync.Mutex
	c  *cron.Cron
}

func New(name string, every time.Duration, fn func()) *Job {
	if every < time.Second {
		every = time.Second // cron @every не умеет меньше секунды
	}
	return &Job{name: name, every: every, fn: fn}
}

func (j *Job) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.c != nil {
		return
	}

	c := cron.New(cron.WithSeconds())
	// ошибка возможна только при кривом выражении, @every с валидной длительностью не падает
	_, _ = c.AddFunc(fmt.Sprintf("@every %s", j.every), j.fn)
	c.Start()
	j.c = c
}

func (j *Job) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.c == nil {
		return
	}
	j.c.Stop()
	j.c = nil
}

func (j *Job) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.c != nil
}
