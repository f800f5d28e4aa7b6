package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail   = "jobs:email"
	JobTypeEmail = "email"

	// DefaultMaxAttempts is how many times a job runs before it is dead-lettered.
	DefaultMaxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes the payload of one job type. A returned error counts as
// a failed attempt.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return pushJob(ctx, d.rdb, QueueEmail, Job{Type: JobTypeEmail, Payload: data})
}

// Pending reports how many jobs wait in queue.
func (d *Dispatcher) Pending(ctx context.Context, queue string) (int64, error) {
	return d.rdb.LLen(ctx, queue).Result()
}

func pushJob(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes job queues with a fixed number of goroutines. Each goroutine
// blocks on BRPOP, so an idle pool costs nothing.
type Pool struct {
	rdb         *redis.Client
	queues      []string
	handlers    map[string]Handler
	maxAttempts int
	popTimeout  time.Duration
	wg          sync.WaitGroup
}

func NewPool(rdb *redis.Client, queues ...string) *Pool {
	if len(queues) == 0 {
		queues = []string{QueueEmail}
	}
	return &Pool{
		rdb:         rdb,
		queues:      queues,
		handlers:    make(map[string]Handler),
		maxAttempts: DefaultMaxAttempts,
		popTimeout:  5 * time.Second,
	}
}

// Register binds a handler to a job type. Call before Start.
func (p *Pool) Register(jobType string, h Handler) { p.handlers[jobType] = h }

// Start launches numWorkers goroutines that stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", p.queues).Msg("worker pool started")
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		}
		// waits up to popTimeout then loops to check ctx
		result, err := p.rdb.BRPop(ctx, p.popTimeout, p.queues...).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.processJob(ctx, result[0], result[1])
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "unknown", json.RawMessage(raw), "malformed envelope", 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", job.Attempts)
		return
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		return
	}
	if job.Attempts >= p.maxAttempts {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("queue", queue).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeued")
	if perr := pushJob(ctx, p.rdb, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("requeue failed")
	}
}
