package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studynotes-backend/internal/logger"
	"studynotes-backend/internal/services"
)

const (
	maxAttempts = 3
	popTimeout  = 5 * time.Second
	lockTTL     = 10 * time.Minute
)

// Pool drains the email queue with a fixed number of goroutines and hands
// each job to the mailer. Failed deliveries are requeued up to maxAttempts.
type Pool struct {
	queue       jobQueue
	mailer      services.PasswordResetMailer
	log         *logger.Logger
	workerCount int
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewPool(queue jobQueue, mailer services.PasswordResetMailer, log *logger.Logger, workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		queue:       queue,
		mailer:      mailer,
		log:         log,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info("email workers started", "workers", p.workerCount)
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.stopChan
		cancel()
	}()

	for {
		select {
		case <-p.stopChan:
			p.log.Info("email worker shutting down", "worker", id)
			return
		default:
		}

		job, err := p.queue.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn("email queue pop failed", "worker", id, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		p.process(ctx, id, job)
	}
}

func (p *Pool) process(ctx context.Context, workerID int, job *EmailJob) {
	locked, err := p.queue.Lock(ctx, job, lockTTL)
	if err != nil || !locked {
		return
	}

	if err := p.deliver(job); err != nil {
		job.Attempts++
		if job.Attempts >= maxAttempts {
			p.log.Error("email job failed permanently", "worker", workerID, "job_id", job.ID, "kind", job.Kind, "error", err)
			return
		}
		p.log.Warn("email job failed, requeueing", "worker", workerID, "job_id", job.ID, "attempt", job.Attempts, "error", err)
		if err := p.queue.Push(ctx, *job); err != nil {
			p.log.Error("failed to requeue email job", "job_id", job.ID, "error", err)
		}
		return
	}

	p.log.Info("email job delivered", "worker", workerID, "job_id", job.ID, "kind", job.Kind)
}

func (p *Pool) deliver(job *EmailJob) error {
	switch job.Kind {
	case JobPasswordReset:
		return p.mailer.SendPasswordResetEmail(job.To, job.Token)
	default:
		return fmt.Errorf("unknown email job kind %q", job.Kind)
	}
}
