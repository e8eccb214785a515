package dispatch

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Job is one periodic sweep.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// RetryJob re-drains events whose earlier delivery failed.
func (d *Dispatcher) RetryJob() Job {
	return Job{
		Name: "outbox-retry",
		Spec: "@every 1m",
		Run: func(ctx context.Context) error {
			n, err := d.Drain(ctx)
			if n > 0 {
				log.Printf("[SCHEDULER] outbox retry delivered %d events", n)
			}
			return err
		},
	}
}

// StartScheduler registers jobs on a cron instance and starts it. Stop the returned cron on
// shutdown.
func StartScheduler(ctx context.Context, jobs ...Job) (*cron.Cron, error) {
	log.Println("[SCHEDULER] Initializing scheduler...")

	c := cron.New()
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.Spec, func() {
			if err := job.Run(ctx); err != nil {
				log.Printf("[SCHEDULER] %s failed: %v", job.Name, err)
			}
		}); err != nil {
			return nil, err
		}
		log.Printf("[SCHEDULER] %s scheduled (%s)", job.Name, job.Spec)
	}

	c.Start()
	return c, nil
}
