package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/domain"
)

// Auditor is an alias for the canonical domain.Auditor interface.
type Auditor = domain.Auditor

// AuditEnqueuer accepts audit jobs for asynchronous recording.
type AuditEnqueuer interface {
	Enqueue(job *AuditJob)
}

// AuditJob represents a single audit entry to be recorded.
type AuditJob struct {
	Action string
	UserID int64
	Detail map[string]any
}

// AuditWorker buffers audit entries and writes them via a single worker goroutine.
type AuditWorker struct {
	auditor Auditor
	log     *logrus.Logger
	jobs    chan *AuditJob
}

// NewAuditWorker creates an AuditWorker with the given queue capacity.
func NewAuditWorker(auditor Auditor, log *logrus.Logger, queueSize int) *AuditWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &AuditWorker{
		auditor: auditor,
		log:     log,
		jobs:    make(chan *AuditJob, queueSize),
	}
}

// Enqueue adds an audit job. Non-blocking; drops the job if the queue is full.
func (w *AuditWorker) Enqueue(job *AuditJob) {
	select {
	case w.jobs <- job:
	default:
		w.log.WithField("action", job.Action).Warn("audit queue full, dropping entry")
	}
}

// Run processes audit jobs until the context is cancelled, then drains remaining jobs.
func (w *AuditWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *AuditWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *AuditWorker) process(job *AuditJob) {
	if err := w.auditor.RecordAudit(context.Background(), job.Action, job.UserID, job.Detail); err != nil {
		w.log.WithError(err).Warn("audit record failed")
	}
}

// LogAuditor writes audit entries as structured log lines.
type LogAuditor struct {
	log *logrus.Entry
}

// NewLogAuditor creates a LogAuditor tagged with component=audit.
func NewLogAuditor(log *logrus.Logger) *LogAuditor {
	return &LogAuditor{log: log.WithField("component", "audit")}
}

// RecordAudit implements Auditor.
func (a *LogAuditor) RecordAudit(_ context.Context, action string, userID int64, detail map[string]any) error {
	fields := logrus.Fields{"action": action, "user_id": userID}
	for k, v := range detail {
		fields[k] = v
	}

	a.log.WithFields(fields).Info("audit")

	return nil
}

// auditAsync enqueues an audit job when a worker is configured.
func auditAsync(w AuditEnqueuer, action string, userID int64, detail map[string]any) {
	if w == nil {
		return
	}

	w.Enqueue(&AuditJob{Action: action, UserID: userID, Detail: detail})
}
