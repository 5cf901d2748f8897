package jobs

import (
	"context"

	"github.com/SHREYANK007/LMS-sub003/services"
)

type Reconciler interface {
	Reconcile(ctx context.Context) (services.ReconcileReport, error)
}

// ReconcileJob retries calendar work that failed during transitions.
type ReconcileJob struct {
	reconciler Reconciler
}

func NewReconcileJob(r Reconciler) *ReconcileJob {
	return &ReconcileJob{reconciler: r}
}

func (j *ReconcileJob) Name() string { return "calendar-reconcile" }

func (j *ReconcileJob) Run(ctx context.Context) error {
	_, err := j.reconciler.Reconcile(ctx)
	return err
}
