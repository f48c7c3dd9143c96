package core

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mechci/internal/audit"
	"mechci/internal/config"
	"mechci/internal/security"
	"mechci/internal/storage"
	"mechci/pkg/hashutil"
)

// Runner ties together scheduler, executor, log storage, run history
// and the audit ledger.
type Runner struct {
	Scheduler *Scheduler
	Executor  *Executor
	Logs      *storage.LogStorage
	Store     *storage.Store // optional: run history
	Ledger    *audit.Ledger  // optional: signed audit trail
	PrivKey   ed25519.PrivateKey
	PubKey    ed25519.PublicKey
	RunnerID  string

	// Serializes ledger appends when jobs of one level run in parallel.
	ledgerMu sync.Mutex
}

// NewRunner builds a runner rooted at dataDir. The history database and
// the ledger are best-effort: when either cannot be opened the runner
// still executes pipelines and says so on stderr.
func NewRunner(dataDir string) *Runner {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Printf("WARN: cannot create data dir %s: %v", dataDir, err)
	}

	r := &Runner{
		Scheduler: NewScheduler(),
		Executor:  NewExecutor(),
		Logs:      storage.NewLogStorage(filepath.Join(dataDir, "logs")),
		RunnerID:  "local-runner",
	}

	store, err := storage.Open(filepath.Join(dataDir, "history.db"))
	if err != nil {
		log.Printf("WARN: cannot open run history: %v", err)
	} else {
		r.Store = store
	}

	ledger, err := audit.OpenLedger(filepath.Join(dataDir, "ledger.jsonl"))
	if err != nil {
		log.Printf("WARN: cannot open ledger: %v", err)
		return r
	}

	pub, priv, err := ensureKeys(
		filepath.Join(dataDir, "keys", "runner.pub"),
		filepath.Join(dataDir, "keys", "runner.priv"),
	)
	if err != nil {
		log.Printf("WARN: cannot init signing keys, ledger disabled: %v", err)
		return r
	}
	r.Ledger = ledger
	r.PubKey = pub
	r.PrivKey = priv
	return r
}

// RunWorkflow validates the config and executes the named workflow:
// levels in order, jobs inside a level in parallel, steps of a job
// strictly in sequence. A failing job aborts only itself and the jobs
// that (transitively) require it; everything else still runs. All job
// failures are collected and returned together once the workflow is
// done.
func (r *Runner) RunWorkflow(ctx context.Context, cfg *config.Config, name string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	wf, ok := cfg.Workflows[name]
	if !ok {
		return fmt.Errorf("workflow %q not defined", name)
	}

	levels, err := r.Scheduler.Levels(wf)
	if err != nil {
		return err
	}

	requires := make(map[string][]string, len(wf.Jobs))
	for _, j := range wf.Jobs {
		requires[j.Name] = j.Requires
	}

	log.Printf("workflow %s: %d jobs in %d levels", name, len(wf.Jobs), len(levels))

	// Jobs that failed or were skipped because a dependency failed.
	// Levels run in order, so marking skipped jobs here makes the
	// skipping transitive.
	failed := make(map[string]bool, len(wf.Jobs))
	var mu sync.Mutex
	var jobErrs []error

	for _, level := range levels {
		runnable := make([]string, 0, len(level))
		for _, jobName := range level {
			if dep := failedRequire(requires[jobName], failed); dep != "" {
				log.Printf("job %s: skipped, requires failed job %s", jobName, dep)
				failed[jobName] = true
				continue
			}
			runnable = append(runnable, jobName)
		}

		var g errgroup.Group
		for _, jobName := range runnable {
			jobName := jobName
			g.Go(func() error {
				if err := r.runJob(ctx, cfg, name, jobName); err != nil {
					mu.Lock()
					failed[jobName] = true
					jobErrs = append(jobErrs, err)
					mu.Unlock()
				}
				return nil
			})
		}
		// The level's job errors are collected above, Wait is only
		// the barrier before the next level.
		_ = g.Wait()
	}

	if len(jobErrs) > 0 {
		return errors.Join(jobErrs...)
	}
	log.Printf("workflow %s finished", name)
	return nil
}

// failedRequire returns the first direct dependency of a job that
// failed or was skipped, or empty when the job may run.
func failedRequire(reqs []string, failed map[string]bool) string {
	for _, req := range reqs {
		if failed[req] {
			return req
		}
	}
	return ""
}

// runJob executes one job's steps sequentially, saving a log file and
// appending an audit record per step. The first failing step aborts
// the job.
func (r *Runner) runJob(ctx context.Context, cfg *config.Config, workflow, jobName string) error {
	job := cfg.Jobs[jobName]
	runID := uuid.NewString()

	if r.Store != nil {
		run := &storage.Run{
			ID:        runID,
			Workflow:  workflow,
			Job:       jobName,
			StartedAt: time.Now(),
		}
		if err := r.Store.CreateRun(run); err != nil {
			log.Printf("WARN: cannot record run %s: %v", runID, err)
		}
	}

	var lastLog string
	for i, step := range job.Steps {
		label := step.Label()
		log.Printf("job %s: step %d/%d: %s", jobName, i+1, len(job.Steps), label)

		output, stepErr := r.Executor.RunStep(ctx, job.WorkingDirectory, step)

		logPath, logErr := r.Logs.SaveLog(jobName, label, output)
		if logErr != nil {
			log.Printf("WARN: cannot save log for %s: %v", label, logErr)
		} else {
			lastLog = logPath
			r.appendRecord(runID, workflow, jobName, label, logPath)
		}

		if stepErr != nil {
			r.finishRun(runID, storage.StatusFailed, lastLog)
			return fmt.Errorf("job %s: step %q failed: %w", jobName, label, stepErr)
		}
	}

	r.finishRun(runID, storage.StatusPassed, lastLog)
	return nil
}

// appendRecord adds a signed record for a completed step. Ledger
// trouble never fails the pipeline; it is reported and skipped.
func (r *Runner) appendRecord(runID, workflow, job, step, logPath string) {
	if r.Ledger == nil || len(r.PrivKey) == 0 {
		return
	}

	logHash, err := hashutil.HashFile(logPath)
	if err != nil {
		log.Printf("WARN: cannot hash log %s: %v", logPath, err)
		return
	}

	r.ledgerMu.Lock()
	defer r.ledgerMu.Unlock()

	rec, err := audit.NewRecord(
		r.Ledger.NextIndex(), runID, workflow, job, step,
		logPath, logHash, r.Ledger.LastHash(), r.RunnerID,
	)
	if err != nil {
		log.Printf("WARN: cannot create audit record: %v", err)
		return
	}
	if err := r.Ledger.Append(rec, r.PrivKey, r.PubKey); err != nil {
		log.Printf("WARN: cannot append audit record: %v", err)
	}
}

func (r *Runner) finishRun(runID, status, logPath string) {
	if r.Store == nil {
		return
	}
	if err := r.Store.FinishRun(runID, status, logPath, time.Now()); err != nil {
		log.Printf("WARN: cannot finish run %s: %v", runID, err)
	}
}

func mkdirForKeys(pubPath string) error {
	return os.MkdirAll(filepath.Dir(pubPath), 0700)
}

// ensureKeys loads the runner keypair, generating one on first use.
func ensureKeys(pubPath, privPath string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	if pub, err := security.LoadPublicKey(pubPath); err == nil {
		priv, err := security.LoadPrivateKey(privPath)
		if err != nil {
			return nil, nil, err
		}
		return pub, priv, nil
	}

	pub, priv, err := security.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	if err := mkdirForKeys(pubPath); err != nil {
		return nil, nil, err
	}
	if err := security.SaveKeyPair(pub, priv, pubPath, privPath); err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}
