package gmb

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"gmb-scraper/config"
	"gmb-scraper/models"
	"gmb-scraper/services"
	"gmb-scraper/storage"
	"gmb-scraper/utils"
)

type KeywordSource interface {
	Keywords(ctx context.Context) ([]string, error)
}

type ProgressTracker interface {
	Load() (models.KeywordSet, error)
	Save(keyword string) error
}

// Session scrapes keywords on one browser until closed.
type Session interface {
	Scrape(ctx context.Context, keyword string) (models.ScrapeResult, error)
	Close() error
}

// SessionFactory opens the browser session for a run.
type SessionFactory func(ctx context.Context) (Session, error)

// SourceFactory connects to the keyword list. It runs inside Run so that a
// credentials failure is handled like any other fatal error.
type SourceFactory func(ctx context.Context) (KeywordSource, error)

type RunnerDeps struct {
	NewSource  SourceFactory
	Progress   ProgressTracker
	Exporter   storage.Exporter
	Notifier   services.Notifier
	NewSession SessionFactory
	Pacer      *utils.Pacer
	Metrics    *Metrics
	Log        *utils.Logger
}

// Runner walks the keyword list, skipping finished keywords, and writes the
// accumulated listings once at the end.
type Runner struct {
	cfg *config.Config
	RunnerDeps
}

func NewRunner(cfg *config.Config, deps RunnerDeps) *Runner {
	if deps.Notifier == nil {
		deps.Notifier = services.NopNotifier{}
	}
	if deps.Pacer == nil {
		deps.Pacer = utils.NewPacer(utils.SystemClock{}, 1)
	}
	return &Runner{cfg: cfg, RunnerDeps: deps}
}

type RunResult struct {
	Listings []models.Listing
	Stats    services.RunStats
}

// Run processes every pending keyword. Whatever was collected is exported even
// when the run fails; a failure other than cancellation also sends a crash alert.
func (r *Runner) Run(ctx context.Context) (result RunResult, err error) {
	r.Log.Section("Starting GMB scraper")

	var trace string
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unhandled panic: %v", rec)
			trace = string(debug.Stack())
		}
		err = r.finish(ctx, result, err, trace)
	}()

	err = r.process(ctx, &result)
	return result, err
}

func (r *Runner) process(ctx context.Context, result *RunResult) error {
	completed, err := r.Progress.Load()
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}

	source, err := r.NewSource(ctx)
	if err != nil {
		return fmt.Errorf("connect keyword source: %w", err)
	}

	var keywords []string
	err = utils.Retry(ctx, r.Log, "fetch keywords", r.cfg.RetryAttempts, r.cfg.RetryBackoff, func() error {
		var fetchErr error
		keywords, fetchErr = source.Keywords(ctx)
		return fetchErr
	})
	if err != nil {
		return err
	}
	if len(keywords) == 0 {
		r.Log.Warn("Keyword list is empty")
		return nil
	}

	session, err := r.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("start browser session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			r.Log.Warn("Closing browser session: %v", cerr)
		}
	}()

	clock := r.Pacer.Clock()
	for i, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return err
		}
		if completed.Has(keyword) {
			r.Log.Info("Skipping already completed keyword: '%s'", keyword)
			result.Stats.Skipped++
			continue
		}

		r.Log.Section(fmt.Sprintf("Keyword %d/%d: '%s'", i+1, len(keywords), keyword))
		started := clock.Now()

		res, err := session.Scrape(ctx, keyword)
		if err != nil {
			return fmt.Errorf("scrape %q: %w", keyword, err)
		}
		r.Metrics.IncKeyword(res.Outcome)
		r.Metrics.ObserveKeyword(clock.Now().Sub(started).Seconds())

		if res.Outcome != models.OutcomeSuccess {
			r.Log.Warn("Keyword '%s' concluded without data (%s)", keyword, res.Outcome)
			result.Stats.Failed++
			if err := r.markCompleted(completed, keyword); err != nil {
				return err
			}
			continue
		}

		kept := 0
		for _, l := range res.Listings {
			if !l.HasName() {
				continue
			}
			result.Listings = append(result.Listings, l)
			kept++
		}
		r.Metrics.AddListings(kept, len(res.Listings)-kept)
		result.Stats.Processed++

		if err := r.markCompleted(completed, keyword); err != nil {
			return err
		}
		r.Log.Success("Finished '%s': %d listings over %d pages. Taking a break...", keyword, kept, res.Pages)
		if err := r.Pacer.Pause(ctx, r.cfg.BetweenKeywords); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) markCompleted(completed models.KeywordSet, keyword string) error {
	if err := r.Progress.Save(keyword); err != nil {
		return fmt.Errorf("save progress for %q: %w", keyword, err)
	}
	completed.Add(keyword)
	return nil
}

func (r *Runner) finish(ctx context.Context, result RunResult, runErr error, trace string) error {
	if len(result.Listings) > 0 {
		r.Log.Info("Saving %d listings...", len(result.Listings))
		if err := r.Exporter.Write(result.Listings); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("export results: %w", err))
		}
	} else {
		r.Log.Warn("Scraping finished, but no new data was collected.")
	}

	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		r.Log.Warn("Run interrupted: %v", runErr)
	default:
		if trace != "" {
			r.Log.Error("A critical, unhandled error occurred: %v\n%s", runErr, trace)
		} else {
			r.Log.Error("A critical, unhandled error occurred: %v", runErr)
		}
		subject, body := services.CrashAlert(runErr, trace)
		r.Notifier.Notify(context.WithoutCancel(ctx), subject, body)
	}

	r.Log.Section("GMB scraper finished")
	return runErr
}
