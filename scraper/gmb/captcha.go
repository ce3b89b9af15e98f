package gmb

import (
	"context"
	"time"

	"gmb-scraper/services"
	"gmb-scraper/utils"
)

type CaptchaState int

const (
	CaptchaDetected CaptchaState = iota
	CaptchaWaiting
	CaptchaResolved
	CaptchaTimedOut
)

func (s CaptchaState) String() string {
	switch s {
	case CaptchaDetected:
		return "detected"
	case CaptchaWaiting:
		return "waiting"
	case CaptchaResolved:
		return "resolved"
	case CaptchaTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// CaptchaWatcher waits for an operator to clear a CAPTCHA challenge.
type CaptchaWatcher struct {
	browser  Browser
	notifier services.Notifier
	clock    utils.Clock
	timeout  time.Duration
	interval time.Duration
	log      *utils.Logger
	// OnState, when set, sees every state the wait passes through.
	OnState func(CaptchaState)
}

func NewCaptchaWatcher(browser Browser, notifier services.Notifier, clock utils.Clock, timeout, interval time.Duration, log *utils.Logger) *CaptchaWatcher {
	return &CaptchaWatcher{
		browser:  browser,
		notifier: notifier,
		clock:    clock,
		timeout:  timeout,
		interval: interval,
		log:      log,
	}
}

func (w *CaptchaWatcher) record(s CaptchaState) {
	if w.OnState != nil {
		w.OnState(s)
	}
}

// Present reports whether the challenge frame is on the page.
func (w *CaptchaWatcher) Present(ctx context.Context) (bool, error) {
	return w.browser.Exists(ctx, CSS(captchaFrameSelector))
}

// Await runs one occurrence from DETECTED to RESOLVED or TIMED_OUT. It sends
// exactly one notification, then polls every interval until the frame is gone
// or the timeout has elapsed. A non-nil error means ctx ended the wait.
func (w *CaptchaWatcher) Await(ctx context.Context, keyword string) (CaptchaState, error) {
	start := w.clock.Now()
	deadline := start.Add(w.timeout)

	state := CaptchaDetected
	w.record(state)
	w.log.Warn("!!! CAPTCHA DETECTED !!! Pausing and waiting up to %s for manual intervention", w.timeout)
	subject, body := services.CaptchaAlert(keyword, w.timeout)
	w.notifier.Notify(ctx, subject, body)

	state = CaptchaWaiting
	w.record(state)
	for state == CaptchaWaiting {
		if err := w.clock.Sleep(ctx, w.interval); err != nil {
			return state, err
		}

		present, err := w.Present(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return state, ctx.Err()
			}
			w.log.Warn("CAPTCHA check failed, still waiting: %v", err)
			present = true
		}

		switch {
		case !present:
			state = CaptchaResolved
		case !w.clock.Now().Before(deadline):
			state = CaptchaTimedOut
		}
	}

	w.record(state)
	if state == CaptchaResolved {
		w.log.Success("CAPTCHA solved after %s, resuming", w.clock.Now().Sub(start).Round(time.Second))
	} else {
		w.log.Error("CAPTCHA timeout! Abandoning keyword '%s'", keyword)
	}
	return state, nil
}
