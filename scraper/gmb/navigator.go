package gmb

import (
	"context"
	"errors"
	"fmt"

	"gmb-scraper/config"
	"gmb-scraper/models"
	"gmb-scraper/services"
	"gmb-scraper/utils"
)

// Navigator runs the search-and-paginate flow for one keyword at a time on a
// single browser.
type Navigator struct {
	cfg     *config.Config
	browser Browser
	captcha *CaptchaWatcher
	pacer   *utils.Pacer
	metrics *Metrics
	log     *utils.Logger
}

func NewNavigator(cfg *config.Config, browser Browser, notifier services.Notifier, pacer *utils.Pacer, metrics *Metrics, log *utils.Logger) *Navigator {
	captcha := NewCaptchaWatcher(browser, notifier, pacer.Clock(), cfg.CaptchaTimeout, cfg.CaptchaPollInterval, log)
	captcha.OnState = func(s CaptchaState) {
		if s != CaptchaWaiting {
			metrics.IncCaptcha(s)
		}
	}
	return &Navigator{
		cfg:     cfg,
		browser: browser,
		captcha: captcha,
		pacer:   pacer,
		metrics: metrics,
		log:     log,
	}
}

// Close tears down the browser.
func (n *Navigator) Close() error {
	return n.browser.Close()
}

// Scrape searches for keyword and collects every listing across the result
// pages. Per-keyword obstacles are reported through the result's Outcome; a
// non-nil error means the browser itself failed or ctx ended.
func (n *Navigator) Scrape(ctx context.Context, keyword string) (models.ScrapeResult, error) {
	result := models.ScrapeResult{Keyword: keyword}

	if err := n.openSearchPage(ctx); err != nil {
		return result, err
	}
	if err := n.dismissConsent(ctx); err != nil {
		return result, err
	}
	if err := n.pacer.Pause(ctx, n.cfg.AfterPageLoad); err != nil {
		return result, err
	}

	submitted, err := n.submitSearch(ctx, keyword)
	if err != nil {
		return result, err
	}
	if !submitted {
		result.Outcome = models.OutcomeSearchBoxMissing
		return result, nil
	}

	present, err := n.captcha.Present(ctx)
	if err != nil {
		return result, err
	}
	if present {
		state, err := n.captcha.Await(ctx, keyword)
		if err != nil {
			return result, err
		}
		if state == CaptchaTimedOut {
			result.Outcome = models.OutcomeCaptchaTimeout
			return result, nil
		}
	}

	expanded, err := n.expandResults(ctx, keyword)
	if err != nil {
		return result, err
	}
	if !expanded {
		result.Outcome = models.OutcomeNoMoreBusinesses
		return result, nil
	}

	listings, pages, err := n.paginate(ctx, keyword)
	result.Listings = listings
	result.Pages = pages
	if err != nil {
		return result, err
	}

	result.Outcome = models.OutcomeSuccess
	return result, nil
}

func (n *Navigator) openSearchPage(ctx context.Context) error {
	return utils.Retry(ctx, n.log, "open search page", n.cfg.RetryAttempts, n.cfg.RetryBackoff, func() error {
		return n.browser.Navigate(ctx, n.cfg.SearchURL)
	})
}

// dismissConsent clicks the first cookie banner button it finds. A missing
// banner is normal; only ctx errors are returned.
func (n *Navigator) dismissConsent(ctx context.Context) error {
	clock := n.pacer.Clock()
	if err := clock.Sleep(ctx, n.cfg.ConsentWait); err != nil {
		return err
	}

	for _, button := range consentButtons {
		err := n.browser.Click(ctx, button)
		switch {
		case err == nil:
			n.log.Info("Clicked cookie consent button %s", button)
			return clock.Sleep(ctx, n.cfg.ConsentWait)
		case errors.Is(err, ErrElementNotFound):
			continue
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			n.log.Warn("Could not handle cookie consent banner: %v", err)
			return nil
		}
	}
	return nil
}

// submitSearch types keyword into the search box like a person would and
// presses Enter. It reports false when the box never shows up.
func (n *Navigator) submitSearch(ctx context.Context, keyword string) (bool, error) {
	box := CSS(searchBoxSelector)

	if err := n.browser.WaitFor(ctx, box, n.cfg.SearchBoxTimeout); err != nil {
		if errors.Is(err, ErrElementNotFound) {
			n.log.Error("Could not find the search box for '%s'", keyword)
			return false, nil
		}
		return false, err
	}

	if err := n.browser.Clear(ctx, box); err != nil {
		return false, err
	}
	for _, r := range keyword {
		if err := n.browser.Type(ctx, box, string(r)); err != nil {
			return false, err
		}
		if err := n.pacer.Pause(ctx, n.cfg.Keystroke); err != nil {
			return false, err
		}
	}
	if err := n.browser.Type(ctx, box, "\n"); err != nil {
		return false, err
	}
	return true, nil
}

func (n *Navigator) expandResults(ctx context.Context, keyword string) (bool, error) {
	n.log.Info("Looking for 'More businesses' button...")
	more := XPath(moreBusinessesXPath)

	err := n.browser.WaitFor(ctx, more, n.cfg.MoreBusinessesTimeout)
	if err == nil {
		err = n.browser.Click(ctx, more)
	}
	if errors.Is(err, ErrElementNotFound) {
		n.log.Warn("Could not find 'More businesses' button for '%s'. Skipping.", keyword)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	n.log.Info("Clicked 'More businesses'")
	return true, nil
}

// paginate walks at most MaxPages result pages. It stops early on a page with
// no listings or when there is no next-page control.
func (n *Navigator) paginate(ctx context.Context, keyword string) ([]models.Listing, int, error) {
	var listings []models.Listing
	pages := 0

	for page := 1; page <= n.cfg.MaxPages; page++ {
		n.log.Info("--- Scraping page %d for '%s' ---", page, keyword)

		if err := n.pacer.Pause(ctx, n.cfg.ListRead); err != nil {
			return listings, pages, err
		}
		if err := n.scrollToEnd(ctx); err != nil {
			return listings, pages, err
		}

		fragments, err := n.browser.OuterHTML(ctx, CSS(listingSelector))
		if err != nil {
			return listings, pages, err
		}
		n.log.Info("Found %d listings on this page", len(fragments))
		if len(fragments) == 0 {
			break
		}

		pages++
		n.metrics.IncPage()
		for i, raw := range fragments {
			fragment, err := FragmentFromHTML(raw)
			if err != nil {
				n.log.Warn("Skipping listing %d on page %d: %v", i+1, page, err)
				continue
			}
			listings = append(listings, ParseListing(fragment, keyword))
		}

		err = n.browser.Click(ctx, CSS(nextPageSelector))
		if errors.Is(err, ErrElementNotFound) {
			n.log.Info("No 'Next' button found. End of results.")
			break
		}
		if err != nil {
			return listings, pages, fmt.Errorf("next page: %w", err)
		}
		if err := n.pacer.Pause(ctx, n.cfg.BeforeNextPage); err != nil {
			return listings, pages, err
		}
	}

	return listings, pages, nil
}

// scrollToEnd scrolls until the page height settles or MaxScrolls is reached.
// Scroll failures are logged and ignored; only ctx errors are returned.
func (n *Navigator) scrollToEnd(ctx context.Context) error {
	last, err := n.browser.PageHeight(ctx)
	if err != nil {
		return n.scrollFailed(ctx, err)
	}

	for i := 0; i < n.cfg.MaxScrolls; i++ {
		if err := n.browser.ScrollToBottom(ctx); err != nil {
			return n.scrollFailed(ctx, err)
		}
		if err := n.pacer.Pause(ctx, n.cfg.ScrollPause); err != nil {
			return err
		}
		height, err := n.browser.PageHeight(ctx)
		if err != nil {
			return n.scrollFailed(ctx, err)
		}
		if height == last {
			break
		}
		last = height
	}
	return nil
}

func (n *Navigator) scrollFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	n.log.Warn("Could not scroll the page: %v", err)
	return nil
}
