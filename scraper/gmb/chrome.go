package gmb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"gmb-scraper/config"
	"gmb-scraper/utils"
)

const pollEvery = 250 * time.Millisecond

// ChromeBrowser drives a single Chrome tab through chromedp.
type ChromeBrowser struct {
	cfg         *config.Config
	log         *utils.Logger
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

// NewChromeBrowser launches Chrome with stealth options and opens one tab.
func NewChromeBrowser(cfg *config.Config, userAgent string, log *utils.Logger) (*ChromeBrowser, error) {
	log.Info("Launching Chrome browser...")
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		utils.StealthOpts(cfg, userAgent)...,
	)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser; it must not carry a deadline or the
	// browser dies with it.
	if err := chromedp.Run(tabCtx, utils.HideWebDriver()); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	log.Success("Browser ready")
	return &ChromeBrowser{
		cfg:         cfg,
		log:         log,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

func (b *ChromeBrowser) Close() error {
	b.log.Info("Closing browser...")
	b.tabCancel()
	b.allocCancel()
	return nil
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (b *ChromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (b *ChromeBrowser) Exists(ctx context.Context, sel Selector) (bool, error) {
	var found bool
	script := fmt.Sprintf(`(%s) !== null`, lookupJS(sel))
	if err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.Evaluate(script, &found)); err != nil {
		return false, fmt.Errorf("query %s: %w", sel, err)
	}
	return found, nil
}

func (b *ChromeBrowser) WaitFor(ctx context.Context, sel Selector, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		found, err := b.Exists(ctx, sel)
		if err != nil {
			return err
		}
		if found {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s after %s", ErrElementNotFound, sel, timeout)
		}
		if err := (utils.SystemClock{}).Sleep(ctx, pollEvery); err != nil {
			return err
		}
	}
}

func (b *ChromeBrowser) Click(ctx context.Context, sel Selector) error {
	var clicked bool
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.click();
		return true;
	})()`, lookupJS(sel))
	if err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	if !clicked {
		return fmt.Errorf("%w: %s", ErrElementNotFound, sel)
	}
	return nil
}

func (b *ChromeBrowser) Clear(ctx context.Context, sel Selector) error {
	if err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.Clear(sel.Query, queryOption(sel))); err != nil {
		return fmt.Errorf("clear %s: %w", sel, err)
	}
	return nil
}

func (b *ChromeBrowser) Type(ctx context.Context, sel Selector, keys string) error {
	keys = strings.ReplaceAll(keys, "\n", kb.Enter)
	if err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.SendKeys(sel.Query, keys, queryOption(sel))); err != nil {
		return fmt.Errorf("type into %s: %w", sel, err)
	}
	return nil
}

func (b *ChromeBrowser) PageHeight(ctx context.Context) (int64, error) {
	var height int64
	if err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
		return 0, fmt.Errorf("read page height: %w", err)
	}
	return height, nil
}

func (b *ChromeBrowser) ScrollToBottom(ctx context.Context) error {
	if err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil)); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

func (b *ChromeBrowser) OuterHTML(ctx context.Context, sel Selector) ([]string, error) {
	var script string
	q := jsString(sel.Query)
	if sel.XPath {
		script = fmt.Sprintf(`(() => {
			const snap = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			const out = [];
			for (let i = 0; i < snap.snapshotLength; i++) out.push(snap.snapshotItem(i).outerHTML);
			return out;
		})()`, q)
	} else {
		script = fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => el.outerHTML)`, q)
	}

	var fragments []string
	if err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.Evaluate(script, &fragments)); err != nil {
		return nil, fmt.Errorf("collect %s: %w", sel, err)
	}
	return fragments, nil
}

func queryOption(sel Selector) chromedp.QueryOption {
	if sel.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// lookupJS is a JS expression yielding the first match of sel, or null.
func lookupJS(sel Selector) string {
	q := jsString(sel.Query)
	if sel.XPath {
		return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, q)
	}
	return fmt.Sprintf(`document.querySelector(%s)`, q)
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
