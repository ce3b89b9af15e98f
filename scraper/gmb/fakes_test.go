package gmb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gmb-scraper/config"
	"gmb-scraper/models"
	"gmb-scraper/utils"
)

// fakeClock advances only when something sleeps on it.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	onTick func(now time.Time)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	now, tick := c.now, c.onTick
	c.mu.Unlock()
	if tick != nil {
		tick(now)
	}
	return nil
}

type notification struct {
	subject string
	body    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{subject: subject, body: body})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// fakeBrowser plays back a scripted results flow.
type fakeBrowser struct {
	present map[string]bool
	// captcha holds successive answers for the CAPTCHA frame check; once
	// drained the frame is reported absent.
	captcha []bool
	// pages holds the listing fragments of each results page.
	pages [][]string
	// hasNext overrides the default "every page but the last has a next link".
	hasNext func(page int) bool

	// heights is played back by PageHeight; the last value repeats.
	heights []int64

	navigateErr error
	outerErr    error
	scrollErr   error

	page          int
	navigations   int
	captchaChecks int
	scrolls       int
	typed         strings.Builder
	clicks        []string
	closed        bool
}

func newFakeBrowser(pages ...[]string) *fakeBrowser {
	return &fakeBrowser{
		present: map[string]bool{
			searchBoxSelector:   true,
			moreBusinessesXPath: true,
		},
		pages: pages,
	}
}

func (b *fakeBrowser) Navigate(context.Context, string) error {
	b.navigations++
	return b.navigateErr
}

func (b *fakeBrowser) Exists(_ context.Context, sel Selector) (bool, error) {
	if sel.Query == captchaFrameSelector {
		b.captchaChecks++
		if len(b.captcha) == 0 {
			return false, nil
		}
		v := b.captcha[0]
		b.captcha = b.captcha[1:]
		return v, nil
	}
	return b.present[sel.Query], nil
}

func (b *fakeBrowser) WaitFor(ctx context.Context, sel Selector, timeout time.Duration) error {
	ok, _ := b.Exists(ctx, sel)
	if !ok {
		return fmt.Errorf("%w: %s after %s", ErrElementNotFound, sel, timeout)
	}
	return nil
}

func (b *fakeBrowser) Click(_ context.Context, sel Selector) error {
	if sel.Query == nextPageSelector {
		if !b.nextPresent() {
			return fmt.Errorf("%w: %s", ErrElementNotFound, sel)
		}
		b.clicks = append(b.clicks, sel.Query)
		b.page++
		return nil
	}
	if !b.present[sel.Query] {
		return fmt.Errorf("%w: %s", ErrElementNotFound, sel)
	}
	b.clicks = append(b.clicks, sel.Query)
	return nil
}

func (b *fakeBrowser) nextPresent() bool {
	if b.hasNext != nil {
		return b.hasNext(b.page)
	}
	return b.page < len(b.pages)-1
}

func (b *fakeBrowser) Clear(context.Context, Selector) error {
	b.typed.Reset()
	return nil
}

func (b *fakeBrowser) Type(_ context.Context, _ Selector, keys string) error {
	b.typed.WriteString(keys)
	return nil
}

func (b *fakeBrowser) PageHeight(context.Context) (int64, error) {
	if len(b.heights) == 0 {
		return 1000, nil
	}
	h := b.heights[0]
	if len(b.heights) > 1 {
		b.heights = b.heights[1:]
	}
	return h, nil
}

func (b *fakeBrowser) ScrollToBottom(context.Context) error {
	b.scrolls++
	return b.scrollErr
}

func (b *fakeBrowser) OuterHTML(_ context.Context, sel Selector) ([]string, error) {
	if b.outerErr != nil {
		return nil, b.outerErr
	}
	if b.page < len(b.pages) {
		return b.pages[b.page], nil
	}
	return nil, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBrowser) clicked(query string) int {
	n := 0
	for _, c := range b.clicks {
		if c == query {
			n++
		}
	}
	return n
}

// testConfig returns a config whose waits are meaningful only to a fake clock.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.KeywordsFile = "unused.txt"
	cfg.RetryBackoff = time.Millisecond
	cfg.CaptchaTimeout = 30 * time.Second
	cfg.CaptchaPollInterval = 10 * time.Second
	return cfg
}

func newTestNavigator(cfg *config.Config, b Browser, n *recordingNotifier, clock *fakeClock) *Navigator {
	return NewNavigator(cfg, b, n, utils.NewPacer(clock, 1), NewMetrics(), utils.Discard())
}

// listingHTML renders a listing container shaped like the live results list.
func listingHTML(name, ratingLine string, blocks ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="rllt__details">`)
	if name != "" {
		fmt.Fprintf(&b, `<div class="dbg0pd" role="heading"><span class="OSrXXb">%s</span></div>`, name)
	}
	if ratingLine != "" {
		fmt.Fprintf(&b, `<div><span class="Y0A0hc">%s</span></div>`, ratingLine)
	}
	for _, block := range blocks {
		fmt.Fprintf(&b, `<div>%s</div>`, block)
	}
	b.WriteString(`</div>`)
	return b.String()
}

type fakeSession struct {
	results map[string]models.ScrapeResult
	errs    map[string]error
	panicOn string
	scraped []string
	closed  int
}

func (s *fakeSession) Scrape(_ context.Context, keyword string) (models.ScrapeResult, error) {
	s.scraped = append(s.scraped, keyword)
	if keyword == s.panicOn {
		panic("driver exploded")
	}
	if err := s.errs[keyword]; err != nil {
		return models.ScrapeResult{Keyword: keyword}, err
	}
	if res, ok := s.results[keyword]; ok {
		return res, nil
	}
	return models.ScrapeResult{Keyword: keyword, Outcome: models.OutcomeSuccess}, nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type staticSource struct {
	keywords []string
	err      error
	calls    int
}

func (s *staticSource) Keywords(context.Context) ([]string, error) {
	s.calls++
	return s.keywords, s.err
}

type captureExporter struct {
	written [][]models.Listing
	err     error
}

func (e *captureExporter) Write(listings []models.Listing) error {
	e.written = append(e.written, listings)
	return e.err
}
