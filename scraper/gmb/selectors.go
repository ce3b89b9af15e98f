package gmb

// Selectors for the search page and the "More businesses" local results list.
// Centralising them makes layout changes a one-file edit.
const (
	searchBoxSelector    = `[name='q']`
	captchaFrameSelector = `iframe[title="reCAPTCHA"]`
	moreBusinessesXPath  = `//a[contains(., 'More businesses')]`
	listingSelector      = `div.rllt__details`
	nextPageSelector     = `#pnnext`
	nameSelector         = `div.dbg0pd span`
	ratingLineSelector   = `span.Y0A0hc`
)

// consentButtons are tried in order; the first present one is clicked.
var consentButtons = []Selector{
	XPath(`//button[contains(., 'Accept all')]`),
	XPath(`//button[contains(., 'Reject all')]`),
	XPath(`//button[contains(., 'I agree')]`),
}
