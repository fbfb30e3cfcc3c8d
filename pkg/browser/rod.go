package browser

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"xtractor/pkg/config"
	errs "xtractor/pkg/errors"
	"xtractor/pkg/fingerprint"
	"xtractor/pkg/logger"
	"xtractor/pkg/models"
)

// RodDriver drives a real Chromium instance over the DevTools protocol.
// A single page is used for the whole run; the fingerprint applied at
// launch stays fixed until Close.
var _ Driver = (*RodDriver)(nil)

type RodDriver struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	navTimeout time.Duration
	logger     logger.Logger
}

// Launch starts a hardened Chromium instance, opens a blank page, and
// stamps the fingerprint profile onto it. The profile must not change
// for the lifetime of the driver.
func Launch(cfg config.BrowserConfig, profile *fingerprint.Profile) (*RodDriver, error) {
	log := logger.GetLogger()

	l := launcher.New().
		Headless(cfg.Headless).
		Leakless(true)
	for name, value := range fingerprint.LaunchFlags {
		if value == "" {
			l = l.Set(flags.Flag(name))
		} else {
			l = l.Set(flags.Flag(name), value)
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to launch browser", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to connect to browser", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to open page", err)
	}

	d := &RodDriver{
		launcher:   l,
		browser:    b,
		page:       page,
		navTimeout: cfg.NavigationTimeout,
		logger:     log,
	}

	if err := d.applyFingerprint(profile); err != nil {
		_ = d.Close()
		return nil, err
	}

	log.InfoWithFields("Browser launched", map[string]interface{}{
		"headless":   cfg.Headless,
		"user_agent": profile.UserAgent,
		"viewport":   profile.Viewport,
	})

	return d, nil
}

// applyFingerprint installs the identity overrides and the stealth
// script. The script runs before any page script on every navigation.
func (d *RodDriver) applyFingerprint(profile *fingerprint.Profile) error {
	if err := d.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      profile.UserAgent,
		AcceptLanguage: profile.Locale,
		Platform:       "Win32",
	}); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "failed to set user agent", err)
	}

	if err := d.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             profile.Viewport.Width,
		Height:            profile.Viewport.Height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "failed to set viewport", err)
	}

	if err := (proto.EmulationSetTimezoneOverride{
		TimezoneID: profile.Timezone,
	}).Call(d.page); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "failed to set timezone", err)
	}

	lat := profile.Geolocation.Latitude
	lon := profile.Geolocation.Longitude
	accuracy := 100.0
	if err := (proto.EmulationSetGeolocationOverride{
		Latitude:  &lat,
		Longitude: &lon,
		Accuracy:  &accuracy,
	}).Call(d.page); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "failed to set geolocation", err)
	}

	if len(profile.ExtraHeaders) > 0 {
		headers := proto.NetworkHeaders{}
		for k, v := range profile.ExtraHeaders {
			headers[k] = gson.New(v)
		}
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(d.page); err != nil {
			return errs.Wrap(errs.ErrorTypeNavigation, "failed to set extra headers", err)
		}
	}

	if _, err := (proto.PageAddScriptToEvaluateOnNewDocument{
		Source: fingerprint.StealthScript,
	}).Call(d.page); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "failed to install stealth script", err)
	}

	return nil
}

// withCtx binds the page to the caller's context
func (d *RodDriver) withCtx(ctx context.Context) *rod.Page {
	return d.page.Context(ctx)
}

// Navigate loads the URL and waits for the load event, bounded by the
// configured navigation timeout.
func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	p := d.withCtx(ctx).Timeout(d.navTimeout)
	if err := p.Navigate(url); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "navigation failed", err)
	}
	if err := p.WaitLoad(); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "page load wait failed", err)
	}
	return nil
}

// CurrentURL returns the page's current location
func (d *RodDriver) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.withCtx(ctx).Info()
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeNavigation, "failed to read page info", err)
	}
	return info.URL, nil
}

// PageHTML returns the full rendered document markup
func (d *RodDriver) PageHTML(ctx context.Context) (string, error) {
	html, err := d.withCtx(ctx).HTML()
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeExtraction, "failed to read page markup", err)
	}
	return html, nil
}

// ElementsHTML returns the outer markup of every matching element in
// document order. Elements that detach between query and read are
// skipped rather than failing the batch.
func (d *RodDriver) ElementsHTML(ctx context.Context, selector string) ([]string, error) {
	elements, err := d.withCtx(ctx).Elements(selector)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeExtraction, "element query failed", err)
	}

	result := make([]string, 0, len(elements))
	for _, el := range elements {
		html, err := el.HTML()
		if err != nil {
			d.logger.WithError(err).Debug("Skipping detached element")
			continue
		}
		result = append(result, html)
	}
	return result, nil
}

// DocumentHeight reads the rendered document height in pixels
func (d *RodDriver) DocumentHeight(ctx context.Context) (int, error) {
	res, err := d.withCtx(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeNavigation, "failed to read document height", err)
	}
	return res.Value.Int(), nil
}

// ScrollBy scrolls the window vertically by the given pixels
func (d *RodDriver) ScrollBy(ctx context.Context, pixels int) error {
	_, err := d.withCtx(ctx).Eval(`(y) => window.scrollBy(0, y)`, pixels)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "scroll failed", err)
	}
	return nil
}

// ScrollByViewportRatio scrolls by a fraction of the viewport height
func (d *RodDriver) ScrollByViewportRatio(ctx context.Context, ratio float64) error {
	_, err := d.withCtx(ctx).Eval(`(r) => window.scrollBy(0, window.innerHeight * r)`, ratio)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "scroll failed", err)
	}
	return nil
}

// SmoothScrollBy performs an eased in-page scroll spread over roughly
// durationMs, closer to trackpad motion than an instant jump.
func (d *RodDriver) SmoothScrollBy(ctx context.Context, pixels, durationMs int) error {
	_, err := d.withCtx(ctx).Eval(`(total, duration) => {
		return new Promise((resolve) => {
			const start = performance.now();
			let last = 0;
			const step = (now) => {
				const t = Math.min((now - start) / duration, 1);
				const eased = t < 0.5 ? 2 * t * t : 1 - Math.pow(-2 * t + 2, 2) / 2;
				const target = Math.round(total * eased);
				window.scrollBy(0, target - last);
				last = target;
				if (t < 1) {
					requestAnimationFrame(step);
				} else {
					resolve();
				}
			};
			requestAnimationFrame(step);
		});
	}`, pixels, durationMs)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "smooth scroll failed", err)
	}
	return nil
}

// WheelScroll dispatches a mouse wheel gesture near the viewport center
func (d *RodDriver) WheelScroll(ctx context.Context, deltaY int) error {
	err := (proto.InputDispatchMouseEvent{
		Type:   proto.InputDispatchMouseEventTypeMouseWheel,
		X:      400,
		Y:      400,
		DeltaX: 0,
		DeltaY: float64(deltaY),
	}).Call(d.withCtx(ctx))
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "wheel scroll failed", err)
	}
	return nil
}

// ScrollToTop jumps to the top of the document
func (d *RodDriver) ScrollToTop(ctx context.Context) error {
	_, err := d.withCtx(ctx).Eval(`() => window.scrollTo(0, 0)`)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "scroll to top failed", err)
	}
	return nil
}

// ScrollToBottom jumps to the bottom of the document
func (d *RodDriver) ScrollToBottom(ctx context.Context) error {
	_, err := d.withCtx(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "scroll to bottom failed", err)
	}
	return nil
}

// MouseMove moves the pointer to the given viewport coordinates
func (d *RodDriver) MouseMove(ctx context.Context, x, y float64) error {
	err := (proto.InputDispatchMouseEvent{
		Type: proto.InputDispatchMouseEventTypeMouseMoved,
		X:    x,
		Y:    y,
	}).Call(d.withCtx(ctx))
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "mouse move failed", err)
	}
	return nil
}

// ElementExists reports whether the selector matches anything
func (d *RodDriver) ElementExists(ctx context.Context, selector string) (bool, error) {
	has, _, err := d.withCtx(ctx).Has(selector)
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypeExtraction, "element lookup failed", err)
	}
	return has, nil
}

// ClickElement clicks the first element matching the selector
func (d *RodDriver) ClickElement(ctx context.Context, selector string) error {
	el, err := d.withCtx(ctx).Timeout(d.navTimeout).Element(selector)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "element not found: "+selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "click failed: "+selector, err)
	}
	return nil
}

// InsertText types text into the currently focused element
func (d *RodDriver) InsertText(ctx context.Context, text string) error {
	if err := (proto.InputInsertText{Text: text}).Call(d.withCtx(ctx)); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "text input failed", err)
	}
	return nil
}

// PressEnter sends the Enter key to the page
func (d *RodDriver) PressEnter(ctx context.Context) error {
	if err := d.withCtx(ctx).Keyboard.Type(input.Enter); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "key press failed", err)
	}
	return nil
}

// Cookies reads all browser cookies
func (d *RodDriver) Cookies(ctx context.Context) ([]models.Cookie, error) {
	raw, err := d.browser.Context(ctx).GetCookies()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeSession, "failed to read cookies", err)
	}

	cookies := make([]models.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return cookies, nil
}

// SetCookies installs cookies into the browser
func (d *RodDriver) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  proto.TimeSinceEpoch(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: proto.NetworkCookieSameSite(c.SameSite),
		})
	}

	if err := d.browser.Context(ctx).SetCookies(params); err != nil {
		return errs.Wrap(errs.ErrorTypeSession, "failed to set cookies", err)
	}
	return nil
}

// StorageState snapshots the page's local storage
func (d *RodDriver) StorageState(ctx context.Context) (models.StorageState, error) {
	res, err := d.withCtx(ctx).Eval(`() => JSON.stringify(Object.assign({}, window.localStorage))`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeSession, "failed to read local storage", err)
	}

	state := models.StorageState{}
	if err := json.Unmarshal([]byte(res.Value.Str()), &state); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeSession, "failed to decode local storage", err)
	}
	return state, nil
}

// RestoreStorageState replays a local storage snapshot into the page.
// The page must already be on the target origin.
func (d *RodDriver) RestoreStorageState(ctx context.Context, state models.StorageState) error {
	if len(state) == 0 {
		return nil
	}

	encoded, err := json.Marshal(state)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeSession, "failed to encode local storage", err)
	}

	_, err = d.withCtx(ctx).Eval(`(data) => {
		const entries = JSON.parse(data);
		for (const key of Object.keys(entries)) {
			window.localStorage.setItem(key, entries[key]);
		}
	}`, string(encoded))
	if err != nil {
		return errs.Wrap(errs.ErrorTypeSession, "failed to restore local storage", err)
	}
	return nil
}

// Close tears down the page, the browser, and the underlying process
func (d *RodDriver) Close() error {
	var closeErr error
	if d.browser != nil {
		closeErr = d.browser.Close()
	}
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
	}
	if closeErr != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "browser shutdown failed", closeErr)
	}
	return nil
}
