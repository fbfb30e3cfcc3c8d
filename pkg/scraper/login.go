package scraper

import (
	"context"
	"strings"
	"time"

	errs "xtractor/pkg/errors"
	"xtractor/pkg/session"
	"xtractor/pkg/ui"
)

// establishSession gets the browser into an authenticated state: restore
// the stored session when one exists and still works, otherwise walk the
// operator through an interactive login.
func (s *Scraper) establishSession(ctx context.Context, stored *session.Session) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.driver.Navigate(ctx, s.cfg.Browser.BaseURL); err != nil {
		return err
	}

	if stored != nil {
		if err := s.restoreSession(ctx, stored); err != nil {
			s.logger.WithError(err).Warn("Session restore failed, falling back to login")
		} else if ok, err := s.loggedIn(ctx); err == nil && ok {
			s.logger.Info("Restored previous session")
			ui.PrintSuccess("Previous session restored")
			return nil
		}
		s.logger.Info("Stored session rejected by the platform")
		if err := s.sessions.Delete(); err != nil {
			s.logger.WithError(err).Debug("Failed to remove stale session file")
		}
	}

	return s.interactiveLogin(ctx)
}

// restoreSession replays cookies and local storage, then reloads so the
// page picks them up
func (s *Scraper) restoreSession(ctx context.Context, stored *session.Session) error {
	if err := s.driver.SetCookies(ctx, stored.Cookies); err != nil {
		return err
	}
	if err := s.driver.RestoreStorageState(ctx, stored.StorageState); err != nil {
		return err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.driver.Navigate(ctx, s.cfg.Browser.BaseURL+"/home"); err != nil {
		return err
	}
	return s.human.Delay(ctx, 2*time.Second, 4*time.Second)
}

// interactiveLogin opens the login flow, prefills the username when
// stored credentials exist, and hands control to the operator. The
// password is never typed automatically into the page.
func (s *Scraper) interactiveLogin(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.driver.Navigate(ctx, s.cfg.Browser.BaseURL+"/login"); err != nil {
		return err
	}
	if err := s.human.Delay(ctx, 2*time.Second, 4*time.Second); err != nil {
		return err
	}

	s.prefillUsername(ctx)

	ui.PrintHighlight("\n[MANUAL LOGIN REQUIRED]")
	ui.PrintWarning("Complete the login in the browser window")
	if err := s.operatorWait(ctx, "Finish signing in, then come back here."); err != nil {
		return err
	}

	ok, err := s.loggedIn(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errs.New(errs.ErrorTypeSession, "login was not completed")
	}

	s.logger.Info("Interactive login completed")
	ui.PrintSuccess("Logged in")
	return nil
}

// prefillUsername types the stored username into the login form when
// both the credentials and the field are available. Best-effort.
func (s *Scraper) prefillUsername(ctx context.Context) {
	if s.creds == nil {
		return
	}
	account, err := s.creds.RetrieveDefault()
	if err != nil || account.Username == "" {
		return
	}

	has, err := s.driver.ElementExists(ctx, usernameInputSelector)
	if err != nil || !has {
		return
	}
	if err := s.driver.ClickElement(ctx, usernameInputSelector); err != nil {
		return
	}
	if err := s.typeLikeHuman(ctx, account.Username); err != nil {
		return
	}
	ui.PrintInfo("Prefilled username", account.Username)
}

// loggedIn reports whether the page shows an authenticated state
func (s *Scraper) loggedIn(ctx context.Context) (bool, error) {
	if has, err := s.driver.ElementExists(ctx, homeLinkSelector); err == nil && has {
		return true, nil
	}

	current, err := s.driver.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	if strings.Contains(current, "/login") || strings.Contains(current, "/i/flow/login") {
		return false, nil
	}
	return true, nil
}
