package e2e

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps binds all step definitions for the QR login scenarios.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the gateway is healthy$`, tc.theGatewayIsHealthy)
	ctx.Step(`^I start a QR login$`, tc.iStartAQRLogin)
	ctx.Step(`^I request the status of the login attempt$`, tc.iRequestTheStatus)
	ctx.Step(`^I request the status of login attempt "([^"]*)"$`, tc.iRequestTheStatusOf)
	ctx.Step(`^the response status is (\d+)$`, tc.theResponseStatusIs)
	ctx.Step(`^the response contains a login URL with scheme "([^"]*)"$`, tc.theResponseContainsLoginURL)
	ctx.Step(`^the response contains a watch token$`, tc.theResponseContainsWatchToken)
	ctx.Step(`^the attempt status is "([^"]*)"$`, tc.theAttemptStatusIs)
}

func (tc *TestContext) theGatewayIsHealthy() error {
	if err := tc.do("GET", "/healthz", nil); err != nil {
		return err
	}
	if tc.LastStatus != 200 {
		return fmt.Errorf("expected healthy gateway, got status %d", tc.LastStatus)
	}
	return nil
}

func (tc *TestContext) iStartAQRLogin() error {
	if err := tc.do("POST", "/qr/login", nil); err != nil {
		return err
	}
	if tc.LastStatus != 201 {
		return fmt.Errorf("expected 201 from login creation, got %d", tc.LastStatus)
	}

	loginID, err := tc.bodyString("loginId")
	if err != nil {
		return err
	}
	watchToken, err := tc.bodyString("watchToken")
	if err != nil {
		return err
	}
	tc.LoginID = loginID
	tc.WatchToken = watchToken
	return nil
}

func (tc *TestContext) iRequestTheStatus() error {
	if tc.LoginID == "" {
		return fmt.Errorf("no login attempt created in this scenario")
	}
	return tc.do("GET", "/qr/login/"+tc.LoginID+"?watch_token="+tc.WatchToken, nil)
}

// iRequestTheStatusOf deliberately sends no watch token; it exercises the
// unauthorized path.
func (tc *TestContext) iRequestTheStatusOf(loginID string) error {
	return tc.do("GET", "/qr/login/"+loginID, nil)
}

func (tc *TestContext) theResponseStatusIs(expected int) error {
	if tc.LastStatus != expected {
		return fmt.Errorf("expected status %d, got %d (body: %v)", expected, tc.LastStatus, tc.LastBody)
	}
	return nil
}

func (tc *TestContext) theResponseContainsLoginURL(scheme string) error {
	loginURL, err := tc.bodyString("loginUrl")
	if err != nil {
		return err
	}
	if !strings.HasPrefix(loginURL, scheme+"://login?token=") {
		return fmt.Errorf("login URL %q does not match scheme %q", loginURL, scheme)
	}
	return nil
}

func (tc *TestContext) theResponseContainsWatchToken() error {
	token, err := tc.bodyString("watchToken")
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("watch token is empty")
	}
	return nil
}

func (tc *TestContext) theAttemptStatusIs(expected string) error {
	status, err := tc.bodyString("status")
	if err != nil {
		return err
	}
	if status != expected {
		return fmt.Errorf("expected attempt status %q, got %q", expected, status)
	}
	return nil
}
