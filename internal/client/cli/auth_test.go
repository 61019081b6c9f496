package cli

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/chitchat/internal/client/client"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_OpensAuthenticatedConnection(t *testing.T) {
	anon, authed := newFakeClient(), newFakeClient()
	anon.responses[protocol.EventLogin] = sessionJSON
	calls := stubDial(t, anon, authed)
	stubInputs(t, "password1", "alice@example.com")

	app, out := newTestApp("")
	require.NoError(t, app.Login(context.Background()))

	assert.Equal(t, []dialCall{{Event: protocol.EventLogin}, {Token: "tok-1"}}, *calls)
	assert.JSONEq(t, `{"email":"alice@example.com","password":"password1"}`, anon.lastData(protocol.EventLogin))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "(Alice)", app.getStatus())
	assert.Contains(t, out.String(), "Logged in as Alice")

	select {
	case <-anon.Done():
	default:
		t.Fatal("bootstrap connection left open")
	}
}

func TestLogin_ServerError(t *testing.T) {
	anon := newFakeClient()
	anon.errs[protocol.EventLogin] = &client.ServerError{Message: "Incorrect password"}
	calls := stubDial(t, anon, nil)
	stubInputs(t, "bad", "alice@example.com")

	app, out := newTestApp("")
	require.Error(t, app.Login(context.Background()))

	assert.Len(t, *calls, 1)
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Login unsuccessful: Incorrect password")
}

func TestRegister_VerifiesCode(t *testing.T) {
	anon, authed := newFakeClient(), newFakeClient()
	anon.responses[protocol.EventRegister] = `{"success":true,"message":"Check your email"}`
	anon.responses[protocol.EventVerifyOTP] = sessionJSON
	stubDial(t, anon, authed)
	stubInputs(t, "password1", "Alice", "alice@example.com", "123456")

	app, out := newTestApp("")
	require.NoError(t, app.Register(context.Background()))

	assert.Equal(t, []string{protocol.EventRegister, protocol.EventVerifyOTP}, anon.events())
	assert.JSONEq(t, `{"email":"alice@example.com","otp":"123456"}`, anon.lastData(protocol.EventVerifyOTP))
	assert.Contains(t, out.String(), "Check your email")
	assert.True(t, app.isLoggedIn())
}

func TestResetPassword(t *testing.T) {
	anon := newFakeClient()
	stubDial(t, anon, nil)
	stubInputs(t, "newpassword", "alice@example.com", "654321")

	app, out := newTestApp("")
	require.NoError(t, app.ResetPassword(context.Background()))

	assert.Equal(t, []string{protocol.EventForgotPassword, protocol.EventVerifyResetOTP, protocol.EventResetPassword}, anon.events())
	assert.JSONEq(t, `{"email":"alice@example.com","otp":"654321","newPassword":"newpassword"}`,
		anon.lastData(protocol.EventResetPassword))
	assert.Contains(t, out.String(), "Password reset successful")
}

func TestLogout(t *testing.T) {
	anon, authed := newFakeClient(), newFakeClient()
	anon.responses[protocol.EventLogin] = sessionJSON
	stubDial(t, anon, authed)
	stubInputs(t, "password1", "alice@example.com")

	app, out := newTestApp("")
	require.NoError(t, app.Login(context.Background()))
	require.NoError(t, app.Logout(context.Background()))

	assert.Contains(t, authed.events(), protocol.EventLogout)
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Logged out")
	assert.NotContains(t, out.String(), "Disconnected")

	assert.ErrorIs(t, app.Logout(context.Background()), errNotLoggedIn)
}

func TestWipe(t *testing.T) {
	b := []byte("secret")
	wipe(b)
	assert.Equal(t, make([]byte, 6), b)
}
