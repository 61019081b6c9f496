package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/chitchat/internal/client/client"
	"github.com/dmitrijs2005/chitchat/internal/client/models"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
)

var errNotLoggedIn = errors.New("not logged in")

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getMultiline = GetMultiline

// wipe zeroes a password buffer once it has been sent.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Register creates an account, asks for the emailed code and logs the
// new user in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	var sess models.Session
	err = a.bootstrap(ctx, protocol.EventRegister, func(c client.Client) error {
		var res struct {
			Message string `json:"message"`
		}
		req := protocol.RegisterRequest{Name: name, Email: email, Password: string(password)}
		if err := a.call(ctx, c, protocol.EventRegister, req, &res); err != nil {
			return err
		}
		a.printf("%s\n", res.Message)

		code, err := getSimpleText(a.reader, "Enter verification code", a.out)
		if err != nil {
			return err
		}
		return a.call(ctx, c, protocol.EventVerifyOTP, protocol.OTPRequest{Email: email, OTP: code}, &sess)
	})
	if err != nil {
		a.printf("Registration unsuccessful: %s\n", err.Error())
		return err
	}
	return a.startSession(ctx, sess)
}

// Login authenticates with email and password.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	var sess models.Session
	err = a.bootstrap(ctx, protocol.EventLogin, func(c client.Client) error {
		return a.call(ctx, c, protocol.EventLogin, protocol.LoginRequest{Email: email, Password: string(password)}, &sess)
	})
	if err != nil {
		a.printf("Login unsuccessful: %s\n", err.Error())
		return err
	}
	return a.startSession(ctx, sess)
}

// ResetPassword walks through forgotPassword, verifyResetOtp and
// resetPassword.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	err = a.bootstrap(ctx, protocol.EventForgotPassword, func(c client.Client) error {
		if err := a.call(ctx, c, protocol.EventForgotPassword, protocol.EmailRequest{Email: email}, nil); err != nil {
			return err
		}
		code, err := getSimpleText(a.reader, "Enter reset code", a.out)
		if err != nil {
			return err
		}
		if err := a.call(ctx, c, protocol.EventVerifyResetOTP, protocol.OTPRequest{Email: email, OTP: code}, nil); err != nil {
			return err
		}
		password, err := getPassword("Enter new password", a.out)
		if err != nil {
			return err
		}
		defer wipe(password)
		return a.call(ctx, c, protocol.EventResetPassword, protocol.ResetPasswordRequest{
			Email: email, OTP: code, NewPassword: string(password),
		}, nil)
	})
	if err != nil {
		a.printf("Password reset unsuccessful: %s\n", err.Error())
		return err
	}
	a.printf("Password reset successful. You can login now.\n")
	return nil
}

// Logout tells the server and drops the local session.
func (a *App) Logout(ctx context.Context) error {
	conn, err := a.session()
	if err != nil {
		return a.fail(err)
	}
	// detach first so the push watcher does not report the server's close
	a.dropIfCurrent(conn)
	defer conn.Close()
	a.forget(ctx)

	if err := a.call(ctx, conn, protocol.EventLogout, nil, nil); err != nil && !errors.Is(err, client.ErrClosed) {
		return a.fail(err)
	}
	a.printf("Logged out\n")
	return nil
}

// WhoAmI re-checks the session credential.
func (a *App) WhoAmI(ctx context.Context) error {
	var res struct {
		User models.User `json:"user"`
	}
	if err := a.request(ctx, protocol.EventCheckAuth, nil, &res); err != nil {
		return a.fail(err)
	}
	a.printf("%s <%s> id=%s\n", res.User.FullName, res.User.Email, res.User.ID)
	return nil
}

func (a *App) call(ctx context.Context, c client.Client, event string, req, resp any) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	return c.Request(ctx, event, req, resp)
}

func (a *App) startSession(ctx context.Context, sess models.Session) error {
	if err := a.connect(ctx, sess); err != nil {
		a.printf("Could not connect: %s\n", err.Error())
		return err
	}
	a.save(ctx, sess)
	a.printf("Logged in as %s\n", sess.User.FullName)
	return nil
}

// fail prints err for the user and returns it.
func (a *App) fail(err error) error {
	a.printf("Error: %s\n", err.Error())
	return err
}
