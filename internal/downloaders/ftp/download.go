package fetchftp

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/fetchr/internal/address"
	"github.com/tanq16/fetchr/internal/downloaders"
	"github.com/tanq16/fetchr/internal/transfer"
	"github.com/tanq16/fetchr/internal/utils"
	"github.com/tanq16/fetchr/internal/wire"
)

// Download runs the control dialogue: greeting, login, binary mode, optional SIZE, passive
// data connection, optional REST, RETR, then the body and the closing 226.
func (d *FTPDownloader) Download(ctx context.Context, job *utils.FetchJob, out *transfer.Sink, state *transfer.State) error {
	target := downloaders.Target(job)
	logger := log.With().Str("op", "ftp/download").Str("job", job.ID).Logger()

	conn, err := wire.Dial(ctx, target.Host, target.Port, job.Config.Timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer context.AfterFunc(ctx, func() { conn.Close() })()
	ctrl := &control{conn: conn, log: logger}

	rep, err := ctrl.read()
	if err != nil {
		return err
	}
	if rep.code != 220 {
		return &utils.ReplyError{Step: "ftp greeting", Code: rep.code, Message: rep.message}
	}
	if err := login(ctrl, target); err != nil {
		return err
	}

	// best effort, some servers reject CDUP at the root
	if _, err := ctrl.send("CDUP"); err != nil {
		return err
	}
	if _, err := ctrl.send("TYPE I"); err != nil {
		return err
	}

	state.Reset()
	if rep, err = ctrl.send("SIZE /" + target.Path); err != nil {
		return err
	}
	if rep.code == 213 {
		state.SetSize(leadingInt(rep.message))
	}

	if rep, err = ctrl.send("PASV"); err != nil {
		return err
	}
	if rep.code != 227 {
		return &utils.ReplyError{Step: "PASV", Code: rep.code, Message: rep.message}
	}
	port, err := parsePassivePort(rep.message)
	if err != nil {
		return &utils.ReplyError{Step: "PASV", Code: rep.code, Message: err.Error()}
	}
	dataHost := passiveHost(conn, target.Host)
	logger.Debug().Msgf("data channel on %s:%d", dataHost, port)
	data, err := wire.Dial(ctx, dataHost, port, job.Config.Timeout)
	if err != nil {
		return err
	}
	defer data.Close()
	defer context.AfterFunc(ctx, func() { data.Close() })()

	if state.Resuming() {
		if rep, err = ctrl.send(fmt.Sprintf("REST %d", state.Offset())); err != nil {
			return err
		}
		if rep.code != 350 {
			logger.Warn().Msgf("server refused to resume (%d %s), fetching from the start", rep.code, rep.message)
			if err := out.Reset(); err != nil {
				return err
			}
			state.CancelResume()
		} else if state.SizeKnown() {
			state.SetSize(max(state.Size()-state.Offset(), 0))
		}
	}

	if rep, err = ctrl.send("RETR /" + target.Path); err != nil {
		return err
	}
	if rep.code > 150 {
		return &utils.ReplyError{Step: "RETR", Code: rep.code, Message: rep.message}
	}

	if err := transfer.Copy(ctx, out, data, state, transfer.NewLimiter(job.Config.RateLimit)); err != nil {
		return err
	}
	data.Close()

	if rep, err = ctrl.read(); err != nil {
		return err
	}
	if rep.code != 226 {
		return &utils.ReplyError{Step: "ftp transfer", Code: rep.code, Message: rep.message}
	}
	if _, err := ctrl.send("QUIT"); err != nil {
		logger.Debug().Err(err).Msg("QUIT not acknowledged")
	}
	return nil
}

// passiveHost is the address the control connection reached, so the data connection lands on
// the same server even when the host name resolves to several addresses.
func passiveHost(ctrl *wire.Conn, fallback string) string {
	if addr, ok := ctrl.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP.String()
	}
	return fallback
}

// login sends USER and, when asked for it, PASS. Targets without credentials log in as the
// anonymous user.
func login(ctrl *control, target address.Address) error {
	user, pass := AnonymousUser, AnonymousPassword
	if target.HasUser {
		user, pass = target.User, target.Password
	}
	rep, err := ctrl.send("USER " + user)
	if err != nil {
		return err
	}
	switch rep.code {
	case 230:
		return nil
	case 331:
		if rep, err = ctrl.send("PASS " + pass); err != nil {
			return err
		}
		if rep.code == 230 {
			return nil
		}
	}
	return &utils.ReplyError{Step: "ftp login", Code: rep.code, Message: rep.message}
}
