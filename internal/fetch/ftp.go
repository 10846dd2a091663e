// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"

	"github.com/jlaffaye/ftp"
)

const (
	defaultFTPPort = "21"
	anonymousUser  = "anonymous"
)

// ftpReader closes the transfer and then the control connection.
type ftpReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpReader) Read(p []byte) (int, error) { return r.resp.Read(p) }

func (r *ftpReader) Close() error {
	err := r.resp.Close()
	if qerr := r.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}

func (f *Fetcher) openFTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), defaultFTPPort)
	}

	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if f.cfg.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(f.cfg.Timeout))
	}
	conn, err := ftp.Dial(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("FTP dial %s: %w", host, err)
	}

	user, pass := anonymousUser, anonymousUser
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	} else if f.cfg.FTPUser != "" {
		user, pass = f.cfg.FTPUser, f.cfg.FTPPassword
	}
	if err := conn.Login(user, pass); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("FTP login to %s: %w", host, err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		conn.Quit()
		return nil, fmt.Errorf("FTP RETR %s: %w", u.Path, err)
	}
	return &ftpReader{resp: resp, conn: conn}, nil
}
