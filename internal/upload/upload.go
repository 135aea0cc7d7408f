// Package upload pushes a finished dataset tree to a remote host over SFTP,
// verifying every file with a SHA-256 checksum.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
	xssh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Uploader holds the connection settings for one remote target.
type Uploader struct {
	Addr           string // host:port
	User           string
	KeyPath        string
	KnownHostsPath string // empty disables strict host checking
	Timeout        time.Duration
}

// Push uploads everything under localBase to remoteBase, preserving relative
// paths. Returns the number of files uploaded.
func (u *Uploader) Push(ctx context.Context, localBase, remoteBase string) (int, error) {
	client, err := u.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	sf, err := sftp.NewClient(client)
	if err != nil {
		return 0, fmt.Errorf("sftp client: %w", err)
	}
	defer sf.Close()

	uploaded := 0
	err = filepath.WalkDir(localBase, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localBase, p)
		if err != nil {
			return err
		}
		remotePath := path.Join(remoteBase, filepath.ToSlash(rel))
		if err := u.pushFile(client, sf, p, remotePath); err != nil {
			return fmt.Errorf("upload %s: %w", rel, err)
		}
		uploaded++
		if uploaded%100 == 0 {
			log.Info().Int("files", uploaded).Msg("Upload progress")
		}
		return nil
	})
	if err != nil {
		return uploaded, err
	}
	log.Info().Int("files", uploaded).Str("remote", remoteBase).Msg("Upload complete")
	return uploaded, nil
}

// pushFile copies one file and verifies its checksum on the remote side. A
// mismatch removes the remote copy so a retry starts clean.
func (u *Uploader) pushFile(client *xssh.Client, sf *sftp.Client, localPath, remotePath string) error {
	sum, err := checksum(localPath)
	if err != nil {
		return fmt.Errorf("local checksum: %w", err)
	}

	if err := sf.MkdirAll(path.Dir(remotePath)); err != nil {
		return fmt.Errorf("mkdir remote: %w", err)
	}
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local: %w", err)
	}
	defer src.Close()
	dst, err := sf.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close remote: %w", err)
	}

	if err := verifyRemoteChecksum(client, remotePath, sum); err != nil {
		_ = sf.Remove(remotePath)
		return err
	}
	return nil
}

func checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func verifyRemoteChecksum(client *xssh.Client, remotePath, expected string) error {
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	out, err := session.Output(fmt.Sprintf("sha256sum %q | cut -d' ' -f1", remotePath))
	if err != nil {
		return fmt.Errorf("remote checksum: %w", err)
	}
	got := strings.TrimSpace(string(out))
	if got != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, got)
	}
	return nil
}

func (u *Uploader) dial(ctx context.Context) (*xssh.Client, error) {
	keyData, err := os.ReadFile(u.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	signer, err := xssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	hostKeyCallback := xssh.InsecureIgnoreHostKey()
	if u.KnownHostsPath != "" {
		cb, err := knownhosts.New(u.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	cfg := &xssh.ClientConfig{
		User:            u.User,
		Auth:            []xssh.AuthMethod{xssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         u.Timeout,
	}

	type res struct {
		cli *xssh.Client
		err error
	}
	ch := make(chan res, 1)
	go func() {
		cli, err := xssh.Dial("tcp", u.Addr, cfg)
		ch <- res{cli: cli, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("ssh dial %s: %w", u.Addr, r.err)
		}
		return r.cli, nil
	}
}
