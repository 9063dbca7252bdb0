package tunnel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"

	ncerr "gochat/internal/errors"
)

// identityFiles are tried under ~/.ssh when no key, agent or password
// was requested.
var identityFiles = []string{"id_ed25519", "id_rsa", "id_ecdsa"} //nolint:gochecknoglobals

// readSecret prints prompt on stderr and reads a line from the terminal
// without echo.  Tests replace it.
var readSecret = func(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// BuildAuthMethods assembles the SSH authentication methods for the
// gateway.  Keys from --ssh-key and the agent share one publickey
// method.
// The password method, if requested, comes last.
func BuildAuthMethods(cfg *SSHConfig) ([]ssh.AuthMethod, error) {
	var (
		signers []ssh.Signer
		agentFn func() ([]ssh.Signer, error)
		methods []ssh.AuthMethod
	)

	if cfg.KeyPath != "" {
		s, err := loadSigner(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", cfg.KeyPath, err)
		}
		signers = append(signers, s)
	}

	if cfg.UseAgent {
		fn, err := agentSigners()
		if err != nil {
			return nil, fmt.Errorf("ssh-agent: %w", err)
		}
		agentFn = fn
	}

	explicit := cfg.KeyPath != "" || cfg.UseAgent || cfg.PromptPass
	if !explicit {
		if fn, err := agentSigners(); err == nil {
			agentFn = fn
		}
		signers = append(signers, defaultSigners()...)
	}

	if m := publicKeys(signers, agentFn); m != nil {
		methods = append(methods, m)
	}

	if cfg.PromptPass {
		pass, err := readSecret("SSH password: ")
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		methods = append(methods, ssh.Password(string(pass)))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf(
			"%w: no SSH authentication methods available – "+
				"use --ssh-key, --ssh-password, or --ssh-agent", ncerr.ErrAuthFailed)
	}
	return methods, nil
}

// publicKeys merges static signers with those the agent offers at
// handshake time.  It returns nil when neither source exists.
func publicKeys(static []ssh.Signer, fromAgent func() ([]ssh.Signer, error)) ssh.AuthMethod {
	switch {
	case fromAgent == nil && len(static) == 0:
		return nil
	case fromAgent == nil:
		return ssh.PublicKeys(static...)
	}
	return ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
		fromAgentKeys, err := fromAgent()
		if err != nil && len(static) == 0 {
			return nil, err
		}
		return append(append([]ssh.Signer{}, static...), fromAgentKeys...), nil
	})
}

// ── key sources ──────────────────────────────────────────────────────

// loadSigner parses a private key file, prompting for the passphrase
// when the key is encrypted.
func loadSigner(keyPath string) (ssh.Signer, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	var missing *ssh.PassphraseMissingError
	switch {
	case err == nil:
		return signer, nil
	case !errors.As(err, &missing):
		return nil, fmt.Errorf("parsing key: %w", err)
	}

	pass, err := readSecret(fmt.Sprintf("Enter passphrase for %s: ", keyPath))
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	signer, err = ssh.ParsePrivateKeyWithPassphrase(data, pass)
	if err != nil {
		return nil, fmt.Errorf("decrypting key: %w", err)
	}
	return signer, nil
}

// agentSigners connects to the agent named by SSH_AUTH_SOCK.
func agentSigners() (func() ([]ssh.Signer, error), error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("connecting to agent at %s: %w", sock, err)
	}
	return agent.NewClient(conn).Signers, nil
}

// defaultSigners loads whichever identityFiles exist.  Unreadable or
// encrypted-and-abandoned keys are skipped.
func defaultSigners() []ssh.Signer {
	dir, err := sshDir()
	if err != nil {
		return nil
	}
	var out []ssh.Signer
	for _, name := range identityFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if s, err := loadSigner(p); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func sshDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".ssh"), nil
}

// ── host-key verification ────────────────────────────────────────────

func hostKeyCallback(cfg *SSHConfig) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKey {
		//nolint:gosec // user opted out of host key checking
		return ssh.InsecureIgnoreHostKey(), nil
	}

	khFile := cfg.KnownHosts
	if khFile == "" {
		dir, err := sshDir()
		if err != nil {
			return nil, err
		}
		khFile = filepath.Join(dir, "known_hosts")
	}

	cb, err := knownhosts.New(khFile)
	if err != nil {
		return nil, fmt.Errorf("loading known_hosts from %s: %w", khFile, err)
	}
	return cb, nil
}
