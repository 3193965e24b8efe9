package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ---- token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Email       string    `json:"email,omitempty"`
}

var errNotSignedIn = errors.New("not signed in (run `ap signin`)")

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "agentpass")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "agentpass")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

// saveToken writes the session file readable by the owner only.
func saveToken(tf tokenFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	// an older file may have been created with wider permissions
	if err := f.Chmod(0o600); err != nil {
		return err
	}
	_, err = f.Write(append(b, '\n'))
	return err
}

func loadToken() (tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if errors.Is(err, fs.ErrNotExist) {
		return tokenFile{}, errNotSignedIn
	}
	if err != nil {
		return tokenFile{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return tokenFile{}, err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return tokenFile{}, errNotSignedIn
	}
	return tf, nil
}

func clearToken() error {
	err := os.Remove(tokenPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
