// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setKeyEnv(t *testing.T, withPrivate bool) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	privateDER := x509.MarshalPKCS1PrivateKey(key)
	require.NoError(t, os.WriteFile(privatePath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privateDER}), 0o600))

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(publicPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER}), 0o600))

	t.Setenv("JWT_PUBLIC_KEY_PATH", publicPath)
	if withPrivate {
		t.Setenv("JWT_PRIVATE_KEY_PATH", privatePath)
	} else {
		t.Setenv("JWT_PRIVATE_KEY_PATH", "")
	}
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	root := rootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestIssueThenInspect(t *testing.T) {
	setKeyEnv(t, true)

	token, err := run("issue", "--user", "editor-7", "--name", "Mai", "--role", "editor", "--cap", "manage_genres")
	require.NoError(t, err)
	token = strings.TrimSpace(token)
	require.NotEmpty(t, token)

	report, err := run("inspect", token)
	require.NoError(t, err)
	assert.Contains(t, report, "editor-7 (Mai)")
	assert.Contains(t, report, "role:         editor")
	assert.Contains(t, report, "[manage_genres]")
}

func TestIssue_Rejections(t *testing.T) {
	setKeyEnv(t, true)

	_, err := run("issue", "--role", "editor")
	assert.Error(t, err, "--user is required")

	_, err = run("issue", "--user", "u1", "--role", "overlord")
	assert.Error(t, err)
}

func TestIssue_VerifyOnlyKeys(t *testing.T) {
	setKeyEnv(t, false)

	_, err := run("issue", "--user", "u1")
	assert.Error(t, err)
}
